package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/oshokin/nitai/internal/constants"
	"github.com/oshokin/nitai/internal/errs"
	"github.com/oshokin/nitai/internal/logger"
	"github.com/oshokin/nitai/internal/response"
	"github.com/oshokin/nitai/internal/utils"
)

const (
	// File options for overwriting an existing file.
	overwriteFileOptions = os.O_CREATE | os.O_TRUNC | os.O_WRONLY

	// defaultFilename names bodies of URLs without a usable path segment.
	defaultFilename = "index.html"

	// throttleInterval is the period the speed limit is measured over.
	throttleInterval = time.Second
)

// saveBody streams the body of resp into a file under outputPath.
// The body is written to a temporary .part file first and renamed once complete.
//
//nolint:funlen // Function orchestrates the download workflow with multiple sequential steps.
func (s *ServiceImpl) saveBody(ctx context.Context, resp *response.Response, outputPath string, isBatch bool) error {
	destinationPath, err := destinationFilePath(resp, outputPath, isBatch)
	if err != nil {
		return err
	}

	stream, err := resp.Stream(ctx)
	if err != nil {
		return err
	}

	defer stream.Body.Close() //nolint:errcheck // Error on close is not critical here.

	// Unique temporary names keep concurrent downloads of the same file apart.
	tempFilePath := destinationPath + "." + uuid.NewString() + constants.ExtensionPart

	f, err := os.OpenFile(filepath.Clean(tempFilePath), overwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return errs.IO(fmt.Errorf("failed to create temporary file: %w", err))
	}

	var (
		isClosed bool
		isSaved  bool
	)

	defer func() {
		if !isClosed {
			_ = f.Close()
		}

		if isSaved {
			return
		}

		if removeErr := os.Remove(tempFilePath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warnf(ctx, "Failed to clean up temporary file '%s': %v", tempFilePath, removeErr)
		}
	}()

	// Progress bars are disabled for batches to avoid terminal output conflicts.
	var writer io.Writer = f

	if logger.Level() <= zap.InfoLevel && !isBatch {
		bar := progressbar.DefaultBytes(stream.ContentLength, "Downloading")
		writer = io.MultiWriter(f, bar)
	}

	bytesWritten, err := copyWithSpeedLimit(ctx, writer, stream.Body, s.cfg.ParsedDownloadSpeedLimit)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if stream.ContentLength >= 0 && bytesWritten != stream.ContentLength {
		return fmt.Errorf(
			"%w: wrote %d bytes, expected %d bytes",
			ErrIncompleteDownload,
			bytesWritten,
			stream.ContentLength,
		)
	}

	isClosed = true

	if err = f.Close(); err != nil {
		return errs.IO(fmt.Errorf("failed to close temporary file: %w", err))
	}

	if err = os.Rename(tempFilePath, destinationPath); err != nil {
		return errs.IO(fmt.Errorf("failed to rename temporary file: %w", err))
	}

	isSaved = true

	//nolint:gosec // Written byte counts are never negative.
	logger.Infof(ctx, "Saved '%s' (%s)", destinationPath, humanize.Bytes(uint64(bytesWritten)))
	s.incrementFileSaved(bytesWritten)

	return nil
}

// destinationFilePath resolves where the body of resp is saved.
// Batches and existing directories get one file per URL named after its last path segment.
func destinationFilePath(resp *response.Response, outputPath string, isBatch bool) (string, error) {
	if !isBatch && !utils.IsDirExist(outputPath) {
		if err := os.MkdirAll(filepath.Dir(outputPath), constants.DefaultFolderPermissions); err != nil {
			return "", errs.IO(fmt.Errorf("failed to create output folder: %w", err))
		}

		return outputPath, nil
	}

	if err := os.MkdirAll(outputPath, constants.DefaultFolderPermissions); err != nil {
		return "", errs.IO(fmt.Errorf("failed to create output folder: %w", err))
	}

	filename := defaultFilename
	if finalURL := resp.URL(); finalURL != nil {
		filename = utils.FilenameFromURLPath(finalURL.Path, defaultFilename)
	}

	return filepath.Join(outputPath, filename), nil
}

// copyWithSpeedLimit copies src to dst, sending at most limit bytes per second.
// A zero limit copies without throttling.
func copyWithSpeedLimit(ctx context.Context, dst io.Writer, src io.Reader, limit int64) (int64, error) {
	if limit <= 0 {
		return io.Copy(dst, src)
	}

	var bytesWritten int64

	for {
		n, err := io.CopyN(dst, src, limit)
		bytesWritten += n

		if errors.Is(err, io.EOF) {
			return bytesWritten, nil
		}

		if err != nil {
			return bytesWritten, err
		}

		// Throttle to respect speed limit.
		select {
		case <-ctx.Done():
			return bytesWritten, ctx.Err()
		case <-time.After(throttleInterval):
		}
	}
}
