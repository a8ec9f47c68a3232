package utils

import (
	"bufio"
	"math"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// invalidCharsPattern includes ASCII control characters (0-31) and Windows-restricted characters: < > : " / \ | ? *.
	//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
	invalidCharsPattern = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

	// textContentTypePatterns match content types whose bodies are safe to print or log.
	//nolint:gochecknoglobals // These are immutable, pre-compiled regex patterns and used as constants.
	textContentTypePatterns = []*regexp.Regexp{
		regexp.MustCompile("^text/.+"),
		regexp.MustCompile(`^application/(.+\+)?json$`),
		regexp.MustCompile(`^application/(.+\+)?xml$`),
		regexp.MustCompile("^application/x-www-form-urlencoded$"),
	}
)

// SafeUint64ToInt64 converts a uint64 value to an int64 safely,
// ensuring that the value does not exceed the maximum limit of int64.
func SafeUint64ToInt64(val uint64) int64 {
	if val > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(val)
}

// SanitizeFilename sanitizes a filename to be valid on both Windows and Unix-like systems.
func SanitizeFilename(name string) string {
	result := strings.TrimRight(invalidCharsPattern.ReplaceAllString(name, "_"), ". ")
	if result == "" {
		return "_"
	}

	return result
}

// FilenameFromURLPath derives a file name from the last segment of a URL path.
// It returns fallback when the path has no usable segment.
func FilenameFromURLPath(urlPath, fallback string) string {
	base := path.Base(urlPath)
	if base == "." || base == "/" || base == "" {
		return fallback
	}

	return SanitizeFilename(base)
}

// IsFileExist checks if a file exists at the specified path.
// It returns true if the file exists and is not a directory, false if the file does not exist,
// and an error if there was an issue accessing the file.
func IsFileExist(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err == nil {
		return !stat.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// IsDirExist checks if a directory exists at the specified path.
func IsDirExist(path string) bool {
	stat, err := os.Stat(path)

	return err == nil && stat.IsDir()
}

// ReadUniqueLinesFromFile reads a text file and returns a slice of unique non-empty lines.
// Lines starting with '#' are treated as comments.
func ReadUniqueLinesFromFile(path string) ([]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer file.Close() //nolint:errcheck // Error on close is not critical here.

	var (
		uniqueLines = make(map[string]struct{})
		lines       []string
		scanner     = bufio.NewScanner(file)
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if _, exists := uniqueLines[line]; !exists {
			uniqueLines[line] = struct{}{}

			lines = append(lines, line)
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// IsTextContentType checks if the given content type represents a text-based format
// encoded in UTF-8 or ASCII.
func IsTextContentType(contentType string) bool {
	parsedType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	for _, pattern := range textContentTypePatterns {
		if !pattern.MatchString(parsedType) {
			continue
		}

		charset := strings.ToLower(params["charset"])

		return charset == "" || charset == "utf-8" || charset == "us-ascii"
	}

	return false
}
