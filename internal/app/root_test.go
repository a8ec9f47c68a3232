package app

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/nitai/internal/client"
	"github.com/oshokin/nitai/internal/config"
	"github.com/oshokin/nitai/internal/constants"
)

// TestCollectURLs tests merging command-line URLs with an input file.
func TestCollectURLs(t *testing.T) {
	t.Parallel()

	inputFile := filepath.Join(t.TempDir(), "urls.txt")
	content := "# comment\nhttp://b.test\n\nhttp://a.test\nhttp://c.test\nhttp://b.test\n"
	require.NoError(t, os.WriteFile(inputFile, []byte(content), constants.DefaultFilePermissions))

	tests := []struct {
		name      string
		args      []string
		inputFile string
		expected  []string
		wantErr   bool
	}{
		{
			name:     "arguments only",
			args:     []string{"http://a.test", " http://a.test ", "", "http://b.test"},
			expected: []string{"http://a.test", "http://b.test"},
		},
		{
			name:      "arguments before file lines",
			args:      []string{"http://a.test"},
			inputFile: inputFile,
			expected:  []string{"http://a.test", "http://b.test", "http://c.test"},
		},
		{
			name:    "nothing to fetch",
			wantErr: true,
		},
		{
			name:      "missing input file",
			inputFile: filepath.Join(t.TempDir(), "missing.txt"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			urls, err := collectURLs(tt.args, tt.inputFile)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, urls)
		})
	}
}

// TestBuildTargets tests that every target gets its own options and body.
func TestBuildTargets(t *testing.T) {
	t.Parallel()

	shared := &client.RequestOptions{
		BearerToken: "token",
		Header:      http.Header{"X-Test": {"1"}},
	}

	targets, err := buildTargets(&FetchParams{
		Method:  " post ",
		URLs:    []string{"http://a.test", "http://b.test"},
		Data:    "payload",
		Options: shared,
	})
	require.NoError(t, err)
	require.Len(t, targets, 2)

	for _, target := range targets {
		assert.Equal(t, http.MethodPost, target.Method)
		assert.Equal(t, "token", target.Options.BearerToken)
		assert.NotSame(t, shared, target.Options)

		body, readErr := io.ReadAll(target.Options.Body)
		require.NoError(t, readErr)
		assert.Equal(t, "payload", string(body))
	}

	targets, err = buildTargets(&FetchParams{URLs: []string{"http://a.test"}})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, targets[0].Method)
	assert.Nil(t, targets[0].Options.Body)

	_, err = buildTargets(&FetchParams{})
	require.ErrorIs(t, err, ErrNoURLs)
}

// TestWriteConfig tests that the printed configuration can be loaded back.
//
//nolint:paralleltest // LoadConfig uses the global viper instance.
func TestWriteConfig(t *testing.T) {
	cfg := config.Default()
	cfg.UserAgent = "printed/1.0"

	var output bytes.Buffer

	require.NoError(t, writeConfig(cfg, &output))
	assert.Contains(t, output.String(), "user_agent: printed/1.0")
	assert.NotContains(t, output.String(), "parsed")

	configFile := filepath.Join(t.TempDir(), "printed.yaml")
	require.NoError(t, os.WriteFile(configFile, output.Bytes(), constants.DefaultFilePermissions))

	loaded, err := config.LoadConfig(configFile)
	require.NoError(t, err)
	assert.Equal(t, "printed/1.0", loaded.UserAgent)
	require.NoError(t, config.ValidateConfig(loaded))
}
