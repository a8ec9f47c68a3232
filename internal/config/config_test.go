package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/nitai/internal/constants"
	"github.com/oshokin/nitai/internal/version"
)

// TestDefault tests that the defaults pass validation.
func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, zapcore.InfoLevel, cfg.ParsedLogLevel)
	assert.Equal(t, 60*time.Second, cfg.ParsedTimeout)
	assert.Equal(t, 10*time.Second, cfg.ParsedConnectTimeout)
	assert.Zero(t, cfg.ParsedReadTimeout)
	assert.Equal(t, uint64(1000*1000), cfg.ParsedMaxLogLength)
	assert.Zero(t, cfg.ParsedMaxBodySize)
	assert.Equal(t, int64(64*1000*1000), cfg.WebSocket.ParsedMaxMessageSize)
	assert.Equal(t, 10*time.Second, cfg.WebSocket.ParsedHandshakeTimeout)
	assert.Nil(t, cfg.ParsedProxy)
}

// TestConstants tests the constants.
func TestConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1024*1024, DefaultMaxLogLength)
	assert.Equal(t, ".nitai.yaml", DefaultConfigFilename)
}

// TestLoadConfig tests the LoadConfig function.
//
//nolint:tparallel // LoadConfig uses the global viper instance.
func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name           string
		configFilename string
		configContent  string
		expectError    bool
		expectedError  string
	}{
		{
			name:           "valid config file",
			configFilename: "valid_config.yaml",
			configContent: `
log_level: "debug"
user_agent: "tester/2.0"
timeout: "5s"
max_redirects: 3
proxy: "http://127.0.0.1:3128"
max_body_size: "10MB"
headers:
  X-Api-Key: "secret"
websocket:
  protocols: ["chat", "json"]
  max_message_size: "1MB"
`,
			expectError: false,
		},
		{
			name:           "non-existent file",
			configFilename: "non_existent.yaml",
			expectError:    true,
			expectedError:  "failed to read config from file",
		},
		{
			name:           "invalid yaml",
			configFilename: "invalid.yaml",
			configContent: `
invalid: yaml: content: [unclosed
`,
			expectError:   true,
			expectedError: "failed to read config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.configFilename)

			if tt.configContent != "" {
				err := os.WriteFile(configPath, []byte(tt.configContent), constants.DefaultFilePermissions)
				require.NoError(t, err)
			}

			cfg, err := LoadConfig(configPath)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			require.NoError(t, ValidateConfig(cfg))

			assert.Equal(t, zapcore.DebugLevel, cfg.ParsedLogLevel)
			assert.Equal(t, "tester/2.0", cfg.UserAgent)
			assert.Equal(t, 5*time.Second, cfg.ParsedTimeout)
			assert.Equal(t, 3, cfg.MaxRedirects)
			assert.Equal(t, "127.0.0.1:3128", cfg.ParsedProxy.Host)
			assert.Equal(t, int64(10*1000*1000), cfg.ParsedMaxBodySize)
			// Viper folds map keys to lower case; http.Header canonicalizes them again.
			assert.Equal(t, map[string]string{"x-api-key": "secret"}, cfg.Headers)
			assert.Equal(t, []string{"chat", "json"}, cfg.WebSocket.Protocols)
			assert.Equal(t, int64(1000*1000), cfg.WebSocket.ParsedMaxMessageSize)

			// Keys missing from the file keep their defaults.
			assert.True(t, cfg.Verify)
			assert.True(t, cfg.AllowRedirects)
			assert.Equal(t, 4096, cfg.WebSocket.ReadBufferSize)
		})
	}
}

// TestLoadConfig_MissingDefaultFile tests that a missing default file yields the defaults.
//
//nolint:paralleltest // Changes the working directory.
func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestValidateConfig tests the ValidateConfig function.
func TestValidateConfig(t *testing.T) {
	t.Parallel()

	missingBundle := filepath.Join(t.TempDir(), "missing.pem")

	tests := []struct {
		name     string
		mutate   func(cfg *Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			mutate: func(_ *Config) {},
		},
		{
			name:     "invalid log level",
			mutate:   func(cfg *Config) { cfg.LogLevel = "invalid" },
			errorMsg: "unknown log level:",
		},
		{
			name:     "invalid timeout",
			mutate:   func(cfg *Config) { cfg.Timeout = "soon" },
			errorMsg: "failed to parse timeout:",
		},
		{
			name:     "negative connect timeout",
			mutate:   func(cfg *Config) { cfg.ConnectTimeout = "-1s" },
			errorMsg: "timeout must not be negative",
		},
		{
			name:     "too many redirects",
			mutate:   func(cfg *Config) { cfg.MaxRedirects = 1000 },
			errorMsg: "invalid max_redirects",
		},
		{
			name:     "proxy without scheme",
			mutate:   func(cfg *Config) { cfg.Proxy = "localhost" },
			errorMsg: "invalid proxy URL",
		},
		{
			name:     "missing CA bundle",
			mutate:   func(cfg *Config) { cfg.CABundle = missingBundle },
			errorMsg: "CA bundle not found",
		},
		{
			name:     "invalid max body size",
			mutate:   func(cfg *Config) { cfg.MaxBodySize = "lots" },
			errorMsg: "failed to parse max body size:",
		},
		{
			name:     "invalid download speed limit",
			mutate:   func(cfg *Config) { cfg.DownloadSpeedLimit = "invalid" },
			errorMsg: "failed to parse download speed limit:",
		},
		{
			name:     "negative buffer size",
			mutate:   func(cfg *Config) { cfg.WebSocket.ReadBufferSize = -1 },
			errorMsg: "websocket buffer size must not be negative",
		},
		{
			name:     "invalid handshake timeout",
			mutate:   func(cfg *Config) { cfg.WebSocket.HandshakeTimeout = "x" },
			errorMsg: "failed to parse websocket handshake timeout:",
		},
		{
			name:     "default header",
			mutate: func(cfg *Config) { cfg.Headers = map[string]string{"X-Trace": "1"} },
		},
		{
			name:     "header name with a space",
			mutate:   func(cfg *Config) { cfg.Headers = map[string]string{"X Trace": "1"} },
			errorMsg: "invalid header name: 'X Trace'",
		},
		{
			name:     "empty header name",
			mutate:   func(cfg *Config) { cfg.Headers = map[string]string{"": "1"} },
			errorMsg: "invalid header name",
		},
		{
			name:     "no concurrency",
			mutate:   func(cfg *Config) { cfg.MaxConcurrentRequests = 0 },
			errorMsg: "max concurrent requests must be a positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)

			if tt.errorMsg == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

// TestValidateConfig_DownloadSpeedLimit tests download speed limit validation.
func TestValidateConfig_DownloadSpeedLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		speedLimit    string
		expectedBytes int64
	}{
		{name: "empty limit", speedLimit: "", expectedBytes: 0},
		{name: "zero limit", speedLimit: "0", expectedBytes: 0},
		{name: "1KB limit", speedLimit: "1KB", expectedBytes: 1000},
		{name: "1MiB limit", speedLimit: "1MiB", expectedBytes: 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			cfg.DownloadSpeedLimit = tt.speedLimit

			require.NoError(t, ValidateConfig(cfg))
			assert.Equal(t, tt.expectedBytes, cfg.ParsedDownloadSpeedLimit)
		})
	}
}

// TestValidateConfig_EmptyUserAgent tests that an empty User-Agent falls back to the default.
func TestValidateConfig_EmptyUserAgent(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.UserAgent = "  "

	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, version.UserAgent(), cfg.UserAgent)
}

// TestSaveConfig tests writing and refusing to overwrite configuration files.
func TestSaveConfig(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "nitai.yaml")

	cfg := Default()
	cfg.Proxy = "http://proxy.local:8080"

	require.NoError(t, SaveConfig(cfg, configPath, false))

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var saved map[string]any
	require.NoError(t, yaml.Unmarshal(content, &saved))

	assert.Equal(t, "http://proxy.local:8080", saved["proxy"])
	assert.Equal(t, "info", saved["log_level"])
	assert.NotContains(t, saved, "parsedloglevel")
	assert.Contains(t, saved, "websocket")

	err = SaveConfig(cfg, configPath, false)
	require.ErrorIs(t, err, os.ErrExist)

	require.NoError(t, SaveConfig(cfg, configPath, true))
}
