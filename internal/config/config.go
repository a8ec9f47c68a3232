package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/nitai/internal/constants"
	"github.com/oshokin/nitai/internal/logger"
	"github.com/oshokin/nitai/internal/utils"
	"github.com/oshokin/nitai/internal/version"
)

// Config holds all configuration settings.
type Config struct {
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// UserAgent is sent with every request that does not set its own.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	// Headers are added to every request and WebSocket handshake that does not set them.
	Headers map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
	// Timeout bounds a whole request, including reading the body (e.g., "30s"). Empty disables it.
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
	// ConnectTimeout bounds establishing a connection.
	ConnectTimeout string `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	// ReadTimeout bounds waiting for response headers.
	ReadTimeout string `mapstructure:"read_timeout" yaml:"read_timeout"`
	// AllowRedirects indicates whether redirects are followed.
	AllowRedirects bool `mapstructure:"allow_redirects" yaml:"allow_redirects"`
	// MaxRedirects is the maximum number of redirects followed for one request.
	MaxRedirects int `mapstructure:"max_redirects" yaml:"max_redirects"`
	// History indicates whether the redirect chain is recorded on responses.
	History bool `mapstructure:"history" yaml:"history"`
	// CookieStore indicates whether cookies are kept between requests.
	CookieStore bool `mapstructure:"cookie_store" yaml:"cookie_store"`
	// Verify indicates whether server certificates are verified.
	Verify bool `mapstructure:"verify" yaml:"verify"`
	// CABundle is a path to a PEM file with additional trusted certificates.
	CABundle string `mapstructure:"ca_bundle" yaml:"ca_bundle"`
	// TLSInfo indicates whether the server certificate is recorded on responses.
	TLSInfo bool `mapstructure:"tls_info" yaml:"tls_info"`
	// Proxy is the URL of the proxy used for every request. Empty uses the environment.
	Proxy string `mapstructure:"proxy" yaml:"proxy"`
	// Gzip enables transparent gzip decompression.
	Gzip bool `mapstructure:"gzip" yaml:"gzip"`
	// Deflate enables transparent deflate decompression.
	Deflate bool `mapstructure:"deflate" yaml:"deflate"`
	// Zstd enables transparent zstd decompression.
	Zstd bool `mapstructure:"zstd" yaml:"zstd"`
	// MaxLogLength is the maximum size of a logged request or response dump (e.g., "64KB").
	MaxLogLength string `mapstructure:"max_log_length" yaml:"max_log_length"`
	// MaxBodySize limits how much of a body is buffered (e.g., "100MB"). Empty or "0" disables the limit.
	MaxBodySize string `mapstructure:"max_body_size" yaml:"max_body_size"`
	// DNSCacheSize is the number of host names kept by the resolver.
	DNSCacheSize int `mapstructure:"dns_cache_size" yaml:"dns_cache_size"`
	// DNSCacheTTL is how long a resolved host is cached.
	DNSCacheTTL string `mapstructure:"dns_cache_ttl" yaml:"dns_cache_ttl"`
	// WebSocket holds the WebSocket settings.
	WebSocket WebSocketConfig `mapstructure:"websocket" yaml:"websocket"`
	// MaxConcurrentRequests is the maximum number of URLs fetched simultaneously by the CLI.
	MaxConcurrentRequests int64 `mapstructure:"max_concurrent_requests" yaml:"max_concurrent_requests"`
	// DownloadSpeedLimit sets the maximum speed of streamed downloads (e.g., "1MB", "500KB").
	DownloadSpeedLimit string `mapstructure:"download_speed_limit" yaml:"download_speed_limit"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level `yaml:"-"`
	// ParsedTimeout is the parsed request timeout.
	ParsedTimeout time.Duration `yaml:"-"`
	// ParsedConnectTimeout is the parsed connect timeout.
	ParsedConnectTimeout time.Duration `yaml:"-"`
	// ParsedReadTimeout is the parsed response header timeout.
	ParsedReadTimeout time.Duration `yaml:"-"`
	// ParsedProxy is the parsed proxy URL, nil when unset.
	ParsedProxy *url.URL `yaml:"-"`
	// ParsedMaxLogLength is the parsed maximum log dump size in bytes.
	ParsedMaxLogLength uint64 `yaml:"-"`
	// ParsedMaxBodySize is the parsed body limit in bytes, 0 when unlimited.
	ParsedMaxBodySize int64 `yaml:"-"`
	// ParsedDNSCacheTTL is the parsed resolver TTL.
	ParsedDNSCacheTTL time.Duration `yaml:"-"`
	// ParsedDownloadSpeedLimit is the parsed download speed limit in bytes.
	ParsedDownloadSpeedLimit int64 `yaml:"-"`
}

// WebSocketConfig holds the settings used when dialing WebSocket servers.
type WebSocketConfig struct {
	// Protocols are the subprotocols offered during the handshake.
	Protocols []string `mapstructure:"protocols" yaml:"protocols"`
	// ReadBufferSize is the size of the read buffer in bytes.
	ReadBufferSize int `mapstructure:"read_buffer_size" yaml:"read_buffer_size"`
	// WriteBufferSize is the size of the write buffer in bytes.
	WriteBufferSize int `mapstructure:"write_buffer_size" yaml:"write_buffer_size"`
	// MaxMessageSize limits the size of an inbound message (e.g., "16MB"). Empty or "0" disables the limit.
	MaxMessageSize string `mapstructure:"max_message_size" yaml:"max_message_size"`
	// HandshakeTimeout bounds the opening handshake.
	HandshakeTimeout string `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	// ParsedMaxMessageSize is the parsed inbound message limit in bytes.
	ParsedMaxMessageSize int64 `yaml:"-"`
	// ParsedHandshakeTimeout is the parsed handshake timeout.
	ParsedHandshakeTimeout time.Duration `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".nitai.yaml"

	// DefaultMaxLogLength is the default maximum size (in bytes) of a logged dump.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	// DefaultMaxRedirects is the default redirect limit.
	DefaultMaxRedirects = 10

	// DefaultMaxConcurrentRequests is the default number of parallel CLI fetches.
	DefaultMaxConcurrentRequests = 4

	// maxRedirectsLimit is the highest accepted redirect limit.
	maxRedirectsLimit = 100
)

// Static error definitions for better error handling.
var (
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidTimeout indicates that a timeout is negative.
	ErrInvalidTimeout = errors.New("timeout must not be negative")
	// ErrInvalidMaxRedirects indicates that the redirect limit is out of range.
	ErrInvalidMaxRedirects = errors.New("invalid max_redirects")
	// ErrInvalidProxy indicates that the proxy URL is malformed.
	ErrInvalidProxy = errors.New("invalid proxy URL")
	// ErrCABundleNotFound indicates that the configured CA bundle does not exist.
	ErrCABundleNotFound = errors.New("CA bundle not found")
	// ErrInvalidBufferSize indicates that a WebSocket buffer size is negative.
	ErrInvalidBufferSize = errors.New("websocket buffer size must not be negative")
	// ErrInvalidHeaderName indicates a default header with an empty or malformed name.
	ErrInvalidHeaderName = errors.New("invalid header name")
	// ErrInvalidConcurrentRequests indicates that the concurrent requests count is invalid.
	ErrInvalidConcurrentRequests = errors.New("max concurrent requests must be a positive integer")
)

// Default returns the settings used when no configuration file exists.
func Default() *Config {
	return &Config{
		LogLevel:              "info",
		UserAgent:             version.UserAgent(),
		Timeout:               "60s",
		ConnectTimeout:        "10s",
		AllowRedirects:        true,
		MaxRedirects:          DefaultMaxRedirects,
		History:               true,
		CookieStore:           true,
		Verify:                true,
		Gzip:                  true,
		Deflate:               true,
		Zstd:                  true,
		MaxLogLength:          "1MB",
		MaxBodySize:           "0",
		DNSCacheSize:          1024,
		DNSCacheTTL:           "5m",
		MaxConcurrentRequests: DefaultMaxConcurrentRequests,
		WebSocket: WebSocketConfig{
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			MaxMessageSize:   "64MB",
			HandshakeTimeout: "10s",
		},
	}
}

// LoadConfig loads configuration settings from a YAML file on top of the defaults.
// A missing default file is not an error; a missing explicit file is.
func LoadConfig(configFilename string) (*Config, error) {
	isDefaultFile := configFilename == ""
	if isDefaultFile {
		configFilename = DefaultConfigFilename
	}

	cfg := Default()

	if isDefaultFile {
		if _, err := os.Stat(configFilename); os.IsNotExist(err) {
			return cfg, nil
		}
	}

	viper.SetConfigFile(configFilename)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config from file: %w", err)
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:funlen,gocognit,cyclop // Validation functions naturally have high complexity and length due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var err error

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = version.UserAgent()
	}

	for name := range cfg.Headers {
		if !isValidHeaderName(name) {
			return fmt.Errorf("%w: '%s'", ErrInvalidHeaderName, name)
		}
	}

	if cfg.ParsedTimeout, err = parseTimeout("timeout", cfg.Timeout); err != nil {
		return err
	}

	if cfg.ParsedConnectTimeout, err = parseTimeout("connect timeout", cfg.ConnectTimeout); err != nil {
		return err
	}

	if cfg.ParsedReadTimeout, err = parseTimeout("read timeout", cfg.ReadTimeout); err != nil {
		return err
	}

	if cfg.ParsedDNSCacheTTL, err = parseTimeout("dns cache ttl", cfg.DNSCacheTTL); err != nil {
		return err
	}

	if cfg.MaxRedirects < 0 || cfg.MaxRedirects > maxRedirectsLimit {
		return fmt.Errorf("%w: must be between 0 and %d", ErrInvalidMaxRedirects, maxRedirectsLimit)
	}

	cfg.ParsedProxy = nil

	if proxy := strings.TrimSpace(cfg.Proxy); proxy != "" {
		cfg.ParsedProxy, err = url.Parse(proxy)
		if err != nil || cfg.ParsedProxy.Scheme == "" || cfg.ParsedProxy.Host == "" {
			return fmt.Errorf("%w: '%s'", ErrInvalidProxy, cfg.Proxy)
		}
	}

	if cfg.CABundle != "" {
		exists, statErr := utils.IsFileExist(cfg.CABundle)
		if statErr != nil {
			return fmt.Errorf("failed to check CA bundle: %w", statErr)
		}

		if !exists {
			return fmt.Errorf("%w: %s", ErrCABundleNotFound, cfg.CABundle)
		}
	}

	maxLogLength, err := parseBytes("max log length", cfg.MaxLogLength)
	if err != nil {
		return err
	}

	cfg.ParsedMaxLogLength = maxLogLength
	if cfg.ParsedMaxLogLength == 0 {
		cfg.ParsedMaxLogLength = DefaultMaxLogLength
	}

	maxBodySize, err := parseBytes("max body size", cfg.MaxBodySize)
	if err != nil {
		return err
	}

	cfg.ParsedMaxBodySize = utils.SafeUint64ToInt64(maxBodySize)

	downloadSpeedLimit, err := parseBytes("download speed limit", cfg.DownloadSpeedLimit)
	if err != nil {
		return err
	}

	// io.CopyN accepts only int64 so we transform it safely in order to use it later.
	cfg.ParsedDownloadSpeedLimit = utils.SafeUint64ToInt64(downloadSpeedLimit)

	if err = validateWebSocketConfig(&cfg.WebSocket); err != nil {
		return err
	}

	if cfg.MaxConcurrentRequests <= 0 {
		return ErrInvalidConcurrentRequests
	}

	return nil
}

func validateWebSocketConfig(cfg *WebSocketConfig) error {
	if cfg.ReadBufferSize < 0 || cfg.WriteBufferSize < 0 {
		return ErrInvalidBufferSize
	}

	maxMessageSize, err := parseBytes("websocket max message size", cfg.MaxMessageSize)
	if err != nil {
		return err
	}

	cfg.ParsedMaxMessageSize = utils.SafeUint64ToInt64(maxMessageSize)

	cfg.ParsedHandshakeTimeout, err = parseTimeout("websocket handshake timeout", cfg.HandshakeTimeout)

	return err
}

// isValidHeaderName reports whether name is a non-empty HTTP token.
func isValidHeaderName(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		if r <= ' ' || r >= 0x7f || strings.ContainsRune(`"(),/:;<=>?@[\]{}`, r) {
			return false
		}
	}

	return true
}

// parseTimeout parses a duration, treating an empty value as "no timeout".
func parseTimeout(name, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTimeout, name)
	}

	return parsed, nil
}

// parseBytes parses a human-readable size, treating an empty value or "0" as zero.
func parseBytes(name, value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}

	parsed, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return parsed, nil
}

// SaveConfig writes cfg to configFile, refusing to overwrite an existing file unless force is set.
func SaveConfig(cfg *Config, configFile string, force bool) error {
	if configFile == "" {
		configFile = DefaultConfigFilename
	}

	if !force {
		exists, err := utils.IsFileExist(configFile)
		if err != nil {
			return fmt.Errorf("failed to check config file: %w", err)
		}

		if exists {
			return fmt.Errorf("%w: %s", os.ErrExist, configFile)
		}
	}

	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(configFile, content, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
