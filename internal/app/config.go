package app

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/nitai/internal/config"
	"github.com/oshokin/nitai/internal/logger"
)

// ExecuteConfigInitCommand writes the given configuration to configFile.
func ExecuteConfigInitCommand(ctx context.Context, cfg *config.Config, configFile string, force bool) {
	if configFile == "" {
		configFile = config.DefaultConfigFilename
	}

	if err := config.SaveConfig(cfg, configFile, force); err != nil {
		logger.Fatalf(ctx, "Failed to save configuration: %v", err)
	}

	logger.Infof(ctx, "Configuration written to '%s'", configFile)
}

// ExecuteConfigShowCommand prints the effective configuration as YAML.
func ExecuteConfigShowCommand(ctx context.Context, cfg *config.Config, w io.Writer) {
	if err := writeConfig(cfg, w); err != nil {
		logger.Fatalf(ctx, "Failed to print configuration: %v", err)
	}
}

func writeConfig(cfg *config.Config, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	return encoder.Close()
}
