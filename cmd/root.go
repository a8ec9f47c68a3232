package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/nitai/internal/app"
	"github.com/oshokin/nitai/internal/config"
	"github.com/oshokin/nitai/internal/logger"
	"github.com/oshokin/nitai/internal/utils"
	"github.com/oshokin/nitai/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "nitai [flags] {urls}",
		Short: "Fetch URLs over HTTP and talk to WebSocket servers.",
		Long: `nitai is a CLI HTTP and WebSocket client.
It supports:
- Fetching many URLs concurrently and printing bodies as text, JSON or a JSON query result
- Printing response metadata with the redirect history as YAML
- Streaming bodies into files with a progress bar and a speed limit
- Scripted WebSocket conversations

Without a subcommand it sends GET requests to every URL.`,
		Version:          version.Short(),
		Args:             cobra.ArbitraryArgs,
		PersistentPreRun: initConfig,
		Run:              runFetch(""),
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	getCmd = &cobra.Command{
		Use:   "get [flags] {urls}",
		Short: "Send GET requests to every URL.",
		Args:  cobra.ArbitraryArgs,
		Run:   runFetch(""),
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	go func() {
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	<-ctx.Done()
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmdPersistentFlags := rootCmd.PersistentFlags()

	rootCmdPersistentFlags.StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	rootCmdPersistentFlags.String(
		"log-level",
		"",
		"logging level: debug, info, warn, error.")

	rootCmdPersistentFlags.String(
		"user-agent",
		"",
		"User-Agent sent with every request.")

	rootCmdPersistentFlags.BoolP(
		"insecure",
		"k",
		false,
		"skip verification of server certificates.")

	rootCmdPersistentFlags.String(
		"proxy",
		"",
		"proxy URL used for every request, for example: http://127.0.0.1:3128.")

	rootCmdPersistentFlags.IntP(
		"max-concurrent",
		"n",
		0,
		"maximum number of URLs fetched simultaneously.")

	rootCmdPersistentFlags.StringP(
		"speed-limit",
		"s",
		"",
		"set download speed limit for --output, for example: 500KB, 1MB, 1.5MB.")

	rootCmdPersistentFlags.Bool(
		"tls-info",
		false,
		"record the server certificate (shown by --meta).")

	addFetchFlags(rootCmd.Flags())
	addFetchFlags(getCmd.Flags())

	rootCmd.AddCommand(getCmd)
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	// config init creates the file, so a missing one starts from the defaults.
	if isMissingConfigFileAllowed(cmd) {
		appConfig = config.Default()
	} else if appConfig, err = config.LoadConfig(configFilenameFromFlag); err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if err = bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
		logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
	}

	logger.SetLevel(appConfig.ParsedLogLevel)
}

func isMissingConfigFileAllowed(cmd *cobra.Command) bool {
	if cmd != configInitCmd || configFilenameFromFlag == "" {
		return false
	}

	exists, err := utils.IsFileExist(configFilenameFromFlag)

	return err == nil && !exists
}

// bindFlagsToConfig overrides configuration values with the flags that were set explicitly,
// then validates the result.
func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("log-level"); flag != nil && flag.Changed {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if flag := flags.Lookup("user-agent"); flag != nil && flag.Changed {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}

	if flag := flags.Lookup("insecure"); flag != nil && flag.Changed {
		insecure, _ := flags.GetBool("insecure")
		cfg.Verify = !insecure
	}

	if flag := flags.Lookup("proxy"); flag != nil && flag.Changed {
		cfg.Proxy, _ = flags.GetString("proxy")
	}

	if flag := flags.Lookup("max-concurrent"); flag != nil && flag.Changed {
		maxConcurrent, _ := flags.GetInt("max-concurrent")
		cfg.MaxConcurrentRequests = int64(maxConcurrent)
	}

	if flag := flags.Lookup("speed-limit"); flag != nil && flag.Changed {
		cfg.DownloadSpeedLimit, _ = flags.GetString("speed-limit")
	}

	if flag := flags.Lookup("tls-info"); flag != nil && flag.Changed {
		cfg.TLSInfo, _ = flags.GetBool("tls-info")
	}

	return config.ValidateConfig(cfg)
}

// runFetch returns a command handler sending method (GET when empty) to every URL.
func runFetch(method string) func(cmd *cobra.Command, urls []string) {
	return func(cmd *cobra.Command, urls []string) {
		params, err := fetchParamsFromFlags(cmd.Flags(), method, urls)
		if err != nil {
			logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
		}

		app.ExecuteFetchCommand(cmd.Context(), appConfig, params)
	}
}
