package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra command requires a global definition.
var requestCmd = &cobra.Command{
	Use:   "request [flags] {urls}",
	Short: "Send a request with any method and body to every URL.",
	Long: `Send a request with any method to every URL.

Examples:
nitai request -X POST -d '{"name":"nitai"}' -H 'Content-Type: application/json' https://httpbin.org/post
nitai request -X PUT --form name=nitai --form kind=client https://httpbin.org/put`,
	Args: cobra.ArbitraryArgs,
	Run:  runFetch(http.MethodGet),
}

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	requestCmdFlags := requestCmd.Flags()

	addFetchFlags(requestCmdFlags)

	requestCmdFlags.StringP("method", "X", http.MethodGet, "HTTP method.")
	requestCmdFlags.StringP("data", "d", "", "raw request body.")
	requestCmdFlags.StringArray("form", nil, "form field in the 'name=value' form. Can be repeated.")

	rootCmd.AddCommand(requestCmd)
}
