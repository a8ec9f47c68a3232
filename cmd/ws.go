package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/nitai/internal/app"
	"github.com/oshokin/nitai/internal/client"
	"github.com/oshokin/nitai/internal/logger"
	"github.com/oshokin/nitai/internal/service/fetch"
)

// defaultReceiveTimeout bounds the wait for each received frame.
const defaultReceiveTimeout = 10 * time.Second

//nolint:gochecknoglobals // Cobra command requires a global definition.
var wsCmd = &cobra.Command{
	Use:   "ws [flags] {url}",
	Short: "Connect to a WebSocket server, send messages and print the replies.",
	Long: `Connect to a WebSocket server, send every message in order, print the received
frames and close the connection with a normal closure.

Example:
nitai ws -m '{"op":"subscribe"}' -m '{"op":"ping"}' --recv 3 wss://echo.websocket.org`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session, err := sessionFromFlags(cmd.Flags(), args[0])
		if err != nil {
			logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
		}

		app.ExecuteWebSocketCommand(cmd.Context(), appConfig, session)
	},
}

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	wsCmdFlags := wsCmd.Flags()

	wsCmdFlags.StringArrayP("message", "m", nil, "text message to send. Can be repeated.")
	wsCmdFlags.IntP("recv", "r", -1, "number of frames to receive (default is the number of messages).")
	wsCmdFlags.DurationP("timeout", "t", defaultReceiveTimeout, "timeout of each receive, 0 waits indefinitely.")
	wsCmdFlags.StringSlice("protocol", nil, "subprotocols offered during the handshake.")
	wsCmdFlags.StringArrayP("header", "H", nil, "extra handshake header, for example: 'Origin: https://example.com'.")
	wsCmdFlags.StringP("user", "u", "", "basic authentication credentials in the 'user:password' form.")
	wsCmdFlags.String("bearer", "", "bearer token sent in the Authorization header.")

	rootCmd.AddCommand(wsCmd)
}

// sessionFromFlags collects the ws flags into a session.
func sessionFromFlags(flags *pflag.FlagSet, rawURL string) (*fetch.Session, error) {
	session := &fetch.Session{
		URL:     rawURL,
		Options: new(client.WebSocketOptions),
	}

	session.Messages, _ = flags.GetStringArray("message")
	session.Timeout, _ = flags.GetDuration("timeout")

	session.Receive, _ = flags.GetInt("recv")
	if session.Receive < 0 {
		session.Receive = len(session.Messages)
	}

	session.Options.Protocols, _ = flags.GetStringSlice("protocol")
	session.Options.BearerToken, _ = flags.GetString("bearer")

	rawHeaders, _ := flags.GetStringArray("header")

	header, err := parseHeaders(rawHeaders)
	if err != nil {
		return nil, err
	}

	session.Options.Header = header

	if user, _ := flags.GetString("user"); user != "" {
		if session.Options.BasicAuth, err = parseBasicAuth(user); err != nil {
			return nil, err
		}
	}

	return session, nil
}
