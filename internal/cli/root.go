// Package cli implements scrumctl, a command line client for the Scrum
// Board gateway.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/karulmca/ScurmBoard/internal/client"
	"github.com/karulmca/ScurmBoard/internal/logging"
)

const envPrefix = "SCRUMCTL"

// app carries what every subcommand needs: resolved settings and the output
// stream.
type app struct {
	v   *viper.Viper
	out io.Writer
}

func (a *app) client() (*client.Client, error) {
	var opts []client.Option
	if token := a.v.GetString("token"); token != "" {
		opts = append(opts, client.WithBearerToken(token))
	}
	return client.New(a.v.GetString("gateway"), opts...)
}

func (a *app) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.v.GetDuration("timeout"))
}

func (a *app) print(raw json.RawMessage) error {
	return writeOutput(a.out, a.v.GetString("output"), raw)
}

// NewRootCmd builds the scrumctl command tree writing results to out.
// Settings come from flags, then SCRUMCTL_* environment variables.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}

	rootCmd := &cobra.Command{
		Use:           "scrumctl",
		Short:         "Command line client for the Scrum Board gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if lvl, ok := logging.ParseLevel(a.v.GetString("log-level")); ok {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
			}
			switch a.v.GetString("output") {
			case outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want json or yaml)", a.v.GetString("output"))
			}
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.String("gateway", client.DefaultBaseURL, "Gateway API base URL (or set SCRUMCTL_GATEWAY)")
	flags.StringP("output", "o", outputJSON, "Output format: json or yaml (or set SCRUMCTL_OUTPUT)")
	flags.String("token", "", "Bearer token sent with every request (or set SCRUMCTL_TOKEN)")
	flags.Duration("timeout", 30*time.Second, "Per-command timeout")
	flags.String("log-level", "warn", "Log level for diagnostics on stderr")

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	rootCmd.AddCommand(
		workItemsCmd(a),
		tasksCmd(a),
		reportsCmd(a),
		importCmd(a),
		configCmd(a),
		projectsCmd(a),
		teamsCmd(a),
	)
	return rootCmd
}

// Execute runs scrumctl against os.Args.
func Execute() {
	if err := NewRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// parseJSONArg decodes a JSON command line argument.
func parseJSONArg(name, raw string) (json.RawMessage, error) {
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("%s must be valid JSON", name)
	}
	return json.RawMessage(raw), nil
}
