package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karulmca/ScurmBoard/internal/configcache"
	"github.com/karulmca/ScurmBoard/internal/scrumconfig"
)

func scopeFlag(cmd *cobra.Command, orgID *int64) {
	cmd.Flags().Int64Var(orgID, "org", 0, "Organization id; omit for the global scope")
}

func scopeOf(cmd *cobra.Command, orgID int64) scrumconfig.Scope {
	if cmd.Flags().Changed("org") {
		return scrumconfig.Org(orgID)
	}
	return scrumconfig.Global()
}

func (a *app) printValues(values scrumconfig.Values, key string) error {
	if key != "" {
		raw, ok := values[key]
		if !ok {
			return fmt.Errorf("unknown config key %q", key)
		}
		return a.print(raw)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return a.print(raw)
}

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change board configuration",
	}

	var orgID int64
	var key string
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Show the effective config; falls back to defaults if the gateway is unreachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			resolver := configcache.New(c)
			return a.printValues(resolver.Load(ctx, scopeOf(cmd, orgID)), key)
		},
	}
	scopeFlag(getCmd, &orgID)
	getCmd.Flags().StringVar(&key, "key", "", "Only print this key")

	defaultsCmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show the server's system defaults",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			values, err := c.GetConfigDefaults(ctx)
			if err != nil {
				return fmt.Errorf("failed to load defaults: %w", err)
			}
			return a.printValues(values, "")
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <json-value>",
		Short: "Override one key and print the resulting value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseJSONArg("value", args[1])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			scope := scopeOf(cmd, orgID)
			resolver := configcache.New(c)
			if err := resolver.Upsert(ctx, args[0], value, scope); err != nil {
				return err
			}
			return a.printValues(resolver.Load(ctx, scope), args[0])
		},
	}
	scopeFlag(setCmd, &orgID)

	resetCmd := &cobra.Command{
		Use:   "reset <key>",
		Short: "Remove an override so the key falls back to the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.context()
			defer cancel()

			scope := scopeOf(cmd, orgID)
			resolver := configcache.New(c)
			if err := resolver.Reset(ctx, args[0], scope); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out, "Reset %s for %s\n", args[0], scope)
			return nil
		},
	}
	scopeFlag(resetCmd, &orgID)

	cmd.AddCommand(getCmd, defaultsCmd, setCmd, resetCmd)
	return cmd
}
