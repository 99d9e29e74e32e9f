package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"easel/internal/api"
	"easel/internal/apiclient"
	"easel/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change slideshow settings",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigSetCommand(ctx))
	configCmd.AddCommand(newConfigSyncCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigPathCommand())

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved slideshow settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				resp, err := client.GetConfig(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				printSettings(cmd, resp)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newConfigSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value [key=value ...]",
		Short: "Update slideshow settings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parsePairs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				resp, err := client.UpdateConfig(cmd.Context(), patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %d setting(s)\n", len(patch))
				printSettings(cmd, resp)
				return nil
			})
		},
	}
}

func newConfigSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Re-read configuration files and merge them into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				resp, err := client.SyncConfig(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.ConfigFile != "" {
					fmt.Fprintf(out, "Synced settings from %s\n", resp.ConfigFile)
				} else {
					fmt.Fprintln(out, "No configuration file found; store and defaults are in effect")
				}
				for _, diag := range resp.Diagnostics {
					fmt.Fprintf(out, "warning: %s\n", diag)
				}
				printSettings(cmd, resp)
				return nil
			})
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the configuration search paths in priority order",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range config.SearchPaths() {
				marker := " "
				if _, err := os.Stat(path); err == nil {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, path)
			}
			return nil
		},
	}
}

// printSettings renders a settings snapshot as a table on a terminal and
// tab-separated lines otherwise.
func printSettings(cmd *cobra.Command, resp *api.SettingsResponse) {
	out := cmd.OutOrStdout()
	headers := []string{"Setting", "Value", "Source"}
	rows := make([][]string, 0, len(resp.Settings))
	for _, setting := range config.Schema() {
		value := resp.Settings[setting.Key]
		source := resp.Provenance[setting.Key]
		rows = append(rows, []string{setting.Key, value, source})
	}
	if isTerminal(out) {
		fmt.Fprintln(out, renderTable(headers, rows, nil))
		return
	}
	for _, row := range rows {
		fmt.Fprintln(out, strings.Join(row, "\t"))
	}
}

// parsePairs converts key=value arguments into a patch map.
func parsePairs(args []string) (map[string]string, error) {
	pairs := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid argument %q: expected key=value", arg)
		}
		pairs[key] = value
	}
	return pairs, nil
}
