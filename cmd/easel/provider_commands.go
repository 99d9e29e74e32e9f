package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"easel/internal/apiclient"
	"easel/internal/provider"
)

func newProviderCommand(ctx *commandContext) *cobra.Command {
	providerCmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage image source providers",
	}

	providerCmd.AddCommand(newProviderListCommand(ctx))
	providerCmd.AddCommand(newProviderShowCommand(ctx))
	providerCmd.AddCommand(newProviderSetCommand(ctx))
	providerCmd.AddCommand(newProviderTestCommand(ctx))
	providerCmd.AddCommand(newProviderRefreshCommand(ctx))

	return providerCmd
}

func newProviderListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				descriptors, err := client.ListProviders(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, descriptors)
				}
				out := cmd.OutOrStdout()
				headers := []string{"Name", "Display Name", "Description"}
				rows := make([][]string, 0, len(descriptors))
				for _, desc := range descriptors {
					rows = append(rows, []string{desc.Name, desc.DisplayName, desc.Description})
				}
				if isTerminal(out) {
					fmt.Fprintln(out, renderTable(headers, rows, nil))
					return nil
				}
				for _, row := range rows {
					fmt.Fprintln(out, strings.Join(row, "\t"))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newProviderShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a provider's stored configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				resp, err := client.GetProviderConfig(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Config) == 0 {
					fmt.Fprintf(out, "Provider %s has no stored configuration\n", resp.Name)
					return nil
				}
				keys := make([]string, 0, len(resp.Config))
				for key := range resp.Config {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				rows := make([][]string, 0, len(keys))
				for _, key := range keys {
					rows = append(rows, []string{key, resp.Config[key]})
				}
				if isTerminal(out) {
					fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, nil))
					return nil
				}
				for _, row := range rows {
					fmt.Fprintln(out, strings.Join(row, "\t"))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newProviderSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> key=value [key=value ...]",
		Short: "Store provider configuration values",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				resp, err := client.SetProviderConfig(cmd.Context(), args[0], values)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %d value(s) for provider %s\n", len(values), resp.Name)
				return nil
			})
		},
	}
}

func newProviderTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test <name>",
		Short: "Test connectivity for a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				result, err := client.TestProvider(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if result.OK {
					fmt.Fprintf(out, "OK: %s\n", result.Message)
					return nil
				}
				fmt.Fprintf(out, "FAILED: %s\n", result.Message)
				return nil
			})
		},
		Args: cobra.ExactArgs(1),
	}
}

func newProviderRefreshCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "refresh <name>",
		Short: "Fetch new images from a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				outcome, err := client.RefreshProvider(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, outcome)
				}
				printOutcome(cmd, outcome)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a summary")
	return cmd
}

func printOutcome(cmd *cobra.Command, outcome *provider.Outcome) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Refresh %s: %s\n", outcome.Status, outcome.Message)
	fmt.Fprintf(out, "  downloaded: %d  skipped: %d  failed: %d  total: %d\n",
		outcome.Downloaded, outcome.Skipped, outcome.Failed, outcome.Total)
	for _, detail := range outcome.Errors {
		fmt.Fprintf(out, "  error: %s\n", detail)
	}
}
