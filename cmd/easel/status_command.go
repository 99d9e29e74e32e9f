package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"easel/internal/apiclient"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return fmt.Errorf("daemon unreachable at %s: %w", ctx.apiAddr(), err)
				}
				if jsonOutput {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Running:     %v (pid %d)\n", status.Running, status.PID)
				fmt.Fprintf(out, "Database:    %s\n", status.DBPath)
				fmt.Fprintf(out, "Lock file:   %s\n", status.LockPath)
				if status.ConfigFile != "" {
					fmt.Fprintf(out, "Config file: %s\n", status.ConfigFile)
				} else {
					fmt.Fprintln(out, "Config file: (none, defaults in effect)")
				}
				fmt.Fprintf(out, "Providers:   %d\n", status.Providers)
				fmt.Fprintf(out, "Images:      %d\n", status.Images)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")
	return cmd
}
