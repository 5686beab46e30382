package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/b30/internal/app"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "b30 version %s\n", app.BuildVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", app.BuildCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", app.BuildDate)
		},
	}
}
