package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func infoCmd() *cobra.Command {
	var onlyVersion bool
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print name and version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if onlyVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&onlyVersion, "version", false, "print only the version")
	return cmd
}
