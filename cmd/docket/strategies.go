package main

import (
	"github.com/spf13/cobra"
)

func (a *app) strategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the recognized document layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newPrinter(cmd.OutOrStdout(), a.v.GetBool("json")).strategies()
		},
	}
}
