package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/reconcile/internal/core"
)

func newSchemasCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Inspect registered canonical schemas",
	}
	cmd.AddCommand(newSchemasListCmd())
	return cmd
}

func newSchemasListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := core.All()
			if len(defs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no schemas registered")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tGROUP\tLABEL\tFIELDS\tREQUIRED\tALIASES")
			for _, def := range defs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
					def.Info.Key,
					def.Info.Group,
					def.Info.Label,
					len(def.Fields),
					len(def.RequiredFields()),
					len(def.Aliases),
				)
			}
			return w.Flush()
		},
	}
}
