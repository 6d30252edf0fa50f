package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage persisted mapping rules",
	}
	cmd.AddCommand(
		newRulesListCmd(a),
		newRulesCorrectCmd(a),
		newRulesDeleteCmd(a),
	)
	return cmd
}

func newRulesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <schema-key>",
		Short: "List a schema's mapping rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}

			rules, err := a.service.ListRules(ctx, args[0])
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no rules for schema %q\n", args[0])
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tHEADER\tTARGET\tCONFIRMS\tLAST CONFIRMED")
			for _, rule := range rules {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					rule.ID,
					rule.NormalizedHeader,
					rule.TargetField,
					rule.ConfirmedCount,
					rule.LastConfirmedAt.Format("2006-01-02 15:04"),
				)
			}
			return w.Flush()
		},
	}
}

func newRulesCorrectCmd(a *app) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "correct <rule-id>",
		Short: "Rebind a rule to a different target field",
		Long: `Rebind an existing mapping rule to a different target field and reset
its confirmation count. Use this when a header was confirmed against the
wrong field in past sessions and keeps auto-matching incorrectly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}

			rule, err := a.service.CorrectRule(ctx, args[0], target)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "rule %s: %q now maps to %s\n",
				rule.ID, rule.NormalizedHeader, rule.TargetField)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "canonical field the rule should map to")
	cmd.MarkFlagRequired("target")
	return cmd
}

func newRulesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a mapping rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}

			if err := a.service.DeleteRule(ctx, args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "rule %s deleted\n", args[0])
			return nil
		},
	}
}
