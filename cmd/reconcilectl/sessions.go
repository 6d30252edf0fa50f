package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/reconcile/internal/core"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and operate on reconciliation sessions",
	}
	cmd.AddCommand(
		newSessionsListCmd(a),
		newSessionsShowCmd(a),
		newSessionsAbandonCmd(a),
		newSessionsPurgeCmd(a),
	)
	return cmd
}

func newSessionsListCmd(a *app) *cobra.Command {
	var (
		schema string
		state  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			filter := core.SessionFilter{SchemaKey: schema, Limit: limit}
			if state != "" {
				parsed, ok := core.ParseSessionState(state)
				if !ok {
					return fmt.Errorf("unknown state %q (created, detecting, matching, awaiting-resolution, finalized, abandoned)", state)
				}
				filter.State = parsed
			}

			if err := a.connect(ctx); err != nil {
				return err
			}

			sessions, err := a.service.ListSessions(ctx, filter)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions match")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCHEMA\tSOURCE\tSTATE\tMATCHED\tREVIEW\tSKIPPED\tCREATED")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					s.ID,
					s.SchemaKey,
					s.SourceName,
					s.State,
					s.Matched,
					s.NeedsReview,
					s.Skipped,
					s.CreatedAt.Format("2006-01-02 15:04"),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "filter by schema key")
	cmd.Flags().StringVar(&state, "state", "", "filter by session state")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum sessions to list")
	return cmd
}

func newSessionsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session's resolution state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}

			session, err := a.service.GetSession(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:  %s\n", session.ID)
			fmt.Fprintf(out, "Schema:   %s\n", session.SchemaKey)
			fmt.Fprintf(out, "Source:   %s\n", session.SourceName)
			fmt.Fprintf(out, "State:    %s\n", session.State)
			if session.Table != nil {
				fmt.Fprintf(out, "Table:    header row %d, data rows %d-%d, %d columns\n",
					session.Table.HeaderRow,
					session.Table.DataStart,
					session.Table.DataEnd-1,
					session.Table.ColumnCount,
				)
			}
			if session.RulesDegraded {
				fmt.Fprintln(out, "Warning:  matched without historical rules (rule store was unavailable)")
			}
			fmt.Fprintf(out, "Created:  %s\n", session.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "Updated:  %s\n", session.UpdatedAt.Format(time.RFC3339))

			if len(session.Mappings) > 0 {
				fmt.Fprintln(out)
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "COL\tHEADER\tSTATUS\tTARGET\tCONFIDENCE\tSOURCE")
				for _, m := range session.Mappings {
					confidence := ""
					if m.Confidence > 0 {
						confidence = fmt.Sprintf("%.2f", m.Confidence)
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
						m.Candidate.ColumnIndex,
						m.Candidate.RawHeader,
						m.Status,
						m.TargetField,
						confidence,
						m.Source,
					)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if open := session.OpenTargets(); len(open) > 0 {
				fmt.Fprintf(out, "\nOpen targets:     %s\n", strings.Join(open, ", "))
			}
			if missing := session.MissingRequired(); len(missing) > 0 {
				fmt.Fprintf(out, "Missing required: %s\n", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

func newSessionsAbandonCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <session-id>",
		Short: "Abandon a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := core.ContextWithActor(cmd.Context(), "reconcilectl")
			if err := a.connect(ctx); err != nil {
				return err
			}

			session, err := a.service.AbandonSession(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "session %s abandoned\n", session.ID)
			return nil
		},
	}
}

func newSessionsPurgeCmd(a *app) *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete abandoned sessions older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}

			purged, err := a.service.PurgeAbandoned(ctx, retention)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "purged %d abandoned sessions older than %s\n", purged, retention)
			return nil
		},
	}

	cmd.Flags().DurationVar(&retention, "retention", 720*time.Hour, "age threshold for purging abandoned sessions")
	return cmd
}
