package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/chatpro/internal/adapters/storage"
	"github.com/PabloGalante/chatpro/internal/domain"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage stored sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, store domain.SessionStore) error {
				sessions, err := store.ListSessions(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tTITLE")
				for _, s := range sessions {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Title)
				}
				return tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print the transcript of one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, store domain.SessionStore) error {
				session, err := store.GetSession(ctx, domain.SessionID(args[0]))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "# %s\n\n", session.Title)
				for _, t := range session.Turns {
					fmt.Fprintf(out, "[%s] %s\n\n", t.Role, t.Content)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(ctx context.Context, store domain.SessionStore) error {
				if err := store.DeleteSession(ctx, domain.SessionID(args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

func (a *app) withStore(ctx context.Context, fn func(context.Context, domain.SessionStore) error) error {
	if err := a.cfg.ValidateStorage(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := storage.Open(ctx, a.cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s store: %w", a.cfg.Storage.Backend, err)
	}
	defer store.Close()

	return fn(ctx, store)
}
