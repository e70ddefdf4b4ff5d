package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Show recent play sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			sessions, err := st.Sessions().Recent(limit)
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				length := "running"
				if s.EndedAt != nil {
					length = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
				}
				rows = append(rows, []string{
					s.StartedAt.Local().Format("2006-01-02 15:04"),
					s.Game,
					s.Detail,
					length,
					strconv.Itoa(s.NotesSent),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Game", "Detail", "Length", "Messages"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of sessions to show")
	return cmd
}
