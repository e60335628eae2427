package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborkit/arbor/internal/journal"
	"github.com/arborkit/arbor/internal/trace"
)

// NewTraceCommand creates the trace command: list journaled runs or dump
// one run's events.
func NewTraceCommand(opts *RootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "trace <journal.db>",
		Short: "Inspect a trace journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if _, err := os.Stat(args[0]); err != nil {
				return &ExitError{Code: ExitCommandError, Message: "journal not found", Err: err}
			}
			jnl, err := journal.Open(args[0])
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "open journal", Err: err}
			}
			defer jnl.Close()

			ctx := cmd.Context()
			if token == "" {
				tokens, err := jnl.Tokens(ctx)
				if err != nil {
					return &ExitError{Code: ExitCommandError, Message: "list tokens", Err: err}
				}
				return printResult(cmd.OutOrStdout(), opts.Format, tokens, func(w io.Writer) {
					for _, t := range tokens {
						fmt.Fprintln(w, t)
					}
				})
			}

			events, err := jnl.ReadTrace(ctx, token)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "read trace", Err: err}
			}
			snapshot := &trace.Snapshot{Label: token, Token: token, Events: events}
			id, err := snapshot.ID()
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "snapshot id", Err: err}
			}

			out := struct {
				Token  string        `json:"token"`
				ID     string        `json:"id"`
				Events []trace.Event `json:"events"`
			}{token, id, events}

			return printResult(cmd.OutOrStdout(), opts.Format, out, func(w io.Writer) {
				fmt.Fprintf(w, "trace %s (%s)\n", token, id[:12])
				for _, ev := range events {
					fmt.Fprintf(w, "  [%d] %s node=%d %s %s->%s\n", ev.Seq, ev.Kind, ev.Node, ev.ValueType, ev.From, ev.To)
				}
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "dump one run by token (default: list tokens)")
	return cmd
}
