package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arborkit/arbor/internal/harness"
	"github.com/arborkit/arbor/internal/journal"
	"github.com/arborkit/arbor/internal/trace"
)

// NewRunCommand creates the run command: execute a scenario file and
// report pass/fail plus the recorded trace.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	var journalPath string

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a conformance scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			scenario, err := harness.LoadScenario(args[0])
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "load scenario", Err: err}
			}

			result, err := harness.Run(scenario)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "run scenario", Err: err}
			}

			// Each journaled run gets a fresh time-sortable token, so
			// repeated runs of the same scenario stay distinguishable.
			var runToken string
			if journalPath != "" {
				runToken = trace.UUIDv7Generator{}.Generate()
				if err := journalRun(cmd, journalPath, runToken, result); err != nil {
					return &ExitError{Code: ExitCommandError, Message: "journal run", Err: err}
				}
			}

			out := struct {
				Name     string   `json:"name"`
				Pass     bool     `json:"pass"`
				Final    string   `json:"final_state,omitempty"`
				Failures []string `json:"failures,omitempty"`
				Events   int      `json:"events"`
				Token    string   `json:"token,omitempty"`
			}{scenario.Name, result.Pass, result.Final, result.Failures, len(result.Snapshot.Events), runToken}

			printErr := printResult(cmd.OutOrStdout(), opts.Format, out, func(w io.Writer) {
				status := "PASS"
				if !result.Pass {
					status = "FAIL"
				}
				fmt.Fprintf(w, "%s %s (%d events)\n", status, scenario.Name, len(result.Snapshot.Events))
				for _, f := range result.Failures {
					fmt.Fprintf(w, "  %s\n", f)
				}
				if runToken != "" {
					fmt.Fprintf(w, "journaled as %s\n", runToken)
				}
				if opts.Verbose {
					for _, ev := range result.Snapshot.Events {
						fmt.Fprintf(w, "  [%d] %s node=%d %s%s->%s\n", ev.Seq, ev.Kind, ev.Node, ev.ValueType, ev.From, ev.To)
					}
				}
			})
			if printErr != nil {
				return printErr
			}

			if !result.Pass {
				return &ExitError{Code: ExitFailure, Message: "scenario failed"}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "append the run's trace to a journal database")
	return cmd
}

func journalRun(cmd *cobra.Command, path, token string, result *harness.Result) error {
	jnl, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer jnl.Close()

	ctx := cmd.Context()
	for _, ev := range result.Snapshot.Events {
		if err := jnl.WriteEvent(ctx, token, ev); err != nil {
			return err
		}
	}
	return nil
}
