package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arborkit/arbor/internal/compiler"
)

// NewValidateCommand creates the validate command: compile a CUE machine
// definition and report structural errors.
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <machine.cue>",
		Short: "Validate a machine definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			def, err := compiler.CompileFile(args[0])
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: "invalid machine definition", Err: err}
			}

			out := struct {
				Name        string   `json:"name"`
				Initial     string   `json:"initial"`
				States      []string `json:"states"`
				Transitions int      `json:"transitions"`
			}{def.Name, def.Initial, def.States, len(def.Transitions)}

			return printResult(cmd.OutOrStdout(), opts.Format, out, func(w io.Writer) {
				fmt.Fprintf(w, "machine %q ok: initial=%s states=%d\n", def.Name, def.Initial, len(def.States))
			})
		},
	}
}
