package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"waapiview/internal/engine"
)

func newGoToCmd(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <object-id...>",
		Short: "Reveal objects in the authoring tool's project explorer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := options.newEngine()
			defer closeEngine(eng)

			pending, _ := eng.GoTo(args)
			event, err := expect(eng.Await(cmd.Context(), pending))
			if err != nil {
				return err
			}
			done := event.(engine.GoToDone)
			return writeResult(cmd, options.format, done.IDs, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "revealed %d objects\n", len(done.IDs))
				return err
			})
		},
	}
}
