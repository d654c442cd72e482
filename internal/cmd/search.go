package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"waapiview/internal/engine"
)

func newSearchCmd(options *rootOptions) *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search the project by name and print the hits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := options.newEngine()
			defer closeEngine(eng)

			pending, ok := eng.LiveSearch(args[0])
			if !ok {
				return fmt.Errorf("empty search text")
			}
			event, err := expect(eng.Await(cmd.Context(), pending))
			if err != nil {
				return err
			}
			if err := eng.ApplySearch(event.(engine.SearchResultReady)); err != nil {
				return err
			}
			live := eng.Live()
			for _, name := range types {
				if !live.SetFacetActive(name, true) {
					return fmt.Errorf("no %q hits (types found: %s)", name, strings.Join(live.Discovered(), ", "))
				}
			}
			hits := live.Visible()
			return writeResult(cmd, options.format, hits, func(w io.Writer) error {
				for _, hit := range hits {
					if _, err := fmt.Fprintf(w, "%-32s %-24s %s\n", hit.Name, hit.Type, hit.Path); err != nil {
						return err
					}
				}
				_, err := fmt.Fprintf(w, "%d hits\n", len(hits))
				return err
			})
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "only show hits of this type (repeatable)")
	return cmd
}
