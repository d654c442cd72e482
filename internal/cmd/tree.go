package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"waapiview/internal/domain"
	"waapiview/internal/engine"
)

type treeRow struct {
	Path  string `json:"path" yaml:"path"`
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Depth int    `json:"depth" yaml:"depth"`
	Voice bool   `json:"voice,omitempty" yaml:"voice,omitempty"`
}

func newTreeCmd(options *rootOptions) *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Mirror the configured roots and print the object tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := options.newEngine()
			defer closeEngine(eng)

			event, err := expect(eng.Await(cmd.Context(), eng.RefreshTree()))
			if err != nil {
				return err
			}
			rows := treeRows(event.(engine.TreeReady).Forest, maxDepth)
			return writeResult(cmd, options.format, rows, func(w io.Writer) error {
				for _, row := range rows {
					line := strings.Repeat("  ", row.Depth) + row.Name
					if row.Depth > 0 {
						line += "  (" + row.Type + ")"
					}
					if _, err := fmt.Fprintln(w, line); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&maxDepth, "depth", -1, "only print nodes down to this depth (roots are depth 0)")
	return cmd
}

func treeRows(forest *domain.Forest, maxDepth int) []treeRow {
	rows := make([]treeRow, 0, forest.Len())
	forest.Walk(func(index int, depth int) bool {
		if maxDepth >= 0 && depth > maxDepth {
			return true
		}
		node := forest.Node(index)
		rows = append(rows, treeRow{
			Path:  node.Path,
			Name:  node.Name,
			Type:  node.Type,
			ID:    node.ObjectID,
			Depth: depth,
			Voice: node.Voice,
		})
		return true
	})
	return rows
}
