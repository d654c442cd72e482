package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"waapiview/internal/domain"
	"waapiview/internal/engine"
)

func newPropsCmd(options *rootOptions) *cobra.Command {
	var selected bool

	cmd := &cobra.Command{
		Use:   "props [object-id...]",
		Short: "Print the properties of objects, or of the current Wwise selection",
		Long: `Print the properties of the given object ids.

With --selected the objects selected in the authoring tool are used
instead. --field limits the output to the named fields.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if selected == (len(args) > 0) {
				return errors.New("pass object ids or --selected, not both")
			}
			eng := options.newEngine()
			defer closeEngine(eng)

			var pending engine.Pending
			if selected {
				pending = eng.FetchSelected()
			} else {
				pending, _ = eng.FetchProperties(args)
			}
			event, err := expect(eng.Await(cmd.Context(), pending))
			if err != nil {
				return err
			}
			records := propertyRecords(event)
			return writeResult(cmd, options.format, records, func(w io.Writer) error {
				if len(records) == 0 {
					_, err := fmt.Fprintln(w, "nothing selected")
					return err
				}
				for _, record := range records {
					fmt.Fprintln(w, record.ID)
					keys := make([]string, 0, len(record.Values))
					for key := range record.Values {
						keys = append(keys, key)
					}
					sort.Strings(keys)
					for _, key := range keys {
						if _, err := fmt.Fprintf(w, "  %-24s %v\n", key, record.Values[key]); err != nil {
							return err
						}
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&selected, "selected", false, "use the objects selected in the authoring tool")
	return cmd
}

// propertyRecords is empty, never nil, when the tool had nothing selected.
func propertyRecords(event engine.Event) []domain.PropertyRecord {
	if ready, ok := event.(engine.PropertiesReady); ok && ready.Records != nil {
		return ready.Records
	}
	return []domain.PropertyRecord{}
}
