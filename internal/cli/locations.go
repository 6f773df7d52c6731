package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vroot/internal/location"
)

// locationView is the JSON form of a location.
type locationView struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
	ReadOnly bool   `json:"readOnly"`
	Visible  bool   `json:"visible"`
	Capacity uint64 `json:"capacity,omitempty"`
	FSType   string `json:"fsType,omitempty"`
	Mount    string `json:"mount,omitempty"`
}

func newLocationsCmd(a *app, stdout io.Writer) *cobra.Command {
	var (
		output string
		write  bool
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List the storage locations currently available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hidden := all || getGlobalOptions(cmd).ShowHidden || a.cfg.Locations.ShowHidden
			snap := a.reg.List(ctxOf(cmd), location.Options{WriteIntent: write, IncludeHidden: hidden})
			switch output {
			case "json":
				views := make([]locationView, 0, snap.Len())
				for _, e := range snap.Entries() {
					views = append(views, locationView{
						ID:       e.ID,
						Label:    e.Label,
						Kind:     e.Kind.String(),
						Category: e.Category.String(),
						ReadOnly: e.ReadOnly,
						Visible:  e.Visible,
						Capacity: e.Capacity,
						FSType:   e.FSType,
						Mount:    e.Mount,
					})
				}
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			case "table", "":
				return renderLocations(stdout, snap)
			default:
				return fmt.Errorf("unsupported --output: %s", output)
			}
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Only locations that accept writes")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include reserved locations")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}

func renderLocations(w io.Writer, snap *location.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tKIND\tSIZE\tMOUNT")
	for _, e := range snap.Entries() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Label, e.Kind, size(e.Capacity), e.Mount)
	}
	return tw.Flush()
}

func size(n uint64) string {
	if n == 0 {
		return "-"
	}
	return humanize.IBytes(n)
}
