package ops

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/morikuni/aec"
)

// Explain writes a human readable listing of a resolution: one row
// per selected dependency, flagged by availability on the host.
func (r *Resolution) Explain(w io.Writer, color bool) error {
	tw := tabwriter.NewWriter(w, 2, 2, 1, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "NAME\tKIND\tSTATUS\tLOCATION\n")

	missing := map[string]struct{}{}

	for _, name := range r.Missing {
		missing[name] = struct{}{}
	}

	for _, ent := range r.Set.Entries {
		if _, ok := missing[ent.Name]; ok {
			status := "missing"
			if color {
				status = aec.RedF.Apply(status)
			}

			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", ent.Name, ent.Kind, status)
			continue
		}

		for _, dep := range r.Resolved {
			if dep.Name != ent.Name {
				continue
			}

			status := "ok"
			if color {
				status = aec.GreenF.Apply(status)
			}

			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ent.Name, ent.Kind, status, dep.Path)
			break
		}
	}

	return nil
}
