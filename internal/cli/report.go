package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aretw0/shindan/pkg/tree"
)

// PrintReport writes a human-readable validation report and reports whether it failed.
// Findings always fail; with strict, audit results (unreachable nodes, cycles,
// unknown services) fail too.
func PrintReport(w io.Writer, r tree.Report, strict bool) bool {
	for _, f := range r.Findings {
		fmt.Fprintf(w, "ERROR   %s\n", f)
	}

	level := "WARN "
	if strict {
		level = "ERROR"
	}
	for _, id := range r.Unreachable {
		fmt.Fprintf(w, "%s   node %q is not reachable from %q\n", level, id, r.Entry)
	}
	for _, c := range r.Cycles {
		fmt.Fprintf(w, "%s   cycle %s\n", level, strings.Join(append(slices.Clone(c), c[0]), " -> "))
	}
	for _, f := range r.Extra {
		fmt.Fprintf(w, "%s   %s\n", level, f)
	}

	failed := !r.Valid() || (strict && !r.Clean())
	if failed {
		fmt.Fprintf(w, "\n%d finding(s), %d audit warning(s)\n", len(r.Findings), len(r.Unreachable)+len(r.Cycles)+len(r.Extra))
	} else {
		fmt.Fprintf(w, "Tree is valid: %d questions, %d results\n", r.Questions, r.Results)
	}
	return failed
}

// PrintStats writes the shape of the tree.
func PrintStats(w io.Writer, source string, r tree.Report) {
	depth := fmt.Sprint(r.Depth)
	if r.Depth < 0 {
		depth = "unbounded (cycle)"
	}
	fmt.Fprintf(w, "source:     %s\n", source)
	fmt.Fprintf(w, "entry:      %s\n", r.Entry)
	fmt.Fprintf(w, "questions:  %d\n", r.Questions)
	fmt.Fprintf(w, "results:    %d\n", r.Results)
	fmt.Fprintf(w, "depth:      %s\n", depth)
	fmt.Fprintf(w, "paths:      %d\n", r.Paths)
	fmt.Fprintf(w, "findings:   %d\n", len(r.Findings))
}

// PrintPaths writes one line per entry-to-result path as answer indices and node IDs.
func PrintPaths(w io.Writer, paths []tree.Path) {
	for _, p := range paths {
		ids := make([]string, 0, len(p.Steps)+1)
		for _, s := range p.Steps {
			ids = append(ids, s.NodeID)
		}
		ids = append(ids, p.ResultID)
		fmt.Fprintf(w, "%v\t%s\n", p.Indices(), strings.Join(ids, " -> "))
	}
}
