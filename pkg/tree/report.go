package tree

// Report aggregates the validation pass and the content-quality audits.
type Report struct {
	Entry       string     `json:"entry"`
	Questions   int        `json:"questions"`
	Results     int        `json:"results"`
	Depth       int        `json:"depth"`
	Paths       int        `json:"paths"`
	Findings    []Finding  `json:"findings"`
	Unreachable []string   `json:"unreachable,omitempty"`
	Cycles      [][]string `json:"cycles,omitempty"`
	// Extra holds findings from additional checks (e.g. the service catalog).
	Extra []Finding `json:"extra,omitempty"`
}

// Valid reports whether the validation pass found nothing.
// Audit results (unreachable, cycles, extra) do not affect it.
func (r Report) Valid() bool {
	return len(r.Findings) == 0
}

// Clean reports whether the tree passes validation and every audit.
func (r Report) Clean() bool {
	return r.Valid() && len(r.Unreachable) == 0 && len(r.Cycles) == 0 && len(r.Extra) == 0
}

// Report runs Validate, the reachability and cycle audits, and any extra checks.
func (t *Tree) Report(checks ...Check) Report {
	r := Report{
		Entry:       t.entry,
		Questions:   t.CountQuestions(),
		Results:     t.CountResults(),
		Depth:       t.Depth(),
		Paths:       t.CountPaths(),
		Findings:    t.Validate(),
		Unreachable: t.Unreachable(),
		Cycles:      t.Cycles(),
	}
	if r.Findings == nil {
		r.Findings = []Finding{}
	}
	for _, check := range checks {
		r.Extra = append(r.Extra, check(t)...)
	}
	return r
}
