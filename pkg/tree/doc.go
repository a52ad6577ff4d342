/*
Package tree implements the diagnostic tree engine: a fixed graph of Question and
Result nodes with a designated entry point.

A Tree is built once with New and is read-only afterwards. All operations are
synchronous in-memory computations, so a single *Tree can be shared by any number
of goroutines without locking. The caller owns the traversal position and walks
the graph by calling Advance repeatedly:

	current := t.Entry()
	for !t.IsTerminal(current) {
		next, err := t.Advance(current, choice)
		if err != nil {
			// *domain.UsageError: a presentation-layer defect
		}
		current = next
	}

Validate is the static pass meant for builds and tests. Reachable, Unreachable,
Cycles, Depth and Paths are additional audits that Validate does not enforce.
*/
package tree
