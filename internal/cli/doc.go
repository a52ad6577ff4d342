// Package cli holds the wiring shared by the shindan commands: building the
// engine from flags, choosing a session store, signal handling and report output.
package cli
