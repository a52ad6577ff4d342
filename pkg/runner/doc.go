/*
Package runner walks a diagnostic tree in the terminal.

The Runner prints the current question with numbered answers, reads the user's
choice from its Input and moves a session forward until a result is reached.
History lives in a session.Manager backed by an in-memory store, so the user
can step back or restart at any prompt.

# Commands

  - 1..n: pick an answer
  - b: go back to the previous question
  - r: restart from the first question
  - q: quit

# Usage

	r := runner.NewRunner()
	r.Renderer = tui.NewRenderer()
	sess, err := r.Run(ctx, engine)
*/
package runner
