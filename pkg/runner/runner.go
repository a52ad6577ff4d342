package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/shindan/internal/logging"
	"github.com/aretw0/shindan/internal/presentation/tui"
	"github.com/aretw0/shindan/pkg/adapters/memory"
	"github.com/aretw0/shindan/pkg/catalog"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/session"
	"golang.org/x/term"
)

// Engine is what the runner needs from the tree engine. *shindan.Engine satisfies it.
type Engine interface {
	session.Navigator
	GetNode(id string) (domain.Node, bool)
	Catalog() *catalog.Catalog
}

// ContentRenderer transforms result markdown before it is printed (e.g. glamour).
type ContentRenderer func(string) (string, error)

// Runner drives one interactive walk through a tree.
type Runner struct {
	Input  io.Reader
	Output io.Writer

	// Renderer formats results. If nil, the markdown is printed as is.
	Renderer ContentRenderer

	// Logger is used for debug logging. If nil, a no-op logger is used.
	Logger *slog.Logger
}

// NewRunner creates a Runner on Stdin/Stdout.
func NewRunner() *Runner {
	return &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: logging.NewNop(),
	}
}

// IsInteractive reports whether w is a terminal.
func IsInteractive(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run walks the tree until the user quits, input ends or ctx is canceled.
// It returns the session as it stood when the walk stopped.
func (r *Runner) Run(ctx context.Context, eng Engine) (*domain.Session, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	out := r.Output
	if out == nil {
		out = os.Stdout
	}
	in := r.Input
	if in == nil {
		in = os.Stdin
	}

	mgr := session.NewManager(eng, memory.NewStore(), session.WithLogger(logger))
	s, err := mgr.Start(ctx)
	if err != nil {
		return nil, err
	}
	lines := newLineReader(in)
	defer lines.close()

	for {
		node, ok := eng.GetNode(s.Current)
		if !ok {
			return s, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, s.Current)
		}

		var answers int
		switch n := node.(type) {
		case *domain.Question:
			r.printQuestion(out, n, len(s.History))
			answers = len(n.Answers)
		case *domain.Result:
			r.printResult(out, n, eng.Catalog())
			fmt.Fprintln(out, "[b] back  [r] restart  [q] quit")
		}

		fmt.Fprint(out, "> ")
		line, err := lines.next(ctx)
		if err != nil {
			fmt.Fprintln(out)
			if errors.Is(err, io.EOF) {
				return s, nil
			}
			return s, err
		}
		clean, err := SanitizeInput(line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v. Please try again.\n\n", err)
			continue
		}
		cmd, err := ParseCommand(clean)
		if err != nil {
			fmt.Fprintf(out, "Please enter 1-%d, b, r or q.\n\n", max(answers, 1))
			continue
		}

		next, err := r.apply(ctx, mgr, s.ID, cmd)
		switch {
		case errors.Is(err, errQuit):
			return s, nil
		case errors.Is(err, domain.ErrNoHistory):
			fmt.Fprintln(out, "Already at the first question.")
			fmt.Fprintln(out)
			continue
		case domain.IsUsageError(err):
			logger.Debug("answer rejected", "node_id", s.Current, "error", err)
			if answers > 0 {
				fmt.Fprintf(out, "Please pick a number between 1 and %d.\n\n", answers)
			} else {
				fmt.Fprintln(out, "This is a result. Use b, r or q.")
				fmt.Fprintln(out)
			}
			continue
		case err != nil:
			return s, err
		}
		s = next
		fmt.Fprintln(out)
	}
}

var errQuit = errors.New("quit")

func (r *Runner) apply(ctx context.Context, mgr *session.Manager, id string, cmd Command) (*domain.Session, error) {
	switch cmd.Kind {
	case CommandBack:
		return mgr.Back(ctx, id)
	case CommandRestart:
		return mgr.Reset(ctx, id)
	case CommandQuit:
		return nil, errQuit
	default:
		return mgr.Answer(ctx, id, cmd.Index)
	}
}

func (r *Runner) printQuestion(w io.Writer, q *domain.Question, step int) {
	fmt.Fprintf(w, "Q%d. %s\n", step+1, q.Text)
	if q.Hint != "" {
		fmt.Fprintf(w, "    %s\n", q.Hint)
	}
	for i, a := range q.Answers {
		fmt.Fprintf(w, "  %s %s\n", tui.Accent(fmt.Sprintf("%d)", i+1)), a.Text)
	}
}

func (r *Runner) printResult(w io.Writer, res *domain.Result, c *catalog.Catalog) {
	md := tui.ResultMarkdown(res, c)
	if r.Renderer != nil {
		if rendered, err := r.Renderer(md); err == nil {
			md = rendered
		}
	}
	fmt.Fprintln(w, strings.TrimSpace(md))
	fmt.Fprintln(w)
}
