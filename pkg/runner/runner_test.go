package runner_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/shindan"
	"github.com/aretw0/shindan/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newEngine(t *testing.T) *shindan.Engine {
	t.Helper()
	eng, err := shindan.New()
	require.NoError(t, err)
	return eng
}

func run(t *testing.T, input string) (string, string) {
	t.Helper()
	var out bytes.Buffer
	r := &runner.Runner{Input: strings.NewReader(input), Output: &out}

	s, err := r.Run(context.Background(), newEngine(t))
	require.NoError(t, err)
	return s.Current, out.String()
}

func TestRunner_WalkToResult(t *testing.T) {
	current, out := run(t, "2\n4\nq\n")

	assert.Equal(t, "r-web", current)
	assert.Contains(t, out, "今、事業で一番モヤモヤしていることは？")
	assert.Contains(t, out, "Web開発・システム構築")
	assert.Contains(t, out, "/contact/?message=")
	assert.Contains(t, out, "[b] back")
}

func TestRunner_BackAndRestart(t *testing.T) {
	current, out := run(t, "b\n1\nb\n2\n1\nr\n")

	assert.Equal(t, "q1", current)
	assert.Contains(t, out, "Already at the first question.")
}

func TestRunner_RejectsBadInput(t *testing.T) {
	current, out := run(t, "9\nabc\n2\n")

	assert.Equal(t, "q2-it", current)
	assert.Contains(t, out, "Please pick a number between 1 and 4.")
	assert.Contains(t, out, "Please enter 1-4, b, r or q.")
}

func TestRunner_ResultOnlyAcceptsNavigation(t *testing.T) {
	current, out := run(t, "2\n4\n1\nb\n")

	assert.Equal(t, "q2-it", current)
	assert.Contains(t, out, "This is a result.")
}

func TestRunner_RendererIsApplied(t *testing.T) {
	var out bytes.Buffer
	r := &runner.Runner{
		Input:    strings.NewReader("2\n4\n"),
		Output:   &out,
		Renderer: func(md string) (string, error) { return "RENDERED " + strings.ToUpper(md[:1]), nil },
	}
	_, err := r.Run(context.Background(), newEngine(t))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "RENDERED #")
}

func TestRunner_StopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	r := &runner.Runner{Input: pr, Output: io.Discard}

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx, newEngine(t))
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunner_QuitWithPendingInputDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	eng := newEngine(t)
	for range 20 {
		r := &runner.Runner{Input: strings.NewReader("q\n1\n2\n"), Output: io.Discard}
		_, err := r.Run(context.Background(), eng)
		require.NoError(t, err)
	}
}

func TestRunner_CancelWithPendingInputDoesNotLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &runner.Runner{Input: strings.NewReader("1\n2\n3\n"), Output: io.Discard}
	_, err := r.Run(ctx, newEngine(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsInteractive(t *testing.T) {
	assert.False(t, runner.IsInteractive(&bytes.Buffer{}))
}
