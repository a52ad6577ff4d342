package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/shindan/internal/logging"
	"github.com/aretw0/shindan/internal/testutils"
	"github.com/aretw0/shindan/pkg/session"
	"github.com/aretw0/shindan/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallTree = `entry: start
nodes:
  - type: question
    id: start
    text: Ready?
    answers:
      - text: "yes"
        next: done
      - text: "no"
        next: ghost
  - type: result
    id: done
    title: Done
    recommended_services: [mystery]
  - type: result
    id: orphan
    title: Orphan
    recommended_services: [bookkeeping]
`

func TestNewEngine_Shipped(t *testing.T) {
	eng, err := NewEngine(EngineOptions{}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "q1", eng.Entry())
	assert.Equal(t, "shipped", eng.Name)
}

func TestNewEngine_File(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"tree.yaml": smallTree})

	opts := EngineOptions{File: filepath.Join(dir, "tree.yaml")}
	eng, err := NewEngine(opts, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "start", eng.Entry())
	assert.Equal(t, opts.File, eng.Name)
}

func TestNewEngine_Vault(t *testing.T) {
	dir, _ := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"start.md": "---\ntype: question\ntext: Ready?\nanswers:\n  - text: ok\n    next: done\n---\n",
		"done.md":  "---\ntype: result\ntitle: Done\nrecommended_services: [svc]\n---\nAll set.",
	})

	eng, err := NewEngine(EngineOptions{Dir: dir, Entry: "start"}, logging.NewNop())
	require.NoError(t, err)
	next, err := eng.Advance(context.Background(), "start", 0)
	require.NoError(t, err)
	assert.Equal(t, "done", next)
}

func TestNewEngine_Errors(t *testing.T) {
	_, err := NewEngine(EngineOptions{File: "a.yaml", Dir: "b"}, logging.NewNop())
	assert.ErrorIs(t, err, ErrConflictingSources)

	_, err = NewEngine(EngineOptions{File: filepath.Join(t.TempDir(), "missing.yaml")}, logging.NewNop())
	assert.Error(t, err)
}

func smallReport(t *testing.T) tree.Report {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"tree.yaml": smallTree})
	eng, err := NewEngine(EngineOptions{File: filepath.Join(dir, "tree.yaml")}, logging.NewNop())
	require.NoError(t, err)
	return eng.Audit()
}

func TestPrintReport(t *testing.T) {
	r := smallReport(t)

	var buf bytes.Buffer
	assert.True(t, PrintReport(&buf, r, false))
	out := buf.String()
	assert.Contains(t, out, `ERROR   Question "start" answer "no" points to missing node "ghost"`)
	assert.Contains(t, out, `WARN    node "orphan" is not reachable from "start"`)
	assert.Contains(t, out, `WARN    Result "done" recommends unknown service "mystery"`)
	assert.Contains(t, out, "1 finding(s), 2 audit warning(s)")
}

func TestPrintReport_Strict(t *testing.T) {
	clean := tree.Report{Entry: "q1", Questions: 1, Results: 1, Findings: []tree.Finding{}}
	var buf bytes.Buffer
	assert.False(t, PrintReport(&buf, clean, true))
	assert.Contains(t, buf.String(), "Tree is valid: 1 questions, 1 results")

	audited := clean
	audited.Cycles = [][]string{{"a", "b"}}
	buf.Reset()
	assert.False(t, PrintReport(&buf, audited, false))
	buf.Reset()
	assert.True(t, PrintReport(&buf, audited, true))
	assert.Contains(t, buf.String(), "ERROR   cycle a -> b -> a")
	assert.Equal(t, []string{"a", "b"}, audited.Cycles[0])
}

func TestPrintStatsAndPaths(t *testing.T) {
	eng, err := NewEngine(EngineOptions{}, logging.NewNop())
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintStats(&buf, "shipped", eng.Audit())
	assert.Contains(t, buf.String(), "questions:  10")
	assert.Contains(t, buf.String(), "paths:      26")

	buf.Reset()
	PrintPaths(&buf, eng.Tree().Paths())
	assert.Contains(t, buf.String(), "[1 3]\tq1 -> q2-it -> r-web\n")
}

func TestNewSessionManager_Memory(t *testing.T) {
	eng, err := NewEngine(EngineOptions{}, logging.NewNop())
	require.NoError(t, err)

	mgr, closeFn, err := NewSessionManager(context.Background(), eng, SessionOptions{}, logging.NewNop())
	require.NoError(t, err)
	defer closeFn()

	walk(t, mgr)
}

func TestNewSessionManager_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	eng, err := NewEngine(EngineOptions{}, logging.NewNop())
	require.NoError(t, err)

	mgr, closeFn, err := NewSessionManager(context.Background(), eng, SessionOptions{RedisAddr: mr.Addr()}, logging.NewNop())
	require.NoError(t, err)
	defer closeFn()

	id := walk(t, mgr)
	assert.True(t, mr.Exists("shindan:session:"+id))
}

func TestNewSessionManager_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	eng, err := NewEngine(EngineOptions{}, logging.NewNop())
	require.NoError(t, err)
	_, _, err = NewSessionManager(context.Background(), eng, SessionOptions{RedisAddr: addr}, logging.NewNop())
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestNewSessionManager_EncryptedRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	eng, err := NewEngine(EngineOptions{}, logging.NewNop())
	require.NoError(t, err)

	key := strings.Repeat("0f", 32)
	opts := SessionOptions{RedisAddr: mr.Addr(), EncryptionKey: key}
	mgr, closeFn, err := NewSessionManager(context.Background(), eng, opts, logging.NewNop())
	require.NoError(t, err)
	defer closeFn()

	id := walk(t, mgr)
	raw, err := mr.Get("shindan:session:" + id)
	require.NoError(t, err)
	assert.Contains(t, raw, `"sealed"`)
	assert.NotContains(t, raw, "q2-it")
}

func TestNewSessionManager_BadKeys(t *testing.T) {
	eng, err := NewEngine(EngineOptions{}, logging.NewNop())
	require.NoError(t, err)

	for name, opts := range map[string]SessionOptions{
		"short key":     {EncryptionKey: "abcd"},
		"fallback only": {FallbackKeys: []string{strings.Repeat("0f", 32)}},
		"bad fallback":  {EncryptionKey: strings.Repeat("0f", 32), FallbackKeys: []string{"nothex"}},
	} {
		_, _, err := NewSessionManager(context.Background(), eng, opts, logging.NewNop())
		assert.Error(t, err, name)
	}
}

func walk(t *testing.T, mgr *session.Manager) string {
	t.Helper()
	ctx := context.Background()
	s, err := mgr.Start(ctx)
	require.NoError(t, err)
	s, err = mgr.Answer(ctx, s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "q2-it", s.Current)
	return s.ID
}
