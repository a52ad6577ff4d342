package content_test

import (
	"context"
	"testing"

	"github.com/aretw0/shindan/pkg/content"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/tree"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipped_EntryQuestion(t *testing.T) {
	tr := content.Tree()
	require.Equal(t, content.EntryID, tr.Entry())

	n, ok := tr.GetNode("q1")
	require.True(t, ok)
	q, isQuestion := n.(*domain.Question)
	require.True(t, isQuestion)
	assert.Equal(t, "今、事業で一番モヤモヤしていることは？", q.Text)
	assert.Len(t, q.Answers, 4)
}

func TestShipped_AdvanceFirstAnswer(t *testing.T) {
	next, err := content.Tree().Advance("q1", 0)
	require.NoError(t, err)
	assert.Equal(t, "q2-biz", next)
}

func TestShipped_WalkToWebResult(t *testing.T) {
	tr := content.Tree()

	next, err := tr.Advance("q1", 1)
	require.NoError(t, err)
	assert.Equal(t, "q2-it", next)

	next, err = tr.Advance(next, 3)
	require.NoError(t, err)
	assert.Equal(t, "r-web", next)

	assert.True(t, tr.IsTerminal("r-web"))
	r, ok := tr.Result("r-web")
	require.True(t, ok)
	assert.Equal(t, []string{"web-development"}, r.RecommendedServices)
}

func TestShipped_ValidatesClean(t *testing.T) {
	assert.Empty(t, content.Tree().Validate())
}

func TestShipped_CorruptedCopyReportsOneFinding(t *testing.T) {
	original := content.Tree()

	nodes := original.Nodes()
	var corrupted *domain.Question
	for _, n := range nodes {
		if q, ok := n.(*domain.Question); ok && q.ID == "q2-acc" {
			corrupted = q
		}
	}
	require.NotNil(t, corrupted)
	corrupted.Answers[1].NextID = "does-not-exist"

	broken, err := tree.New(original.Entry(), nodes...)
	require.NoError(t, err)

	findings := broken.Validate()
	require.Len(t, findings, 1)
	assert.Equal(t, "q2-acc", findings[0].NodeID)
	assert.Equal(t, "会計ソフトを使いたいが導入方法がわからない", findings[0].AnswerText)
	assert.Contains(t, findings[0].String(), `"q2-acc"`)
	assert.Contains(t, findings[0].String(), "会計ソフトを使いたいが導入方法がわからない")
	assert.Contains(t, findings[0].String(), "does-not-exist")

	// The shared tree was not touched.
	assert.Empty(t, original.Validate())
}

func TestShipped_AdvanceOnResultIsUsageError(t *testing.T) {
	_, err := content.Tree().Advance("r-web", 0)
	require.Error(t, err)
	assert.True(t, domain.IsUsageError(err))
	assert.ErrorIs(t, err, domain.ErrTerminalNode)
}

func TestShipped_Counts(t *testing.T) {
	tr := content.Tree()
	assert.Equal(t, 10, tr.CountQuestions())
	assert.Equal(t, 16, tr.CountResults())
	assert.Equal(t, 3, tr.Depth())
	assert.Len(t, tr.Paths(), 26)
}

func TestShipped_Closure(t *testing.T) {
	tr := content.Tree()
	for _, n := range tr.Nodes() {
		q, ok := n.(*domain.Question)
		if !ok {
			continue
		}
		for i, a := range q.Answers {
			_, found := tr.GetNode(a.NextID)
			assert.True(t, found, "%s[%d] -> %s", q.ID, i, a.NextID)
		}
	}
}

func TestShipped_ResultsRecommendSomething(t *testing.T) {
	tr := content.Tree()
	for _, n := range tr.Nodes() {
		if r, ok := n.(*domain.Result); ok {
			assert.NotEmpty(t, r.RecommendedServices, r.ID)
			assert.NotEmpty(t, r.ContactPreFill, r.ID)
		}
	}
}

func TestShipped_EveryNodeReachable(t *testing.T) {
	tr := content.Tree()
	assert.Empty(t, tr.Unreachable())
	assert.Empty(t, tr.Cycles())
	assert.Len(t, tr.Reachable(), tr.Len())
}

func TestShipped_TerminalIffResult(t *testing.T) {
	tr := content.Tree()
	for _, id := range tr.IDs() {
		n, _ := tr.GetNode(id)
		_, isResult := n.(*domain.Result)
		assert.Equal(t, isResult, tr.IsTerminal(id), id)
	}
}

func TestShipped_AdvanceDoesNotMutate(t *testing.T) {
	tr := content.Tree()
	before, _ := tr.GetNode("q3-it-ai")

	a, err := tr.Advance("q3-it-ai", 2)
	require.NoError(t, err)
	b, err := tr.Advance("q3-it-ai", 2)
	require.NoError(t, err)
	assert.Equal(t, "r-ai-consulting", a)
	assert.Equal(t, a, b)

	after, _ := tr.GetNode("q3-it-ai")
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("node changed (-before +after):\n%s", diff)
	}
}

func TestShipped_CatalogCoversEveryRecommendation(t *testing.T) {
	c := content.Catalog()
	assert.Len(t, c.IDs(), 11)
	assert.Empty(t, c.Check()(content.Tree()))
	assert.True(t, content.Tree().Report(c.Check()).Clean())
}

func TestShipped_LoadIsMemoized(t *testing.T) {
	a, err := content.Load()
	require.NoError(t, err)
	b, err := content.Load()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestLoader_ServesSharedTree(t *testing.T) {
	tr, err := content.Loader{}.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, content.Tree(), tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = content.Loader{}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
