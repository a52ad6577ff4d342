package compiler

import (
	"testing"

	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlDoc = `
entry: q1
nodes:
  - type: question
    id: q1
    text: Where does it hurt?
    hint: Pick the closest one
    answers:
      - text: Sales
        next: r-sales
      - text: Books
        next: r-books
  - type: result
    id: r-sales
    title: Sales help
    recommended_services: [management-consulting]
    contact_pre_fill: I want to talk about sales.
  - type: result
    id: r-books
    title: Bookkeeping
    recommended_services: [bookkeeping, cloud-accounting]
`

const jsonDoc = `{
  "entry": "q1",
  "nodes": [
    {"type": "question", "id": "q1", "text": "Where does it hurt?", "hint": "Pick the closest one",
     "answers": [{"text": "Sales", "next": "r-sales"}, {"text": "Books", "next": "r-books"}]},
    {"type": "result", "id": "r-sales", "title": "Sales help",
     "recommended_services": ["management-consulting"], "contact_pre_fill": "I want to talk about sales."},
    {"type": "result", "id": "r-books", "title": "Bookkeeping",
     "recommended_services": ["bookkeeping", "cloud-accounting"]}
  ]
}`

const hclDoc = `
entry = "q1"

question "q1" {
  text = "Where does it hurt?"
  hint = "Pick the closest one"

  answer {
    text = "Sales"
    next = "r-sales"
  }
  answer {
    text = "Books"
    next = "r-books"
  }
}

result "r-sales" {
  title                = "Sales help"
  recommended_services = ["management-consulting"]
  contact_pre_fill     = "I want to talk about sales."
}

result "r-books" {
  title                = "Bookkeeping"
  recommended_services = ["bookkeeping", "cloud-accounting"]
}
`

func TestParser_AllFormatsCompileToTheSameTree(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"yaml", yamlDoc, FormatYAML},
		{"json", jsonDoc, FormatJSON},
		{"hcl", hclDoc, FormatHCL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := p.ParseTree([]byte(tt.data), tt.format, "tree."+tt.name)
			require.NoError(t, err)

			assert.Equal(t, "q1", tr.Entry())
			assert.Equal(t, []string{"q1", "r-sales", "r-books"}, tr.IDs())
			assert.Empty(t, tr.Validate())

			n, ok := tr.GetNode("q1")
			require.True(t, ok)
			q := n.(*domain.Question)
			assert.Equal(t, "Pick the closest one", q.Hint)
			assert.Equal(t, []domain.Answer{{Text: "Sales", NextID: "r-sales"}, {Text: "Books", NextID: "r-books"}}, q.Answers)

			r, ok := tr.Result("r-books")
			require.True(t, ok)
			assert.Equal(t, []string{"bookkeeping", "cloud-accounting"}, r.RecommendedServices)
		})
	}
}

func TestParser_StructuralErrors(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name string
		data string
	}{
		{"missing entry", "nodes:\n  - {type: result, id: r, title: T}\n"},
		{"no nodes", "entry: q1\n"},
		{"unknown type", "entry: q1\nnodes:\n  - {type: banner, id: q1}\n"},
		{"question without text", "entry: q1\nnodes:\n  - {type: question, id: q1, answers: [{text: a, next: r}]}\n"},
		{"answer without next", "entry: q1\nnodes:\n  - {type: question, id: q1, text: Q, answers: [{text: a}]}\n"},
		{"result without title", "entry: q1\nnodes:\n  - {type: result, id: r}\n"},
		{"result with answers", "entry: q1\nnodes:\n  - {type: result, id: r, title: T, answers: [{text: a, next: b}]}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.data), FormatYAML, "bad.yaml")
			require.Error(t, err)
			assert.ErrorIs(t, err, tree.ErrInvalidTree)
			assert.Contains(t, err.Error(), "bad.yaml")
		})
	}
}

func TestParser_GraphProblemsAreNotStructural(t *testing.T) {
	p := NewParser()
	data := `
entry: q1
nodes:
  - type: question
    id: q1
    text: Q
    answers: [{text: a, next: does-not-exist}]
  - type: result
    id: r-empty
    title: Empty
`
	tr, err := p.ParseTree([]byte(data), FormatYAML, "graph.yaml")
	require.NoError(t, err)
	assert.Len(t, tr.Validate(), 2)
}

func TestParser_SyntaxErrors(t *testing.T) {
	p := NewParser()

	_, err := p.Parse([]byte("entry: [unterminated"), FormatYAML, "x.yaml")
	assert.ErrorContains(t, err, "failed to parse x.yaml")

	_, err = p.Parse([]byte("{"), FormatJSON, "x.json")
	assert.ErrorContains(t, err, "failed to parse x.json")

	_, err = p.Parse([]byte(`question "q1" {`), FormatHCL, "x.hcl")
	assert.ErrorContains(t, err, "failed to parse x.hcl")

	_, err = p.Parse([]byte(`entry = "q1"`+"\nbogus {}\n"), FormatHCL, "y.hcl")
	assert.ErrorContains(t, err, "failed to decode y.hcl")
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"tree.yaml": FormatYAML,
		"tree.YML":  FormatYAML,
		"tree.json": FormatJSON,
		"tree.hcl":  FormatHCL,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("tree.toml")
	assert.Error(t, err)
}

func TestMarshal_RoundTripsThroughFromTree(t *testing.T) {
	p := NewParser()
	original, err := p.ParseTree([]byte(yamlDoc), FormatYAML, "tree.yaml")
	require.NoError(t, err)

	for _, format := range []Format{FormatYAML, FormatJSON} {
		data, err := Marshal(FromTree(original), format)
		require.NoError(t, err)

		again, err := p.ParseTree(data, format, "export")
		require.NoError(t, err, string(data))
		assert.Equal(t, original.Nodes(), again.Nodes())
	}

	_, err = Marshal(FromTree(original), FormatHCL)
	assert.Error(t, err)
}
