package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/shindan"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := shindan.New()
	require.NoError(t, err)
	return NewServer(eng)
}

func TestGetNode(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleGetNode(ctx, mcp.CallToolRequest{}, NodeArgs{})
	require.NoError(t, err)
	assert.Equal(t, "q1", resp.Node.NodeID())
	assert.False(t, resp.Terminal)

	resp, err = s.handleGetNode(ctx, mcp.CallToolRequest{}, NodeArgs{NodeID: "r-web"})
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	require.Len(t, resp.Services, 1)
	assert.Equal(t, "web-development", resp.Services[0].ID)

	_, err = s.handleGetNode(ctx, mcp.CallToolRequest{}, NodeArgs{NodeID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestAdvance(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleAdvance(ctx, mcp.CallToolRequest{}, AdvanceArgs{CurrentID: "q1", AnswerIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, "q2-it", resp.NextID)

	resp, err = s.handleAdvance(ctx, mcp.CallToolRequest{}, AdvanceArgs{CurrentID: "q2-it", AnswerIndex: 3})
	require.NoError(t, err)
	assert.Equal(t, "r-web", resp.NextID)
	assert.True(t, resp.Terminal)
	assert.NotEmpty(t, resp.ContactLink)

	_, err = s.handleAdvance(ctx, mcp.CallToolRequest{}, AdvanceArgs{CurrentID: "q1", AnswerIndex: 4})
	assert.ErrorIs(t, err, domain.ErrAnswerOutOfRange)
}

func TestAdvanceTool_ReportsToolError(t *testing.T) {
	s := newTestServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Name = "advance"
	req.Params.Arguments = map[string]any{"current_id": "r-web", "answer_index": 0}

	res, err := mcp.NewStructuredToolHandler(s.handleAdvance)(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestValidateTree(t *testing.T) {
	report, err := newTestServer(t).handleValidate(context.Background(), mcp.CallToolRequest{}, struct{}{})
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 10, report.Questions)
}

func TestGetGraph(t *testing.T) {
	res, err := newTestServer(t).handleGetGraph(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "graph TD")
}

func TestTreeResource(t *testing.T) {
	contents, err := newTestServer(t).handleTreeResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, TreeResourceURI, text.URI)

	var doc struct {
		Entry string            `json:"entry"`
		Nodes []json.RawMessage `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &doc))
	assert.Equal(t, "q1", doc.Entry)
	assert.Len(t, doc.Nodes, 26)
}
