package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/shindan"
	"github.com/aretw0/shindan/internal/logging"
	"github.com/aretw0/shindan/internal/presentation/graph"
	"github.com/aretw0/shindan/pkg/catalog"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/tree"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	TreeResourceURI  = "shindan://tree"
	GraphResourceURI = "shindan://graph"
)

// Engine is the part of the tree engine the MCP server uses. *shindan.Engine satisfies it.
type Engine interface {
	Tree() *tree.Tree
	GetNode(id string) (domain.Node, bool)
	Advance(ctx context.Context, currentID string, answerIndex int) (string, error)
	Catalog() *catalog.Catalog
	Audit() tree.Report
}

// NodeArgs are the arguments of get_node.
type NodeArgs struct {
	NodeID string `json:"node_id"`
}

// AdvanceArgs are the arguments of advance.
type AdvanceArgs struct {
	CurrentID   string `json:"current_id"`
	AnswerIndex int    `json:"answer_index"`
}

// NodeResponse is a node with its catalog services when it is a result.
type NodeResponse struct {
	Node        domain.Node       `json:"node" jsonschema_description:"The question or result"`
	Terminal    bool              `json:"terminal" jsonschema_description:"True when the node is a result"`
	Services    []catalog.Service `json:"services,omitempty" jsonschema_description:"Recommended services of a result"`
	ContactLink string            `json:"contact_link,omitempty" jsonschema_description:"Contact form URL with the pre-filled message"`
}

// AdvanceResponse is the outcome of one answer.
type AdvanceResponse struct {
	NextID string `json:"next_id" jsonschema_description:"The node the answer leads to"`
	NodeResponse
}

// Server exposes the tree engine as an MCP server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("shindan-mcp", strings.TrimSpace(shindan.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on the given port using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down mcp server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Get a question or result by ID. Without node_id returns the entry question."),
		mcp.WithString("node_id", mcp.Description("Node ID (optional)")),
		mcp.WithOutputSchema[NodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetNode))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Pick an answer on a question and get the node it leads to."),
		mcp.WithString("current_id", mcp.Required(), mcp.Description("ID of the current question")),
		mcp.WithNumber("answer_index", mcp.Required(), mcp.Description("Zero-based index of the chosen answer")),
		mcp.WithOutputSchema[AdvanceResponse](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.mcpServer.AddTool(mcp.NewTool("validate_tree",
		mcp.WithDescription("Validate the active tree and report dangling answers, empty results and audit findings."),
		mcp.WithOutputSchema[tree.Report](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the tree as a Mermaid flowchart."),
	), s.handleGetGraph)
}

func (s *Server) handleGetNode(_ context.Context, _ mcp.CallToolRequest, args NodeArgs) (NodeResponse, error) {
	id := args.NodeID
	if id == "" {
		id = s.engine.Tree().Entry()
	}
	resp, ok := s.nodeResponse(id)
	if !ok {
		return NodeResponse{}, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id)
	}
	return resp, nil
}

func (s *Server) handleAdvance(ctx context.Context, _ mcp.CallToolRequest, args AdvanceArgs) (AdvanceResponse, error) {
	next, err := s.engine.Advance(ctx, args.CurrentID, args.AnswerIndex)
	if err != nil {
		s.logger.Warn("mcp advance rejected", "node_id", args.CurrentID, "answer_index", args.AnswerIndex, "err", err)
		return AdvanceResponse{}, err
	}
	resp, ok := s.nodeResponse(next)
	if !ok {
		return AdvanceResponse{}, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, next)
	}
	return AdvanceResponse{NextID: next, NodeResponse: resp}, nil
}

func (s *Server) handleValidate(_ context.Context, _ mcp.CallToolRequest, _ struct{}) (tree.Report, error) {
	return s.engine.Audit(), nil
}

func (s *Server) handleGetGraph(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(graph.GenerateMermaid(s.engine.Tree(), nil)), nil
}

func (s *Server) nodeResponse(id string) (NodeResponse, bool) {
	n, ok := s.engine.GetNode(id)
	if !ok {
		return NodeResponse{}, false
	}
	resp := NodeResponse{Node: n}
	if r, isResult := n.(*domain.Result); isResult {
		resp.Terminal = true
		if c := s.engine.Catalog(); c != nil {
			resp.Services, _ = c.Resolve(r.RecommendedServices)
		}
		resp.ContactLink = catalog.ContactLink(r)
	}
	return resp, true
}

type treeDocument struct {
	Entry string        `json:"entry"`
	Nodes []domain.Node `json:"nodes"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TreeResourceURI, "Diagnostic tree",
		mcp.WithResourceDescription("Every question and result of the active tree"),
		mcp.WithMIMEType("application/json"),
	), s.handleTreeResource)

	s.mcpServer.AddResource(mcp.NewResource(GraphResourceURI, "Diagnostic tree (Mermaid)",
		mcp.WithMIMEType("text/plain"),
	), func(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphResourceURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.engine.Tree(), nil),
			},
		}, nil
	})
}

func (s *Server) handleTreeResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	t := s.engine.Tree()
	jsonBytes, err := json.Marshal(treeDocument{Entry: t.Entry(), Nodes: t.Nodes()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tree: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TreeResourceURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
