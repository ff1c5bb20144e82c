package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/internal/presentation/graph"
	"github.com/aretw0/weave/pkg/domain"
	weavegraph "github.com/aretw0/weave/pkg/graph"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs exposed by the server.
const (
	GraphURI   = "weave://graph"
	MermaidURI = "weave://graph/mermaid"
)

// Workspace defines what the MCP server needs from a weave workspace.
type Workspace interface {
	AddOperator(op domain.OperatorPredicate, point domain.Point) error
	DeleteOperator(operatorID string) error
	AddLink(link domain.OperatorLink) error
	DeleteLink(link domain.OperatorLink) error
	Graph() domain.GraphSnapshot
	Check() []weavegraph.Issue
}

var _ Workspace = (*weave.Workspace)(nil)

// AddOperatorArgs are the arguments of the add_operator tool.
type AddOperatorArgs struct {
	OperatorID   string         `json:"operator_id"`
	OperatorType string         `json:"operator_type"`
	Properties   map[string]any `json:"properties,omitempty"`
	X            float64        `json:"x,omitempty"`
	Y            float64        `json:"y,omitempty"`
}

// DeleteOperatorArgs are the arguments of the delete_operator tool.
type DeleteOperatorArgs struct {
	OperatorID string `json:"operator_id"`
}

// LinkArgs are the arguments of the add_link and delete_link tools.
// Ports are written "operator.port".
type LinkArgs struct {
	LinkID string `json:"link_id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphResponse is the structured result of every tool: the graph after the call.
type GraphResponse struct {
	Graph  domain.GraphSnapshot `json:"graph" jsonschema_description:"The logical graph after the call"`
	Issues []weavegraph.Issue   `json:"issues,omitempty" jsonschema_description:"Advisory structural issues such as cycles"`
}

// Server exposes a workspace as an MCP server.
type Server struct {
	ws        Workspace
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance named name.
func NewServer(ws Workspace, name string, opts ...Option) *Server {
	s := &Server{
		ws:        ws,
		mcpServer: server.NewMCPServer(name, weave.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("add_operator",
		mcp.WithDescription("Add an operator to the dataflow graph."),
		mcp.WithString("operator_id", mcp.Required(), mcp.Description("Unique operator ID")),
		mcp.WithString("operator_type", mcp.Required(), mcp.Description("Operator type, e.g. ScanSource")),
		mcp.WithObject("properties", mcp.Description("Operator properties")),
		mcp.WithNumber("x", mcp.Description("Horizontal position on the diagram")),
		mcp.WithNumber("y", mcp.Description("Vertical position on the diagram")),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleAddOperator))

	s.mcpServer.AddTool(mcp.NewTool("delete_operator",
		mcp.WithDescription("Delete an operator and every link attached to it."),
		mcp.WithString("operator_id", mcp.Required(), mcp.Description("Operator ID")),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleDeleteOperator))

	s.mcpServer.AddTool(mcp.NewTool("add_link",
		mcp.WithDescription("Link an output port to an input port. Ports are written operator.port."),
		mcp.WithString("link_id", mcp.Description("Link ID (defaults to source->target)")),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source port, e.g. scan.out0")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target port, e.g. filter.in0")),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleAddLink))

	s.mcpServer.AddTool(mcp.NewTool("delete_link",
		mcp.WithDescription("Delete the link joining two ports."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source port")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target port")),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleDeleteLink))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the current graph and its structural issues."),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetGraph))
}

func (s *Server) handleAddOperator(ctx context.Context, request mcp.CallToolRequest, args AddOperatorArgs) (GraphResponse, error) {
	op := domain.OperatorPredicate{
		OperatorID:   args.OperatorID,
		OperatorType: args.OperatorType,
		Properties:   args.Properties,
	}
	if err := s.ws.AddOperator(op, domain.Point{X: args.X, Y: args.Y}); err != nil {
		return GraphResponse{}, fmt.Errorf("add_operator failed: %w", err)
	}
	return s.snapshot(), nil
}

func (s *Server) handleDeleteOperator(ctx context.Context, request mcp.CallToolRequest, args DeleteOperatorArgs) (GraphResponse, error) {
	if err := s.ws.DeleteOperator(args.OperatorID); err != nil {
		return GraphResponse{}, fmt.Errorf("delete_operator failed: %w", err)
	}
	return s.snapshot(), nil
}

func (s *Server) handleAddLink(ctx context.Context, request mcp.CallToolRequest, args LinkArgs) (GraphResponse, error) {
	link, err := args.link()
	if err != nil {
		return GraphResponse{}, fmt.Errorf("add_link failed: %w", err)
	}
	if err := s.ws.AddLink(link); err != nil {
		return GraphResponse{}, fmt.Errorf("add_link failed: %w", err)
	}
	return s.snapshot(), nil
}

func (s *Server) handleDeleteLink(ctx context.Context, request mcp.CallToolRequest, args LinkArgs) (GraphResponse, error) {
	link, err := args.link()
	if err != nil {
		return GraphResponse{}, fmt.Errorf("delete_link failed: %w", err)
	}
	if err := s.ws.DeleteLink(link); err != nil {
		return GraphResponse{}, fmt.Errorf("delete_link failed: %w", err)
	}
	return s.snapshot(), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest, args struct{}) (GraphResponse, error) {
	return s.snapshot(), nil
}

func (s *Server) snapshot() GraphResponse {
	return GraphResponse{Graph: s.ws.Graph(), Issues: s.ws.Check()}
}

func (a LinkArgs) link() (domain.OperatorLink, error) {
	src, err := domain.ParsePort(a.Source)
	if err != nil {
		return domain.OperatorLink{}, err
	}
	tgt, err := domain.ParsePort(a.Target)
	if err != nil {
		return domain.OperatorLink{}, err
	}
	id := a.LinkID
	if id == "" {
		id = src.String() + "->" + tgt.String()
	}
	return domain.OperatorLink{LinkID: id, Source: src, Target: tgt}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Current Dataflow Graph",
		mcp.WithMIMEType("application/json"),
	), s.readGraph)

	s.mcpServer.AddResource(mcp.NewResource(MermaidURI, "Current Dataflow Graph (Mermaid)",
		mcp.WithMIMEType("text/plain"),
	), s.readMermaid)
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.ws.Graph())
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (s *Server) readMermaid(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      MermaidURI,
			MIMEType: "text/plain",
			Text:     graph.GenerateMermaid(s.ws.Graph(), nil),
		},
	}, nil
}
