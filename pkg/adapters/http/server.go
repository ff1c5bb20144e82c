package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/internal/presentation/graph"
	"github.com/aretw0/weave/pkg/diagram"
	"github.com/aretw0/weave/pkg/domain"
	weavegraph "github.com/aretw0/weave/pkg/graph"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Workspace defines what the HTTP adapter needs from a weave workspace.
type Workspace interface {
	AddOperator(op domain.OperatorPredicate, point domain.Point) error
	DeleteOperator(operatorID string) error
	AddLink(link domain.OperatorLink) error
	DeleteLink(link domain.OperatorLink) error

	Connect(source, target diagram.End) (diagram.Edge, error)
	Repoint(edgeID string, side diagram.Side, to diagram.End) (diagram.Edge, error)
	RemoveCell(cellID string) error
	Move(operatorID string, to domain.Point) error

	Graph() domain.GraphSnapshot
	Diagram() weave.DiagramSnapshot
	Check() []weavegraph.Issue
	Subscribe(fn func(domain.Notification)) func()

	Reconcile(target domain.GraphSnapshot, positions map[string]domain.Point) (domain.GraphDiff, error)
}

var _ Workspace = (*weave.Workspace)(nil)

// Server exposes a workspace over HTTP and streams its notifications over SSE.
type Server struct {
	Workspace Workspace
	Streams   *StreamManager

	router      chi.Router
	logger      *slog.Logger
	gatherer    prometheus.Gatherer
	unsubscribe func()
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the gatherer's metrics on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New creates the server and starts relaying notifications to SSE clients.
func New(ws Workspace, opts ...Option) *Server {
	s := &Server{Workspace: ws}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.Streams = NewStreamManager(s.logger)
	s.unsubscribe = ws.Subscribe(s.relay)
	s.router = s.routes()
	return s
}

// Close stops relaying notifications.
func (s *Server) Close() {
	s.unsubscribe()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)

	r.Get("/graph", s.GetGraph)
	r.Put("/graph", s.PutGraph)
	r.Get("/graph/mermaid", s.GetMermaid)
	r.Get("/graph/issues", s.GetIssues)

	r.Post("/operators", s.AddOperator)
	r.Delete("/operators/{id}", s.DeleteOperator)
	r.Post("/links", s.AddLink)
	r.Delete("/links", s.DeleteLink)

	r.Route("/diagram", func(r chi.Router) {
		r.Get("/", s.GetDiagram)
		r.Post("/edges", s.Connect)
		r.Patch("/edges/{id}", s.Repoint)
		r.Delete("/cells/{id}", s.RemoveCell)
		r.Put("/elements/{id}/position", s.Move)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Queries --

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "weave-http",
		"version": weave.Version,
	})
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Workspace.Graph())
}

// ReconcileRequest is the body of PUT /graph.
type ReconcileRequest struct {
	Graph     domain.GraphSnapshot    `json:"graph"`
	Positions map[string]domain.Point `json:"positions,omitempty"`
}

// PutGraph handles the PUT /graph request: the workspace is reconciled with the
// body's graph and the applied difference is returned.
func (s *Server) PutGraph(w http.ResponseWriter, r *http.Request) {
	var body ReconcileRequest
	if !s.decode(w, r, &body) {
		return
	}
	diff, err := s.Workspace.Reconcile(body.Graph, body.Positions)
	if err != nil {
		s.writeError(w, "PutGraph", err)
		return
	}
	s.writeJSON(w, http.StatusOK, diff)
}

// GetMermaid handles the GET /graph/mermaid request.
// Operators involved in a structural issue are flagged.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	overlay := &graph.GraphOverlay{Selected: r.URL.Query().Get("selected")}
	for _, issue := range s.Workspace.Check() {
		overlay.Flagged = append(overlay.Flagged, issue.Operators...)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(s.Workspace.Graph(), overlay))
}

// GetIssues handles the GET /graph/issues request.
func (s *Server) GetIssues(w http.ResponseWriter, r *http.Request) {
	issues := s.Workspace.Check()
	if issues == nil {
		issues = []weavegraph.Issue{}
	}
	s.writeJSON(w, http.StatusOK, issues)
}

// GetDiagram handles the GET /diagram request.
func (s *Server) GetDiagram(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Workspace.Diagram())
}

// -- Programmatic mutations --

// AddOperator handles the POST /operators request.
func (s *Server) AddOperator(w http.ResponseWriter, r *http.Request) {
	var body domain.AddOperatorAction
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.Workspace.AddOperator(body.Operator, body.Point); err != nil {
		s.writeError(w, "AddOperator", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, body.Operator)
}

// DeleteOperator handles the DELETE /operators/{id} request.
func (s *Server) DeleteOperator(w http.ResponseWriter, r *http.Request) {
	if err := s.Workspace.DeleteOperator(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "DeleteOperator", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLink handles the POST /links request.
func (s *Server) AddLink(w http.ResponseWriter, r *http.Request) {
	var link domain.OperatorLink
	if !s.decode(w, r, &link) {
		return
	}
	if err := s.Workspace.AddLink(link); err != nil {
		s.writeError(w, "AddLink", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, link)
}

// DeleteLink handles the DELETE /links?source=op.port&target=op.port request.
func (s *Server) DeleteLink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source, err := domain.ParsePort(q.Get("source"))
	if err != nil {
		s.writeError(w, "DeleteLink", err)
		return
	}
	target, err := domain.ParsePort(q.Get("target"))
	if err != nil {
		s.writeError(w, "DeleteLink", err)
		return
	}
	if err := s.Workspace.DeleteLink(domain.OperatorLink{Source: source, Target: target}); err != nil {
		s.writeError(w, "DeleteLink", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Gestures --

// ConnectRequest is the body of POST /diagram/edges.
type ConnectRequest struct {
	Source diagram.End `json:"source"`
	Target diagram.End `json:"target"`
}

// RepointRequest is the body of PATCH /diagram/edges/{id}.
type RepointRequest struct {
	Side diagram.Side `json:"side"`
	To   diagram.End  `json:"to"`
}

// Connect handles the POST /diagram/edges request.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var body ConnectRequest
	if !s.decode(w, r, &body) {
		return
	}
	edge, err := s.Workspace.Connect(body.Source, body.Target)
	if err != nil {
		s.writeError(w, "Connect", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, edge)
}

// Repoint handles the PATCH /diagram/edges/{id} request.
func (s *Server) Repoint(w http.ResponseWriter, r *http.Request) {
	var body RepointRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Side != diagram.SideSource && body.Side != diagram.SideTarget {
		http.Error(w, fmt.Sprintf("invalid side %q", body.Side), http.StatusBadRequest)
		return
	}
	edge, err := s.Workspace.Repoint(chi.URLParam(r, "id"), body.Side, body.To)
	if err != nil {
		s.writeError(w, "Repoint", err)
		return
	}
	s.writeJSON(w, http.StatusOK, edge)
}

// RemoveCell handles the DELETE /diagram/cells/{id} request.
func (s *Server) RemoveCell(w http.ResponseWriter, r *http.Request) {
	if err := s.Workspace.RemoveCell(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "RemoveCell", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Move handles the PUT /diagram/elements/{id}/position request.
func (s *Server) Move(w http.ResponseWriter, r *http.Request) {
	var pt domain.Point
	if !s.decode(w, r, &pt) {
		return
	}
	if err := s.Workspace.Move(chi.URLParam(r, "id"), pt); err != nil {
		s.writeError(w, "Move", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}

// StatusOf maps a weave error to an HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateID), errors.Is(err, domain.ErrDuplicateLink):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOperator),
		errors.Is(err, domain.ErrInvalidLink),
		errors.Is(err, domain.ErrInvalidEdge),
		errors.Is(err, domain.ErrDanglingReference):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
	} else {
		s.logger.Debug(op+" rejected", "error", err, "status", status)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) relay(n domain.Notification) {
	bytes, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("SSE: notification encode failed", "error", err)
		return
	}
	s.Streams.Broadcast(string(n.Type), string(bytes))
}

// parseTypes reads the comma separated "types" filter of GET /events.
func parseTypes(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	types := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types[t] = true
		}
	}
	return types
}
