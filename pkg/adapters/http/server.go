package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/aretw0/genui"
	"github.com/aretw0/genui/internal/logging"
	"github.com/aretw0/genui/pkg/catalog"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/partialjson"
	"github.com/aretw0/genui/pkg/render"
)

//go:embed openapi.yaml
var openapiSpec []byte

// maxBody bounds request bodies; trees and prompts are small.
const maxBody = 1 << 20

// Service is the conversation API served over HTTP. *genui.Client
// implements it.
type Service interface {
	Create(ctx context.Context) (domain.Snapshot, error)
	Snapshot(ctx context.Context, id string) (domain.Snapshot, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, id string, fn func(domain.Snapshot)) (func(), error)
	SetContext(ctx context.Context, id string, uc domain.UserContext) error
	Submit(ctx context.Context, id, text string) error
	Dispatch(ctx context.Context, id string, action domain.Action) error
	Input(ctx context.Context, id, path, value string) error
	SetEditMode(ctx context.Context, id string, on bool) error
	Select(ctx context.Context, id, path string) error
	Refine(ctx context.Context, id, instruction string) error
	Render(ctx context.Context, id string) (*render.Element, error)
	Validate(raw any) (*domain.Node, error)
	Tools() []domain.Tool
}

var _ Service = (*genui.Client)(nil)

// Server serves a Service.
type Server struct {
	svc     Service
	streams *StreamManager
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithStreams shares a StreamManager, typically the one registered as the
// client's effect sink.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.streams = sm }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewHandler creates the HTTP handler. Requests to documented routes are
// validated against the embedded OpenAPI document first.
func NewHandler(svc Service, opts ...Option) (http.Handler, error) {
	s := &Server{svc: svc, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.streams == nil {
		s.streams = NewStreamManager(s.logger)
	}

	validate, err := requestValidator(openapiSpec, s.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(enableCORS, validate)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(openapiSpec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/catalog", s.getCatalog)
	r.Post("/validate", s.validateTree)
	r.Post("/repair", s.repairJSON)

	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", s.listConversations)
		r.Post("/", s.createConversation)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getConversation)
			r.Delete("/", s.deleteConversation)
			r.Put("/context", s.setContext)
			r.Post("/messages", s.submitMessage)
			r.Post("/actions", s.dispatchAction)
			r.Post("/input", s.recordInput)
			r.Put("/edit-mode", s.setEditMode)
			r.Put("/selection", s.selectNode)
			r.Post("/refine", s.refineSelection)
			r.Get("/view", s.renderView)
			r.Get("/events", s.subscribeEvents)
		})
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// conversationID binds the {id} path parameter.
func conversationID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	return id, err
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNoUITree), errors.Is(err, domain.ErrNothingSelected):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled):
		// client went away
		status = 499
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

// withConversation binds {id} and runs fn. On success the fresh snapshot
// is written with status.
func (s *Server) withConversation(w http.ResponseWriter, r *http.Request, status int, fn func(id string) error) {
	id, err := conversationID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := fn(id); err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := s.svc.Snapshot(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, status, snap)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "genui-http",
		"version": genui.Version,
	})
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	defs := catalog.Definitions()
	components := make([]map[string]string, 0, len(defs))
	for _, d := range defs {
		components = append(components, map[string]string{"name": string(d.Type), "summary": d.Summary})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"components": components,
		"tools":      s.svc.Tools(),
		"prompt":     catalog.PromptSpec(),
	})
}

func (s *Server) validateTree(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tree any `json:"tree"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	node, err := s.svc.Validate(body.Tree)
	if err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"valid": true, "node": node})
}

func (s *Server) repairJSON(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	repaired, ok := partialjson.Repair(body.Text)
	resp := map[string]any{"ok": ok}
	if ok {
		v, _ := partialjson.Parse(body.Text)
		resp["repaired"] = repaired
		resp["value"] = v
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"conversations": ids})
}

func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Create(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	s.withConversation(w, r, http.StatusOK, func(string) error { return nil })
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id, err := conversationID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setContext(w http.ResponseWriter, r *http.Request) {
	uc := domain.DefaultUserContext()
	if !s.decode(w, r, &uc) {
		return
	}
	s.withConversation(w, r, http.StatusOK, func(id string) error {
		return s.svc.SetContext(r.Context(), id, uc)
	})
}

// submitMessage runs the whole generation within the request. Clients that
// want the live tree subscribe to the events stream alongside.
func (s *Server) submitMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.withConversation(w, r, http.StatusOK, func(id string) error {
		return s.svc.Submit(r.Context(), id, body.Text)
	})
}

func (s *Server) dispatchAction(w http.ResponseWriter, r *http.Request) {
	var action domain.Action
	if !s.decode(w, r, &action) {
		return
	}
	s.withConversation(w, r, http.StatusOK, func(id string) error {
		return s.svc.Dispatch(r.Context(), id, action)
	})
}

func (s *Server) recordInput(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path  string `json:"path"`
		Value string `json:"value"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.withConversation(w, r, http.StatusAccepted, func(id string) error {
		// the commit outlives the request
		return s.svc.Input(context.WithoutCancel(r.Context()), id, body.Path, body.Value)
	})
}

func (s *Server) setEditMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.withConversation(w, r, http.StatusOK, func(id string) error {
		return s.svc.SetEditMode(r.Context(), id, body.Enabled)
	})
}

func (s *Server) selectNode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.withConversation(w, r, http.StatusOK, func(id string) error {
		return s.svc.Select(r.Context(), id, body.Path)
	})
}

func (s *Server) refineSelection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Instruction string `json:"instruction"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.withConversation(w, r, http.StatusOK, func(id string) error {
		return s.svc.Refine(r.Context(), id, body.Instruction)
	})
}

func (s *Server) renderView(w http.ResponseWriter, r *http.Request) {
	id, err := conversationID(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	// repairs started by this render outlive the request
	root, err := s.svc.Render(context.WithoutCancel(r.Context()), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, render.NewView(root))
}
