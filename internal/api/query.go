package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/course-rag/internal/rag"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query     string `json:"query" validate:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is returned by POST /api/query.
type QueryResponse struct {
	Answer    string `json:"answer"`
	Sources   []any  `json:"sources"`
	SessionID string `json:"session_id"`
}

// QueryHandler serves the query and course endpoints.
// It keeps no per-request state and never retries engine calls.
type QueryHandler struct {
	engine      rag.Engine
	validate    *validator.Validate
	maxBodySize int64
}

// NewQueryHandler creates a handler backed by engine.
func NewQueryHandler(engine rag.Engine) *QueryHandler {
	return &QueryHandler{
		engine:      engine,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		maxBodySize: defaultMaxRequestBodySize,
	}
}

// RegisterRoutes registers the API routes.
func (h *QueryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/query", h.Query)
		r.Get("/courses", h.Courses)
	})
}

// Query handles POST /api/query.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	req, status, err := h.decodeQuery(r.Body)
	if err != nil {
		Error(w, status, err.Error())
		return
	}

	ctx := r.Context()
	reqID := chiMiddleware.GetReqID(ctx)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID, err = h.engine.Sessions().CreateSession(ctx)
		if err != nil {
			slog.Error("Failed to create session", "error", err, "request_id", reqID)
			Error(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	answer, sources, err := h.engine.Query(ctx, req.Query, sessionID)
	if err != nil {
		slog.Error("Query failed", "error", err, "session_id", sessionID, "request_id", reqID)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sources == nil {
		sources = []any{}
	}

	slog.Info("Query answered",
		"session_id", sessionID,
		"query_length", len(req.Query),
		"sources", len(sources),
		"request_id", reqID,
	)
	JSON(w, http.StatusOK, QueryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

// Courses handles GET /api/courses.
func (h *QueryHandler) Courses(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.CourseAnalytics(r.Context())
	if err != nil {
		slog.Error("Course analytics failed", "error", err, "request_id", chiMiddleware.GetReqID(r.Context()))
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, stats.Normalized())
}

// decodeQuery parses and validates a query body, returning the HTTP status to
// use on failure. The body must hold exactly one JSON object.
func (h *QueryHandler) decodeQuery(body io.Reader) (QueryRequest, int, error) {
	var req QueryRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		status, err := decodeFailure(err)
		return req, status, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, http.StatusRequestEntityTooLarge, errors.New("request body too large")
		}
		return req, http.StatusUnprocessableEntity, errors.New("invalid JSON body")
	}

	if err := h.validate.Struct(req); err != nil {
		return req, http.StatusUnprocessableEntity, validationDetail(err)
	}
	return req, 0, nil
}

func decodeFailure(err error) (int, error) {
	var maxErr *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, errors.New("request body too large")
	case errors.Is(err, io.EOF):
		return http.StatusUnprocessableEntity, errors.New("request body is required")
	case errors.As(err, &typeErr) && typeErr.Field == "":
		return http.StatusUnprocessableEntity, errors.New("request body must be a JSON object")
	case errors.As(err, &typeErr):
		return http.StatusUnprocessableEntity, fmt.Errorf("%s: expected %s", typeErr.Field, typeErr.Type)
	default:
		return http.StatusUnprocessableEntity, errors.New("invalid JSON body")
	}
}

func validationDetail(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			parts = append(parts, field+" is required")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
