package apiserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/klubi/clerk/internal/dispatch"
	"github.com/klubi/clerk/internal/registry"
	"github.com/klubi/clerk/pkg/apis/v1alpha1"
)

// RequestIDHeader carries the id the dispatcher logs for each request.
const RequestIDHeader = "X-Request-ID"

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// requestID reuses the caller's X-Request-ID or assigns a new one, echoes it
// on the response and stores it in the request context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		s.logger.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.String("requestID", id))
		next.ServeHTTP(w, r.WithContext(dispatch.WithRequestID(r.Context(), id)))
	})
}

// writeJSON serialises data as JSON and writes it to the response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeError writes a JSON error envelope to the response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.backend.Status())
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.TextRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	s.writeJSON(w, http.StatusOK, s.backend.Resolve(req.Text))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.TextRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	cmd, res := s.backend.Run(r.Context(), req.Text)
	s.writeJSON(w, http.StatusOK, v1alpha1.RunResponse{Command: cmd, Result: res})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var cmd v1alpha1.ParsedCommand
	if !s.decode(w, r, &cmd) {
		return
	}
	if !cmd.Intent.Valid() {
		s.writeError(w, http.StatusBadRequest, "unknown intent: "+string(cmd.Intent))
		return
	}
	s.writeJSON(w, http.StatusOK, s.backend.Dispatch(r.Context(), cmd))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !req.Type.Valid() {
		s.writeError(w, http.StatusBadRequest, "unknown search type: "+string(req.Type))
		return
	}
	s.writeJSON(w, http.StatusOK, s.backend.WebSearch(r.Context(), req.Query, req.Type))
}

// ---------------------------------------------------------------------------
// Tools
// ---------------------------------------------------------------------------

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools := s.registry.All()

	if c := r.URL.Query().Get("category"); c != "" {
		cat, err := registry.ParseCategory(c)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tools = s.registry.ByCategory(cat)
	}
	if q := r.URL.Query().Get("search"); q != "" {
		matches := make(map[string]bool)
		for _, t := range s.registry.Search(q) {
			matches[t.Name] = true
		}
		filtered := tools[:0:0]
		for _, t := range tools {
			if matches[t.Name] {
				filtered = append(filtered, t)
			}
		}
		tools = filtered
	}

	s.writeJSON(w, http.StatusOK, tools)
}

func (s *Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	tool, ok := s.registry.Get(name)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]any{
			"error":       "tool not found: " + name,
			"suggestions": s.registry.Similar(name),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, tool)
}
