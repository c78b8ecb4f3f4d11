package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/annolex/internal/anno"
	"github.com/dgallion1/annolex/internal/engine"
	"github.com/dgallion1/annolex/internal/store"
)

func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	spans := session.Annotations()
	if spans == nil {
		spans = []anno.Span{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"annotations": spans})
}

func (s *Server) handleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Start int    `json:"start"`
		End   int    `json:"end"`
		Type  string `json:"type"`
		Force bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	span, err := session.Create(r.Context(), req.Start, req.End, req.Type, req.Force)
	if err != nil {
		var conflict *engine.OverlapConflictError
		var invalid *anno.InvalidSpanError
		switch {
		case errors.As(err, &conflict):
			// Not a failure: the caller decides whether to proceed
			// (resubmit with force) or abort.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]any{
				"error":     "annotation overlaps existing annotations",
				"conflicts": conflict.Conflicts,
			})
		case errors.As(err, &invalid):
			jsonError(w, invalid.Error(), http.StatusBadRequest)
		default:
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(span)
}

func (s *Server) handleBatchAnnotations(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Annotations []engine.Candidate `json:"annotations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Annotations) == 0 {
		jsonError(w, "at least one annotation is required", http.StatusBadRequest)
		return
	}

	accepted, skipped, err := session.CreateBatch(r.Context(), req.Annotations)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if accepted == nil {
		accepted = []anno.Span{}
	}
	if skipped == nil {
		skipped = []engine.SkippedCandidate{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"accepted": accepted,
		"skipped":  skipped,
	})
}

func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	annoID := chi.URLParam(r, "annoID")

	if err := session.Delete(r.Context(), annoID); err != nil {
		if errors.Is(err, anno.ErrNotFound) {
			jsonError(w, "annotation not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": annoID})
}

// session loads the annotation session for the docID route param,
// writing the error response itself on failure.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*engine.Session, bool) {
	docID := chi.URLParam(r, "docID")
	session, err := s.engine.Session(r.Context(), docID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
		} else {
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return session, true
}
