package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/annolex/internal/overlay"
	"github.com/dgallion1/annolex/internal/segment"
)

// handleOverlay returns the rendered overlay for a document: the
// highlight markup plus the segment sequence it was built from.
func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	rendered, segments, version, err := session.Overlay()
	if err != nil {
		jsonError(w, "render overlay: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if segments == nil {
		segments = []segment.Segment{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"html":     rendered,
		"segments": segments,
		"version":  version,
	})
}

// handleResolveSelection maps a selection made over the rendered
// overlay back to absolute offsets into the document text. Node paths
// are child-index paths relative to the overlay container, offsets
// are rune offsets within the addressed text node.
func (s *Server) handleResolveSelection(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		StartPath   []int `json:"start_path"`
		StartOffset int   `json:"start_offset"`
		EndPath     []int `json:"end_path"`
		EndOffset   int   `json:"end_offset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	start, end, err := session.ResolveSelection(req.StartPath, req.StartOffset, req.EndPath, req.EndOffset)
	if err != nil {
		var resErr *overlay.OffsetResolutionError
		if errors.As(err, &resErr) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Report the overlapping annotations so the client can warn
	// before saving.
	conflicts := session.OverlappingSpans(start, end)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"start":     start,
		"end":       end,
		"text":      session.TextSlice(start, end),
		"conflicts": conflicts,
	})
}
