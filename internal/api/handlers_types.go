package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgallion1/annolex/internal/document"
	"github.com/dgallion1/annolex/internal/store"
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (s *Server) handleListEntityTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListEntityTypes(r.Context())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if types == nil {
		types = []document.EntityType{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"entity_types": types})
}

func (s *Server) handleCreateEntityType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Color       string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Color != "" && !colorRe.MatchString(req.Color) {
		jsonError(w, "color must be a #rrggbb hex value", http.StatusBadRequest)
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Name
	}

	et := document.EntityType{
		ID:          uuid.NewString(),
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Color:       req.Color,
	}
	if err := s.store.CreateEntityType(r.Context(), et); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(et)
}

func (s *Server) handleUpdateEntityType(w http.ResponseWriter, r *http.Request) {
	typeID := chi.URLParam(r, "typeID")

	var req struct {
		DisplayName string `json:"display_name"`
		Color       string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Color != "" && !colorRe.MatchString(req.Color) {
		jsonError(w, "color must be a #rrggbb hex value", http.StatusBadRequest)
		return
	}

	et := document.EntityType{ID: typeID, DisplayName: req.DisplayName, Color: req.Color}
	if err := s.store.UpdateEntityType(r.Context(), et); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "entity type not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"updated": typeID})
}

func (s *Server) handleDeleteEntityType(w http.ResponseWriter, r *http.Request) {
	typeID := chi.URLParam(r, "typeID")
	if err := s.store.DeleteEntityType(r.Context(), typeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "entity type not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": typeID})
}
