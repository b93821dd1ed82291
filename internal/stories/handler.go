package stories

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ms-raffle/internal/logger"
	"ms-raffle/internal/utils"
)

// Handler exposes the story and newsletter collaborators through the
// service's router. Pure forwarding, no invariants of its own.
type Handler struct {
	Store  *Client
	Logger *logger.Logger
}

func NewHandler(store *Client, log *logger.Logger) *Handler {
	return &Handler{Store: store, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/stories", func(r chi.Router) {
		r.Get("/", h.ListStories)
		r.Post("/", h.CreateStory)
		r.Get("/{storyId}", h.GetStory)
		r.Put("/{storyId}", h.UpdateStory)
		r.Delete("/{storyId}", h.DeleteStory)
	})
	r.Post("/api/newsletter-subscribe", h.SubscribeNewsletter)
}

func (h *Handler) ListStories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.Store.List(r.Context(), r.URL.Query().Get("_sort"), r.URL.Query().Get("_order"))
	if err != nil {
		h.Logger.Error("STORIES", fmt.Sprintf("ListStories: %v", err))
		http.Error(w, "could not fetch stories: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, stories)
}

func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "storyId")
	story, err := h.Store.Get(r.Context(), storyID)
	if err != nil {
		h.Logger.Error("STORIES", fmt.Sprintf("GetStory %s: %v", storyID, err))
		http.Error(w, "story not found: "+err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, story)
}

func (h *Handler) CreateStory(w http.ResponseWriter, r *http.Request) {
	var story Story
	if err := json.NewDecoder(r.Body).Decode(&story); err != nil {
		http.Error(w, "invalid story body: "+err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.Store.Create(r.Context(), story)
	if err != nil {
		h.Logger.Error("STORIES", fmt.Sprintf("CreateStory: %v", err))
		http.Error(w, "could not create story: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) UpdateStory(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "storyId")

	var story Story
	if err := json.NewDecoder(r.Body).Decode(&story); err != nil {
		http.Error(w, "invalid story body: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.Store.Update(r.Context(), storyID, story)
	if err != nil {
		h.Logger.Error("STORIES", fmt.Sprintf("UpdateStory %s: %v", storyID, err))
		http.Error(w, "could not update story: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	storyID := chi.URLParam(r, "storyId")
	if err := h.Store.Delete(r.Context(), storyID); err != nil {
		h.Logger.Error("STORIES", fmt.Sprintf("DeleteStory %s: %v", storyID, err))
		http.Error(w, "could not delete story: "+err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SubscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !strings.Contains(req.Email, "@") {
		http.Error(w, "a valid email is required", http.StatusBadRequest)
		return
	}

	if err := h.Store.SubscribeNewsletter(r.Context(), req.Email); err != nil {
		h.Logger.Error("STORIES", fmt.Sprintf("SubscribeNewsletter: %v", err))
		http.Error(w, "could not subscribe: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("subscribed", nil))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
