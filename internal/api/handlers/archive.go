package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/service"
)

type ArchiveHandler struct {
	archive *service.ArchiveService
}

func NewArchiveHandler(archive *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archive: archive}
}

func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	sessions, err := h.archive.ListArchived(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list archived rounds")
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

// Replay returns the deterministic cue sheet for an archived round.
func (h *ArchiveHandler) Replay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	cues, err := h.archive.Replay(r.Context(), id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to build replay")
		return
	}
	respondJSON(w, http.StatusOK, cues)
}
