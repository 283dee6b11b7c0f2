package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/roastlab/roast-arena/internal/service"
)

type RoundHandler struct {
	lifecycle  *service.LifecycleService
	completion *service.CompletionService
	repos      *repository.Repositories
}

func NewRoundHandler(lifecycle *service.LifecycleService, completion *service.CompletionService, repos *repository.Repositories) *RoundHandler {
	return &RoundHandler{lifecycle: lifecycle, completion: completion, repos: repos}
}

// Get returns the authoritative global round state.
func (h *RoundHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.repos.RoundState.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read round state")
		return
	}
	if state == nil {
		state = &domain.GlobalRoundState{Phase: domain.RoundPhaseWaiting}
	}
	respondJSON(w, http.StatusOK, state)
}

// Tick runs one lifecycle controller pass. Idempotent; any number of
// concurrent callers are safe.
func (h *RoundHandler) Tick(w http.ResponseWriter, r *http.Request) {
	report, err := h.lifecycle.Tick(r.Context())
	if err != nil {
		// Partial progress still counts; report what happened.
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"report": report,
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

// Complete finalizes a live round. Tolerates duplicate and concurrent calls.
func (h *RoundHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	result, err := h.completion.Complete(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to complete round")
	default:
		respondJSON(w, http.StatusOK, result)
	}
}

// GetSession returns one session plus its message counts.
func (h *RoundHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.repos.Session.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	total, err := h.repos.Message.CountAll(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count messages")
		return
	}
	remaining, err := h.repos.Message.CountUnused(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count messages")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session":           session,
		"messageCount":      total,
		"remainingMessages": remaining,
	})
}
