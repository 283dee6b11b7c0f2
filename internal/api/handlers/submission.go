package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/service"
)

type SubmissionHandler struct {
	submissions *service.SubmissionService
}

func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

type submitRequest struct {
	SessionID *string `json:"sessionId,omitempty"`
	Text      string  `json:"text,omitempty"`
	Audio     string  `json:"audio,omitempty"` // base64
}

// Submit accepts an audience roast for the current open round.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" && req.Audio == "" {
		respondError(w, http.StatusBadRequest, "a roast needs text or audio")
		return
	}

	input := service.SubmitInput{Text: req.Text}
	if req.SessionID != nil {
		id, err := uuid.Parse(*req.SessionID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid session id")
			return
		}
		input.SessionID = &id
	}
	if req.Audio != "" {
		audio, err := base64.StdEncoding.DecodeString(req.Audio)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid audio encoding")
			return
		}
		input.Audio = audio
	}

	msg, err := h.submissions.Submit(r.Context(), input)
	switch {
	case errors.Is(err, domain.ErrSubmissionsClosed):
		respondError(w, http.StatusConflict, "submissions are closed for this round")
	case errors.Is(err, domain.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "no open round")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to submit roast")
	default:
		respondJSON(w, http.StatusCreated, msg)
	}
}
