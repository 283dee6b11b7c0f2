package handlers

import (
	"net/http"

	"github.com/roastlab/roast-arena/internal/repository"
)

type SubjectHandler struct {
	subjects repository.SubjectRepository
}

func NewSubjectHandler(subjects repository.SubjectRepository) *SubjectHandler {
	return &SubjectHandler{subjects: subjects}
}

func (h *SubjectHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.subjects.GetAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load roster")
		return
	}
	respondJSON(w, http.StatusOK, subjects)
}
