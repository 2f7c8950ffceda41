package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/johnjomin/OneVote/internal/platform/apperr"
)

type voteRequest struct {
	OptionID string `json:"optionId"`
	VoterID  string `json:"voterId"`
}

// @Summary     Cast a vote
// @Tags        votes
// @Accept      json
// @Produce     json
// @Param       id       path      string       true  "Poll ID"
// @Param       request  body      voteRequest  true  "Vote payload"
// @Success     200      {object}  map[string]string
// @Failure     400      {object}  errorEnvelope  "invalid body"
// @Failure     404      {object}  errorEnvelope  "poll or option not found"
// @Failure     409      {object}  errorEnvelope  "already voted"
// @Failure     422      {object}  errorEnvelope  "poll closed"
// @Router      /polls/{id}/votes [post]
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	pollID := chi.URLParam(r, "id")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}
	if req.OptionID == "" {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "optionId is required", nil))
		return
	}
	if req.VoterID == "" {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "voterId is required", nil))
		return
	}

	if err := h.voteSvc.Cast(r.Context(), pollID, req.OptionID, req.VoterID); err != nil {
		errorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "vote recorded"})
}
