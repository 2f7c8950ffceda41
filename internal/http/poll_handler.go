package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/johnjomin/OneVote/internal/domain/poll"
	"github.com/johnjomin/OneVote/internal/platform/apperr"
)

type createPollRequest struct {
	Question              string   `json:"question"`
	Options               []string `json:"options"`
	ClosesAt              string   `json:"closesAt"`
	HideResultsUntilClose bool     `json:"hideResultsUntilClose"`
}

// @Summary     Create a poll
// @Tags        polls
// @Accept      json
// @Produce     json
// @Param       request  body      createPollRequest  true  "Poll definition"
// @Success     201      {object}  poll.Poll
// @Failure     400      {object}  errorEnvelope  "validation failure"
// @Router      /polls [post]
func (h *Handler) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	closesAt, err := time.Parse(time.RFC3339, req.ClosesAt)
	if err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "closesAt must be an ISO-8601 timestamp", err))
		return
	}

	p, err := h.pollSvc.Create(r.Context(), poll.CreateInput{
		Question:              req.Question,
		Options:               req.Options,
		ClosesAt:              closesAt,
		HideResultsUntilClose: req.HideResultsUntilClose,
	})
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// @Summary     List polls
// @Tags        polls
// @Produce     json
// @Success     200  {array}  poll.Poll
// @Router      /polls [get]
func (h *Handler) handleListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.pollSvc.List(r.Context())
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	if polls == nil {
		polls = []poll.Poll{}
	}
	writeJSON(w, http.StatusOK, polls)
}

// @Summary     Get a poll
// @Tags        polls
// @Produce     json
// @Param       id   path      string  true  "Poll ID"
// @Success     200  {object}  poll.Poll
// @Failure     404  {object}  errorEnvelope
// @Router      /polls/{id} [get]
func (h *Handler) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	p, err := h.pollSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
