package api

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/johnjomin/OneVote/internal/domain/poll"
	"github.com/johnjomin/OneVote/internal/domain/vote"
	"github.com/johnjomin/OneVote/internal/platform/apperr"
)

type errorEnvelope struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

func errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	appErr := mapError(err)
	writeJSON(w, appErr.StatusCode(), errorEnvelope{
		Status:    appErr.StatusCode(),
		Error:     appErr.Code,
		Message:   appErr.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	})
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, poll.ErrNotFound):
		return apperr.NotFound("poll_not_found", "poll not found", err)
	case errors.Is(err, vote.ErrOptionNotInPoll):
		return apperr.NotFound("option_not_found", "option does not belong to poll", err)
	case errors.Is(err, vote.ErrAlreadyVoted):
		return apperr.Conflict("already_voted", "voter already voted in this poll", err)
	case errors.Is(err, vote.ErrPollClosed):
		return apperr.Unprocessable("poll_closed", "poll is closed", err)
	case errors.Is(err, poll.ErrQuestionRequired),
		errors.Is(err, poll.ErrTooFewOptions),
		errors.Is(err, poll.ErrOptionText),
		errors.Is(err, poll.ErrDuplicateOption),
		errors.Is(err, poll.ErrClosesInPast):
		return apperr.BadRequest("validation_error", err.Error(), err)
	default:
		return apperr.Internal("internal_error", http.StatusText(http.StatusInternalServerError), err)
	}
}
