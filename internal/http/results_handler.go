package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/johnjomin/OneVote/internal/results"
)

type hiddenResultsResponse struct {
	Hidden   bool   `json:"hidden"`
	ClosesAt string `json:"closesAt"`
}

// @Summary     Poll results
// @Tags        results
// @Produce     json
// @Param       id   path      string  true  "Poll ID"
// @Success     200  {object}  results.Snapshot  "or {hidden:true, closesAt} while results are hidden"
// @Failure     404  {object}  errorEnvelope
// @Router      /polls/{id}/results [get]
func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	resp, err := h.resultsSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resultsPayload(resp))
}

func resultsPayload(resp results.Response) any {
	if resp.Hidden {
		return hiddenResultsResponse{
			Hidden:   true,
			ClosesAt: resp.ClosesAt.UTC().Format(time.RFC3339),
		}
	}
	return resp.Snapshot
}
