package handlers

import (
	"net/http"

	"github.com/jason-s-yu/hbroom/internal/rating"
)

func (a *API) listRatings(w http.ResponseWriter, r *http.Request) {
	if a.Ratings == nil {
		writeError(w, http.StatusServiceUnavailable, "ratings are disabled")
		return
	}
	limit, ok := queryLimit(w, r, 20)
	if !ok {
		return
	}
	top, err := a.Ratings.Top(r.Context(), limit)
	if err != nil {
		a.logger(r).WithError(err).Error("list ratings")
		writeError(w, http.StatusInternalServerError, "could not list ratings")
		return
	}
	if top == nil {
		top = []rating.Rating{}
	}
	writeJSON(w, http.StatusOK, top)
}
