// Package handlers is the operator HTTP API over a running room.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/auth"
	"github.com/jason-s-yu/hbroom/internal/middleware"
	"github.com/jason-s-yu/hbroom/internal/rating"
	"github.com/jason-s-yu/hbroom/internal/recording"
	"github.com/jason-s-yu/hbroom/internal/room"
)

// maxStadiumSize bounds uploaded stadium files.
const maxStadiumSize = 8 << 20

// API serves the operator endpoints. Store, Recorder and Ratings are
// optional; their routes answer 503 without them.
type API struct {
	Room     room.Handle
	Signer   *auth.Signer
	Store    recording.Store
	Recorder *recording.Recorder
	Ratings  rating.Store
	Log      logrus.FieldLogger

	// AllowedOrigins enables CORS for browser dashboards.
	AllowedOrigins []string
}

type ctxKey struct{}

// Operator returns the token subject of an authenticated request.
func Operator(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	log := a.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(log))
	r.Use(chimw.Heartbeat("/ping"))
	if len(a.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.Get("/room", a.status)
		r.Get("/room/players", a.listPlayers)
		r.Get("/room/players/{id}", a.getPlayer)
		r.Post("/room/players/{id}/team", a.setTeam)
		r.Post("/room/players/{id}/admin", a.setAdmin)
		r.Post("/room/players/{id}/kick", a.kick)
		r.Post("/room/announce", a.announce)
		r.Put("/room/stadium", a.uploadStadium)
		r.Put("/room/stadium/default", a.defaultStadium)
		r.Post("/room/game/start", a.startGame)
		r.Post("/room/game/stop", a.stopGame)
		r.Post("/room/game/pause", a.pauseGame)
		r.Post("/room/recording/start", a.startRecording)
		r.Post("/room/recording/stop", a.stopRecording)

		r.Get("/recordings", a.listRecordings)
		r.Get("/recordings/{id}", a.downloadRecording)

		r.Get("/ratings", a.listRatings)
	})
	return r
}

func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		sub, err := a.Signer.Verify(token)
		if err != nil {
			writeError(w, http.StatusForbidden, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sub)))
	})
}

// commandStatus maps a mutator error onto a response.
func commandStatus(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, room.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "room is closed")
	case errors.Is(err, room.ErrBackpressure):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "room is busy")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
