package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/models"
	"github.com/jason-s-yu/hbroom/internal/room"
	"github.com/jason-s-yu/hbroom/internal/stadium"
)

type statusResponse struct {
	State     string         `json:"state"`
	Game      room.GameState `json:"game"`
	Link      string         `json:"link"`
	Players   int            `json:"players"`
	Scores    *models.Scores `json:"scores"`
	Recording bool           `json:"recording"`
}

func (a *API) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		State:     a.Room.State().String(),
		Game:      a.Room.GameState(),
		Link:      a.Room.Link(),
		Players:   len(a.Room.GetPlayerList()),
		Scores:    a.Room.GetScores(),
		Recording: a.Recorder != nil && a.Recorder.Active(),
	})
}

func (a *API) listPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Room.GetPlayerList())
}

func playerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return 0, false
	}
	return id, true
}

// existingPlayer resolves {id} and writes 404 when the player is not in the
// room.
func (a *API) existingPlayer(w http.ResponseWriter, r *http.Request) (*models.Player, bool) {
	id, ok := playerID(w, r)
	if !ok {
		return nil, false
	}
	p := a.Room.GetPlayer(id)
	if p == nil {
		writeError(w, http.StatusNotFound, "no such player")
		return nil, false
	}
	return p, true
}

func (a *API) getPlayer(w http.ResponseWriter, r *http.Request) {
	if p, ok := a.existingPlayer(w, r); ok {
		writeJSON(w, http.StatusOK, p)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad request payload")
		return false
	}
	return true
}

func (a *API) setTeam(w http.ResponseWriter, r *http.Request) {
	p, ok := a.existingPlayer(w, r)
	if !ok {
		return
	}
	var body struct {
		Team string `json:"team"`
	}
	if !decode(w, r, &body) {
		return
	}
	team, err := models.ParseTeam(strings.ToLower(body.Team))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	commandStatus(w, a.Room.SetPlayerTeam(p.ID, team))
}

func (a *API) setAdmin(w http.ResponseWriter, r *http.Request) {
	p, ok := a.existingPlayer(w, r)
	if !ok {
		return
	}
	var body struct {
		Admin bool `json:"admin"`
	}
	if !decode(w, r, &body) {
		return
	}
	commandStatus(w, a.Room.SetPlayerAdmin(p.ID, body.Admin))
}

func (a *API) kick(w http.ResponseWriter, r *http.Request) {
	p, ok := a.existingPlayer(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
		Ban    bool   `json:"ban"`
	}
	if !decode(w, r, &body) {
		return
	}
	a.logger(r).WithFields(logrus.Fields{"player": p.Name, "ban": body.Ban}).Info("kicking player")
	commandStatus(w, a.Room.KickPlayer(p.ID, body.Reason, body.Ban))
}

func (a *API) announce(w http.ResponseWriter, r *http.Request) {
	var ann room.Announcement
	if !decode(w, r, &ann) {
		return
	}
	if ann.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	commandStatus(w, a.Room.SendAnnouncement(ann))
}

type stadiumErrors struct {
	Error  string                   `json:"error"`
	Errors stadium.ValidationErrors `json:"errors"`
}

// uploadStadium accepts .hbs text, or YAML when the content type or the
// format query parameter says so. The stadium is validated locally first.
func (a *API) uploadStadium(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStadiumSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "stadium too large")
		return
	}

	parse := stadium.Parse
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") || r.URL.Query().Get("format") == "yaml" {
		parse = stadium.ParseYAML
	}
	st, err := parse(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := stadium.Validate(st, a.Room.CollisionFlags()); err != nil {
		var verrs stadium.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusUnprocessableEntity, stadiumErrors{Error: "invalid stadium", Errors: verrs})
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	a.logger(r).WithField("stadium", st.Name).Info("loading custom stadium")
	commandStatus(w, a.Room.SetCustomStadium(st))
}

func (a *API) defaultStadium(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}
	if !stadium.IsDefault(body.Name) {
		writeError(w, http.StatusBadRequest, "unknown default stadium")
		return
	}
	commandStatus(w, a.Room.SetDefaultStadium(body.Name))
}

func (a *API) startGame(w http.ResponseWriter, r *http.Request) {
	commandStatus(w, a.Room.StartGame())
}

func (a *API) stopGame(w http.ResponseWriter, r *http.Request) {
	commandStatus(w, a.Room.StopGame())
}

func (a *API) pauseGame(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Paused bool `json:"paused"`
	}{Paused: true}
	if r.ContentLength != 0 && !decode(w, r, &body) {
		return
	}
	commandStatus(w, a.Room.PauseGame(body.Paused))
}

func (a *API) logger(r *http.Request) logrus.FieldLogger {
	log := a.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return log.WithField("operator", Operator(r.Context()))
}
