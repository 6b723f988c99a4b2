package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jason-s-yu/hbroom/internal/recording"
)

func (a *API) startRecording(w http.ResponseWriter, r *http.Request) {
	if a.Recorder != nil {
		commandStatus(w, a.Recorder.Start())
		return
	}
	commandStatus(w, a.Room.StartRecording())
}

// stopRecording answers 200 with the saved recording, or 204 when nothing
// was being recorded. Without a Recorder the raw blob is returned unsaved.
func (a *API) stopRecording(w http.ResponseWriter, r *http.Request) {
	if a.Recorder != nil {
		rec, err := a.Recorder.Stop(r.Context())
		if err != nil {
			commandStatus(w, err)
			return
		}
		if rec == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	blob, err := a.Room.StopRecording(r.Context())
	if err != nil {
		commandStatus(w, err)
		return
	}
	if blob == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeBlob(w, "recording.hbr2", blob)
}

func (a *API) listRecordings(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "no recording store configured")
		return
	}
	limit, ok := queryLimit(w, r, 50)
	if !ok {
		return
	}
	list, err := a.Store.List(r.Context(), limit)
	if err != nil {
		a.logger(r).WithError(err).Error("list recordings")
		writeError(w, http.StatusInternalServerError, "could not list recordings")
		return
	}
	if list == nil {
		list = []recording.Recording{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) downloadRecording(w http.ResponseWriter, r *http.Request) {
	if a.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "no recording store configured")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recording id")
		return
	}
	rec, err := a.Store.Get(r.Context(), id)
	if errors.Is(err, recording.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no such recording")
		return
	}
	if err != nil {
		a.logger(r).WithError(err).Error("get recording")
		writeError(w, http.StatusInternalServerError, "could not load recording")
		return
	}
	writeBlob(w, id.String()+".hbr2", rec.Data)
}

func writeBlob(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
