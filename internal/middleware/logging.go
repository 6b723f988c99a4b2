// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// LogMiddleware logs method, path, status and duration of each operator API
// request with logrus.
func LogMiddleware(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.WithFields(logrus.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    ww.Status(),
				"duration":  time.Since(start),
				"remote":    r.RemoteAddr,
				"requestID": chimw.GetReqID(r.Context()),
			}).Info("HTTP Request")
		})
	}
}

// LogBridgeConnect logs a successful dial to the headless bridge.
func LogBridgeConnect(logger logrus.FieldLogger, url string) {
	logger.WithField("bridge", url).Info("Bridge connected")
}

// LogBridgeDisconnect logs the end of a bridge connection; err is nil for a
// clean close.
func LogBridgeDisconnect(logger logrus.FieldLogger, url string, err error) {
	entry := logger.WithField("bridge", url)
	if err != nil {
		entry.WithError(err).Warn("Bridge disconnected")
		return
	}
	entry.Info("Bridge disconnected")
}
