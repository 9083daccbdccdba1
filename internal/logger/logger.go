package logger

import (
	"net/http"
	"os"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Init configures it once at startup.
var Log = logrus.New()

type appNameHook struct {
	appName string
}

func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *appNameHook) Fire(entry *logrus.Entry) error {
	entry.Data["app"] = h.appName
	return nil
}

// Init sets the output, level and formatter of Log.
func Init(appName, level string) {
	Log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		Log.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", level)
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Log.AddHook(&appNameHook{appName: appName})
}

// RequestLogger logs one line per request once the handler returns.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			entry := Log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": chimw.GetReqID(r.Context()),
			})
			switch {
			case ww.Status() >= 500:
				entry.Error("request failed")
			case ww.Status() >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request served")
			}
		}()
		next.ServeHTTP(ww, r)
	})
}
