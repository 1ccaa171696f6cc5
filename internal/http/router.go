package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"listing-intake-bot/internal/sheet"
)

// SheetReader looks up a sheet without creating it.
type SheetReader interface {
	Get(userID int64) (sheet.Sheet, bool)
}

// ReadinessChecker reports whether the process accepts traffic.
type ReadinessChecker interface {
	Ready() bool
}

type sheetResponse struct {
	UserID int64       `json:"userId"`
	Filled int         `json:"filled"`
	Total  int         `json:"total"`
	Fields sheet.Sheet `json:"fields"`
}

// NewRouter constructs the HTTP router for the bot's operational endpoints.
func NewRouter(readiness ReadinessChecker, sheets SheetReader, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !readiness.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Handle("/metrics", metrics)

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/sheets/{userID}", func(w http.ResponseWriter, r *http.Request) {
			userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
			if err != nil {
				http.Error(w, "invalid user id", http.StatusBadRequest)
				return
			}

			s, ok := sheets.Get(userID)
			if !ok {
				http.Error(w, "sheet not found", http.StatusNotFound)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(sheetResponse{
				UserID: userID,
				Filled: s.Filled(),
				Total:  s.Total(),
				Fields: s,
			})
		})
	})

	return r
}
