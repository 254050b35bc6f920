// Package health serves the feed service's HTTP status routes.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"chatsync/internal/logging"
)

// Stats is implemented by the change feed hub.
type Stats interface {
	Subscribers() int
}

type HTTPServer struct {
	stats   Stats
	started time.Time
	log     zerolog.Logger
	router  *mux.Router
}

func NewHTTPServer(stats Stats, log zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		stats:   stats,
		started: time.Now(),
		log:     logging.Component(log, "health"),
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.HandleFunc("/stats", s.statsHandler).Methods(http.MethodGet)
	s.router = router
	return s
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type statsResponse struct {
	Subscribers   int    `json:"subscribers"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Started       string `json:"started"`
}

func (s *HTTPServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Subscribers:   s.stats.Subscribers(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Started:       s.started.UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn().Err(err).Msg("Error writing stats")
	}
}
