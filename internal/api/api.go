package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/greensat/db"
	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/timerange"
)

// RecentLimit is how many rows /api/history returns when no range is given.
const RecentLimit = 100

type Server struct {
	db  *sql.DB
	loc *time.Location
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func NewServer(database *sql.DB, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	return &Server{db: database, loc: loc}
}

// Router returns the API routes without middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/data", s.handleData).Methods(http.MethodGet)
	r.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/limits", s.handleLimits).Methods(http.MethodGet)
	return r
}

// Handler wraps the router with CORS, compression, panic recovery and
// request logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	h = requestLogger(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
	)(h)
	h = handlers.CompressHandler(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}), handlers.PrintRecoveryStack(true))(h)
	return h
}

// HTTPServer builds the listener for port; the caller owns its lifecycle.
func (s *Server) HTTPServer(port int) *http.Server {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Info().Str("address", addr).Msg("Configured REST API server")
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	latest, err := db.GetLatest(s.db)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, http.StatusNotFound, "Empty")
			return
		}
		log.Error().Err(err).Msg("Failed to read latest measurement")
		s.writeError(w, http.StatusInternalServerError, "DB Error")
		return
	}
	s.writeJSON(w, http.StatusOK, latest)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	daily := q.Get("resolution") == "day" || q.Get("mode") == string(timerange.ModeYear)

	var (
		records []model.Measurement
		err     error
	)
	switch {
	case start == "" && end == "":
		records, err = db.GetRecent(s.db, RecentLimit)
	case start == "" || end == "":
		s.writeError(w, http.StatusBadRequest, "start and end must be given together")
		return
	default:
		from, perr := timerange.ParseWire(start, s.loc)
		if perr != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid start, expected YYYY-MM-DD HH:MM:SS")
			return
		}
		to, perr := timerange.ParseWire(end, s.loc)
		if perr != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid end, expected YYYY-MM-DD HH:MM:SS")
			return
		}
		if from.After(to) {
			s.writeError(w, http.StatusBadRequest, "start must not be after end")
			return
		}
		if daily {
			records, err = db.GetDailyAverages(s.db, start, end)
		} else {
			records, err = db.GetBetween(s.db, start, end)
		}
	}
	if err != nil {
		log.Error().Err(err).Str("start", start).Str("end", end).Bool("daily", daily).Msg("Failed to read history")
		s.writeError(w, http.StatusInternalServerError, "DB Error")
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := db.GetLimits(s.db)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read limits")
		s.writeError(w, http.StatusInternalServerError, "DB Error")
		return
	}
	s.writeJSON(w, http.StatusOK, limits)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, ErrorResponse{Error: message})
}

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)

		log.Debug().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", rec.status).
			Dur("duration", time.Since(started)).
			Msg("HTTP request")
	})
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error().Str("panic", fmt.Sprint(v...)).Msg("Recovered from handler panic")
}
