// Package viewer exposes the durable CSV over HTTP for live inspection
// while a crawl is running.
package viewer

import (
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/substackscout/substackscout/internal/metrics"
)

//go:embed viewer.html
var viewerPage []byte

// Server serves the embedded viewer page and the raw/parsed CSV endpoints.
// It holds no state beyond file paths: every request re-reads the durable
// store, so the page always reflects the crawl's latest append.
type Server struct {
	router   chi.Router
	csvPath  string
	skipPath string
	logger   *zap.Logger
}

// NewServer wires routes for the viewer. skipPath may point at a sidecar
// that does not exist; the endpoint then answers 404 until it appears.
func NewServer(csvPath, skipPath string, logger *zap.Logger) *Server {
	s := &Server{
		csvPath:  csvPath,
		skipPath: skipPath,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", s.page)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/csv", s.rawCSV(s.csvPath))
		r.Get("/skipped", s.rawCSV(s.skipPath))
		r.Get("/profiles", s.profiles)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) page(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(viewerPage); err != nil {
		s.logger.Warn("Viewer page write failed", zap.Error(err))
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// rawCSV serves the file verbatim. Cache suppression and the permissive
// origin header let the viewer page poll it from anywhere.
func (s *Server) rawCSV(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if path == "" {
			writeError(w, http.StatusNotFound, "not configured")
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				writeError(w, http.StatusNotFound, "file not found")
				return
			}
			s.logger.Error("CSV read failed", zap.String("path", path), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "read failed")
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if _, err := w.Write(data); err != nil {
			s.logger.Warn("CSV write failed", zap.Error(err))
		}
	}
}

// profiles parses the durable CSV into JSON objects keyed by header column.
func (s *Server) profiles(w http.ResponseWriter, _ *http.Request) {
	file, err := os.Open(s.csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		s.logger.Error("CSV open failed", zap.String("path", s.csvPath), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "read failed")
		return
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("parse failed: %v", err))
		return
	}
	if len(rows) == 0 {
		writeJSON(w, http.StatusOK, []map[string]string{})
		return
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
