// Package web serves the browser workflow: upload a catalog, review the
// detected prices, edit them, download the updated file.
package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/R0KG/price-updater/mutate"
	"github.com/R0KG/price-updater/observability"
	"github.com/R0KG/price-updater/plan"
	"github.com/R0KG/price-updater/session"
)

// DownloadName is the filename offered for the generated document.
const DownloadName = "Updated_Catalog.pdf"

// maxUploadBytes bounds the multipart body. Catalogs are tens of
// megabytes at most.
const maxUploadBytes = 64 << 20

// Config carries server construction options.
type Config struct {
	Font   mutate.Config
	Logger observability.Logger
}

// Server holds the open sessions. Each session is touched by one request
// at a time; the map itself is guarded for concurrent uploads.
type Server struct {
	mu       sync.Mutex
	sessions map[string]*session.Session

	fontCfg mutate.Config
	logger  observability.Logger
}

// NewServer builds a server with an empty session table.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Server{
		sessions: make(map[string]*session.Session),
		fontCfg:  cfg.Font,
		logger:   logger,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /markup", s.handleMarkup)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexData{Markup: session.DefaultMarkupPercent}); err != nil {
		s.logger.Error("render index", observability.Error("err", err))
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("catalog")
	if err != nil {
		http.Error(w, "upload a PDF catalog", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := session.Open(r.Context(), data, session.Config{Font: s.fontCfg, Logger: s.logger})
	if err != nil {
		if errors.Is(err, session.ErrMalformedDocument) {
			http.Error(w, "the uploaded file is not a readable PDF", http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	id, err := newSessionID()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("catalog uploaded",
		observability.String("session", id),
		observability.Int("prices", len(sess.Occurrences())))
	s.renderReview(w, id, sess, parseMarkup(r.FormValue("markup")))
}

// handleMarkup re-prices the table for a new markup percentage without
// re-uploading the document.
func (s *Server) handleMarkup(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("session")
	sess := s.lookup(id)
	if sess == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	s.renderReview(w, id, sess, parseMarkup(r.FormValue("markup")))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("session")
	sess := s.lookup(id)
	if sess == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows := make([]plan.EditRow, 0, len(sess.Occurrences()))
	for _, occ := range sess.Occurrences() {
		text := r.FormValue("text-" + occ.ID)
		if text == "" {
			text = occ.MatchedText
		}
		rows = append(rows, plan.EditRow{ID: occ.ID, NewText: text})
	}

	out, err := sess.Generate(r.Context(), rows)
	if err != nil {
		if errors.Is(err, session.ErrNoPrices) {
			http.Error(w, "no prices found in the uploaded catalog", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	if _, err := w.Write(out); err != nil {
		s.logger.Warn("write download", observability.Error("err", err))
	}
}

func (s *Server) renderReview(w http.ResponseWriter, id string, sess *session.Session, markup float64) {
	data := reviewData{
		Session: id,
		Markup:  markup,
		Rows:    sess.DefaultRows(markup),
		Summary: renderSummary(sess.Occurrences(), markup),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := reviewTemplate.Execute(w, data); err != nil {
		s.logger.Error("render review", observability.Error("err", err))
	}
}

func (s *Server) lookup(id string) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func parseMarkup(raw string) float64 {
	if raw == "" {
		return session.DefaultMarkupPercent
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return session.DefaultMarkupPercent
	}
	return v
}

func newSessionID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
