// Package web provides an HTTP status server for the dripbot daemon.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/sweeney/dripbot/internal/history"
	"github.com/sweeney/dripbot/internal/status"
)

// defaultHistory is how many announcements /history.json returns without ?n=.
const defaultHistory = 20

// maxHistory caps ?n= on /history.json.
const maxHistory = 500

// HistoryLister is the read side of the history store.
type HistoryLister interface {
	Recent(ctx context.Context, n int) ([]history.Entry, error)
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	history    HistoryLister
}

// New creates a Server that reads state from the given tracker. hist may be
// nil, in which case /history.json returns an empty list.
func New(addr string, tracker *status.Tracker, hist HistoryLister) *Server {
	s := &Server{tracker: tracker, history: hist}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/history.json", s.handleHistory)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	var recent []history.Entry
	if s.history != nil {
		var err error
		recent, err = s.history.Recent(r.Context(), 5)
		if err != nil {
			slog.Warn("history lookup for status page failed", "err", err)
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap, recent); err != nil {
		slog.Error("render status page", "err", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// HistoryJSON is the /history.json envelope.
type HistoryJSON struct {
	Announcements []history.Entry `json:"announcements"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := defaultHistory
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = min(v, maxHistory)
	}

	out := HistoryJSON{Announcements: []history.Entry{}}
	if s.history != nil {
		entries, err := s.history.Recent(r.Context(), n)
		if err != nil {
			slog.Error("history lookup failed", "err", err)
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		if entries != nil {
			out.Announcements = entries
		}
	}

	w.Header().Set("Content-Type", "application/json")
	data, _ := json.MarshalIndent(out, "", "  ")
	w.Write(data)
}
