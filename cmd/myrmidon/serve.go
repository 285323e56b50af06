package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/banshee-data/myrmidon/internal/chrono"
	"github.com/banshee-data/myrmidon/internal/config"
	"github.com/banshee-data/myrmidon/internal/httputil"
	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/monitoring"
	"github.com/banshee-data/myrmidon/internal/report"
	"github.com/banshee-data/myrmidon/internal/security"
	"github.com/banshee-data/myrmidon/internal/store"
	"github.com/banshee-data/myrmidon/internal/tracking"
)

var serveLogf = monitoring.Component("serve")

// server exposes the recorded runs over HTTP.
type server struct {
	db         *store.DB
	runs       *store.RunStore
	cfg        *config.TuningConfig
	reportsDir string
}

func newServer(db *store.DB, cfg *config.TuningConfig, reportsDir string) *server {
	return &server{db: db, runs: store.NewRunStore(db), cfg: cfg, reportsDir: reportsDir}
}

// ServeMux returns the API routes plus the database admin routes.
func (s *server) ServeMux() (*http.ServeMux, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/run", s.showRun)
	mux.HandleFunc("/api/collisions", s.collisionCounts)
	mux.HandleFunc("/api/trajectory", s.trajectory)
	mux.HandleFunc("/api/interactions", s.interactions)
	mux.HandleFunc("/api/tagstats", s.tagStats)
	mux.HandleFunc("/charts/collisions", s.collisionChart)
	mux.HandleFunc("/reports/", s.reportFile)
	if err := s.db.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

func (s *server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	runs, err := s.runs.Runs(r.Context())
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

// runParam returns the run query parameter, writing a 400 when missing.
func runParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return "", false
	}
	runID := r.URL.Query().Get("run")
	if runID == "" {
		httputil.BadRequest(w, "missing run parameter")
		return "", false
	}
	return runID, true
}

func (s *server) showRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := runParam(w, r)
	if !ok {
		return
	}
	run, err := s.runs.Run(r.Context(), runID)
	if err != nil {
		httputil.WriteStoreError(w, err, store.ErrNotFound)
		return
	}
	httputil.WriteJSONOK(w, run)
}

// binParam reads the bin query parameter, defaulting to report_bin.
func (s *server) binParam(w http.ResponseWriter, r *http.Request) (chrono.Duration, bool) {
	raw := r.URL.Query().Get("bin")
	if raw == "" {
		return s.cfg.GetReportBin(), true
	}
	d, err := chrono.ParseDuration(raw)
	if err != nil || d <= 0 {
		httputil.BadRequest(w, fmt.Sprintf("invalid bin %q", raw))
		return 0, false
	}
	return d, true
}

func (s *server) collisionBins(w http.ResponseWriter, r *http.Request) (string, chrono.Duration, []store.CollisionBin, bool) {
	runID, ok := runParam(w, r)
	if !ok {
		return "", 0, nil, false
	}
	bin, ok := s.binParam(w, r)
	if !ok {
		return "", 0, nil, false
	}
	if _, err := s.runs.Run(r.Context(), runID); err != nil {
		httputil.WriteStoreError(w, err, store.ErrNotFound)
		return "", 0, nil, false
	}
	bins, err := s.runs.CollisionCounts(r.Context(), runID, bin)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return "", 0, nil, false
	}
	if bins == nil {
		bins = []store.CollisionBin{}
	}
	return runID, bin, bins, true
}

func (s *server) collisionCounts(w http.ResponseWriter, r *http.Request) {
	if _, _, bins, ok := s.collisionBins(w, r); ok {
		httputil.WriteJSONOK(w, bins)
	}
}

func (s *server) collisionChart(w http.ResponseWriter, r *http.Request) {
	runID, bin, bins, ok := s.collisionBins(w, r)
	if !ok {
		return
	}
	title := fmt.Sprintf("Run %s: collisions per %s", runID, bin)
	httputil.WriteHTML(w, func(out io.Writer) error { return report.CollisionChart(out, title, bins) })
}

func (s *server) trajectory(w http.ResponseWriter, r *http.Request) {
	runID, ok := runParam(w, r)
	if !ok {
		return
	}
	ant, err := strconv.ParseUint(r.URL.Query().Get("ant"), 10, 32)
	if err != nil || ant == 0 {
		httputil.BadRequest(w, "invalid ant parameter")
		return
	}
	if _, err := s.runs.Run(r.Context(), runID); err != nil {
		httputil.WriteStoreError(w, err, store.ErrNotFound)
		return
	}
	pts, err := s.runs.Trajectory(r.Context(), runID, identity.AntID(ant))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if pts == nil {
		pts = []store.TrajectoryPoint{}
	}
	httputil.WriteJSONOK(w, pts)
}

// knownRun returns the run query parameter of a request naming a
// recorded run, writing the error response otherwise.
func (s *server) knownRun(w http.ResponseWriter, r *http.Request) (string, bool) {
	runID, ok := runParam(w, r)
	if !ok {
		return "", false
	}
	if _, err := s.runs.Run(r.Context(), runID); err != nil {
		httputil.WriteStoreError(w, err, store.ErrNotFound)
		return "", false
	}
	return runID, true
}

func (s *server) interactions(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.knownRun(w, r)
	if !ok {
		return
	}
	list, err := s.runs.Interactions(r.Context(), runID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if list == nil {
		list = []tracking.Interaction{}
	}
	httputil.WriteJSONOK(w, list)
}

func (s *server) tagStats(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.knownRun(w, r)
	if !ok {
		return
	}
	list, err := s.runs.TagStatistics(r.Context(), runID)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if list == nil {
		list = []tracking.TagStatistics{}
	}
	httputil.WriteJSONOK(w, list)
}

// reportFile serves the files written by the report command.
func (s *server) reportFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	path, err := security.ResolveWithin(s.reportsDir, r.URL.Path[len("/reports/"):])
	if err != nil {
		httputil.NotFound(w, "no such report file")
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		httputil.NotFound(w, "no such report file")
		return
	}
	http.ServeFile(w, r, path)
}

func handleServe(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("serve")
	listen := fs.String("listen", ":8080", "Listen address")
	reportsDir := fs.String("reports", "reports", "Directory of rendered reports")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	db, err := e.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	mux, err := newServer(db, e.cfg, *reportsDir).ServeMux()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr: *listen,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			monitoring.Debugf("[serve] %s %s", r.Method, r.URL.Path)
			mux.ServeHTTP(w, r)
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		serveLogf("listening on %s", *listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	serveLogf("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveLogf("HTTP server shutdown error: %v", err)
		if err := srv.Close(); err != nil {
			serveLogf("HTTP server force close error: %v", err)
		}
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
