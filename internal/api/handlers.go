package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/voltseed/pkg/buildinfo"
	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
	"github.com/matzehuels/voltseed/pkg/estimate"
	pkgio "github.com/matzehuels/voltseed/pkg/io"
	"github.com/matzehuels/voltseed/pkg/network"
	"github.com/matzehuels/voltseed/pkg/pipeline"
	"github.com/matzehuels/voltseed/pkg/render"
)

const defaultListLimit = 20

// EstimateResponse is the body of a successful estimate or run lookup.
type EstimateResponse struct {
	RunID       string          `json:"run_id,omitempty"`
	NetworkHash string          `json:"network_hash"`
	Result      *estimate.Table `json:"result"`
	Stats       estimate.Stats  `json:"stats"`
	Warnings    []string        `json:"warnings"`
	Cached      bool            `json:"cached"`
}

// RunSummary is one entry of the run list.
type RunSummary struct {
	ID          string   `json:"id"`
	Network     string   `json:"network"`
	NetworkHash string   `json:"network_hash"`
	CreatedAt   string   `json:"created_at"`
	Buses       int      `json:"buses"`
	Unresolved  int      `json:"unresolved"`
	Warnings    []string `json:"warnings,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    voltErrors.Code `json:"code"`
	Message string          `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	fill, err := boolParam(r, "fill")
	if err != nil {
		s.respondError(w, err)
		return
	}
	refresh, err := boolParam(r, "refresh")
	if err != nil {
		s.respondError(w, err)
		return
	}

	net, err := s.readNetwork(w, r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), net, pipeline.Options{
		FillUnresolved: fill,
		Refresh:        refresh,
		Save:           s.runner.Store != nil,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := pkgio.CheckFinite(res.Table); err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, toResponse(res))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = string(pipeline.DefaultFormat)
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.respondError(w, voltErrors.Wrap(voltErrors.ErrCodeInvalidInput, err, "invalid format %q", format))
		return
	}
	voltages, err := boolParam(r, "voltages")
	if err != nil {
		s.respondError(w, err)
		return
	}

	net, err := s.readNetwork(w, r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	opts := pipeline.Options{Format: format, Voltages: voltages}
	res := &pipeline.Result{Network: net}
	if voltages {
		if res, err = s.runner.Execute(r.Context(), net, opts); err != nil {
			s.respondError(w, err)
			return
		}
	}

	out, err := s.runner.Render(r.Context(), res, opts)
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(render.Format(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runner.Store == nil {
		s.respondError(w, voltErrors.New(voltErrors.ErrCodeUnsupported, "no run store configured"))
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, voltErrors.New(voltErrors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.runner.Store.List(r.Context(), limit)
	if err != nil {
		s.respondError(w, err)
		return
	}
	out := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, RunSummary{
			ID:          run.ID,
			Network:     run.Network,
			NetworkHash: run.NetworkHash,
			CreatedAt:   run.CreatedAt.Format(time.RFC3339),
			Buses:       len(run.Buses),
			Unresolved:  run.Stats.Unresolved,
			Warnings:    run.Warnings,
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toResponse(res))
}

// readNetwork decodes and validates the posted network JSON.
func (s *Server) readNetwork(w http.ResponseWriter, r *http.Request) (*network.Network, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	return pkgio.ReadJSON(body)
}

func toResponse(res *pipeline.Result) EstimateResponse {
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return EstimateResponse{
		RunID:       res.RunID,
		NetworkHash: res.NetworkHash,
		Result:      res.Table,
		Stats:       res.Stats,
		Warnings:    warnings,
		Cached:      res.CacheInfo.EstimateHit,
	}
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, voltErrors.New(voltErrors.ErrCodeInvalidInput, "invalid %s parameter %q", name, v)
	}
	return b, nil
}

func contentType(f render.Format) string {
	switch f {
	case render.FormatSVG:
		return "image/svg+xml"
	case render.FormatPDF:
		return "application/pdf"
	case render.FormatPNG:
		return "image/png"
	}
	return "text/vnd.graphviz; charset=utf-8"
}

// statusFor maps an error code to an HTTP status.
func statusFor(code voltErrors.Code) int {
	switch code {
	case voltErrors.ErrCodeInvalidInput, voltErrors.ErrCodeInvalidNetwork,
		voltErrors.ErrCodeInvalidFormat, voltErrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case voltErrors.ErrCodeNotFound, voltErrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case voltErrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := voltErrors.GetCode(err)
	if code == "" {
		code = voltErrors.ErrCodeInternal
	}
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondJSON(w, status, ErrorResponse{Code: code, Message: voltErrors.UserMessage(err)})
}
