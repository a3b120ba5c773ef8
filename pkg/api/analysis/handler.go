// Package analysis serves filing analysis, section extraction and saved
// reports over HTTP.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"financial_analyzer/pkg/core/edgar"
	"financial_analyzer/pkg/core/filing"
	"financial_analyzer/pkg/core/pipeline"
	"financial_analyzer/pkg/core/report"
	"financial_analyzer/pkg/logger"
)

// maxFilingBytes bounds POST /api/sections bodies.
const maxFilingBytes = 32 << 20

// Runner executes one analysis. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type Handler struct {
	Runner    Runner
	Reports   *report.Store
	Extractor *filing.Extractor
	log       *logger.Logger
}

func NewHandler(runner Runner, reports *report.Store, log *logger.Logger) *Handler {
	return &Handler{
		Runner:    runner,
		Reports:   reports,
		Extractor: filing.NewExtractor(nil),
		log:       logger.OrNop(log).With("service", "AnalysisAPI"),
	}
}

// Register mounts the analysis endpoints on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/analyze", h.HandleAnalyze)
	r.Post("/api/sections", h.HandleSections)
	r.Get("/api/reports", h.HandleListReports)
	r.Get("/api/reports/{name}", h.HandleGetReport)
}

// HandleAnalyze runs the pipeline for a JSON pipeline.Request.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	if req.PreferredForm == "" {
		req.PreferredForm = "10-K"
	}

	res, err := h.Runner.Run(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		h.log.Warn("analysis failed", "ticker", req.Ticker, "status", status, "error", err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func statusFor(err error) int {
	var se *edgar.StatusError
	switch {
	case errors.Is(err, pipeline.ErrTickerNotFound), errors.Is(err, pipeline.ErrFilingNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &se):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// HandleSections extracts section spans from a raw filing body. The document
// type comes from the "form" query parameter (default 10-K).
func (h *Handler) HandleSections(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFilingBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "filing body too large")
		return
	}
	form := r.URL.Query().Get("form")
	if form == "" {
		form = "10-K"
	}

	raw := string(body)
	text := filing.Normalize(raw)
	if strings.Contains(raw, "<") {
		text = filing.ToText(raw)
	}
	spans := h.Extractor.Extract(text, form)
	writeJSON(w, http.StatusOK, map[string]any{
		"form":     form,
		"sections": spans,
		"names":    spans.Names(),
	})
}

// HandleListReports lists saved reports, newest first.
func (h *Handler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	files, err := h.Reports.ListRecent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": files})
}

// HandleGetReport returns one saved report as markdown, or as HTML with
// ?format=html.
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	md, err := h.Reports.Read(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		page, err := report.RenderHTML(md)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, page)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, md)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
