// Package server exposes built reports as JSON over HTTP.
package server

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"prodreport/internal/utils"
	"prodreport/pkg/calculator"
	"prodreport/pkg/models"
)

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Records  int    `json:"records"`
	Snapshot string `json:"snapshot"`
}

// Server answers report queries from an Engine. defaults seeds every request's
// ReportConfig before query parameters are applied.
type Server struct {
	engine   *calculator.Engine
	defaults models.ReportConfig
}

func New(engine *calculator.Engine, defaults models.ReportConfig) *Server {
	return &Server{engine: engine, defaults: defaults}
}

// Handle routes a request.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	defer func() {
		utils.Log.Debugf("%s %s -> %d (%s)", ctx.Method(), ctx.RequestURI(), ctx.Response.StatusCode(), time.Since(start))
	}()

	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch string(ctx.Path()) {
	case "/api/report":
		s.handleReport(ctx)
	case "/api/health":
		snap := s.engine.Snapshot()
		writeJSON(ctx, fasthttp.StatusOK, HealthResponse{Status: "ok", Records: len(snap.Records), Snapshot: snap.ID})
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleReport(ctx *fasthttp.RequestCtx) {
	cfg, err := ParseQuery(ctx.QueryArgs(), s.defaults)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	report, err := s.engine.Report(cfg)
	if err != nil {
		utils.Log.Errorf("build report: %v", err)
		writeError(ctx, fasthttp.StatusInternalServerError, "could not build report")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, report)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &fasthttp.Server{
		Handler:      s.Handle,
		Name:         "prodreport",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Log.Infof("report api listening on %s", addr)
		errCh <- srv.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		utils.Log.Infof("shutting down report api")
		if err := srv.Shutdown(); err != nil {
			return err
		}
		return <-errCh
	}
}

// ParseQuery applies the report query parameters on top of defaults.
// Filter values follow the Filter conventions: "all" or a year, "all" or a
// 0-based month, YYYY-MM-DD dates.
func ParseQuery(args *fasthttp.Args, defaults models.ReportConfig) (models.ReportConfig, error) {
	cfg := defaults
	cfg.Filter = models.AllFilter()
	cfg.HistoricalFilter = models.AllFilter()

	var err error
	if cfg.Filter.Year, err = yearParam(args, "year"); err != nil {
		return cfg, err
	}
	if cfg.Filter.Month, err = monthParam(args, "month"); err != nil {
		return cfg, err
	}
	if cfg.Filter.DateFrom, err = dateParam(args, "from"); err != nil {
		return cfg, err
	}
	if cfg.Filter.DateTo, err = dateParam(args, "to"); err != nil {
		return cfg, err
	}
	if c := string(args.Peek("client")); c != "" {
		cfg.Filter.Client = c
	}
	if cfg.HistoricalFilter.Year, err = yearParam(args, "histYear"); err != nil {
		return cfg, err
	}
	if cfg.HistoricalFilter.Month, err = monthParam(args, "histMonth"); err != nil {
		return cfg, err
	}
	if c := string(args.Peek("histClient")); c != "" {
		cfg.HistoricalFilter.Client = c
	}

	ints := []struct {
		name string
		dst  *int
		min  int
	}{
		{"top", &cfg.TopN, 1},
		{"months", &cfg.TrailingMonths, 1},
		{"yearA", &cfg.CompareYearA, 1},
		{"yearB", &cfg.CompareYearB, 1},
		{"analysisYear", &cfg.AnalysisYear, 1},
	}
	for _, p := range ints {
		if !args.Has(p.name) {
			continue
		}
		n, err := strconv.Atoi(string(args.Peek(p.name)))
		if err != nil || n < p.min {
			return cfg, fmt.Errorf("%s must be an integer >= %d", p.name, p.min)
		}
		*p.dst = n
	}

	if args.Has("anchor") {
		a, err := calculator.ParseAnchor(string(args.Peek("anchor")))
		if err != nil {
			return cfg, fmt.Errorf("anchor: %w", err)
		}
		cfg.Anchor = &a
	}
	if args.Has("includeZero") {
		b, err := strconv.ParseBool(string(args.Peek("includeZero")))
		if err != nil {
			return cfg, fmt.Errorf("includeZero must be a boolean")
		}
		cfg.IncludeZero = b
	}
	if l := string(args.Peek("locale")); l != "" {
		cfg.Locale = l
	}
	return cfg, nil
}

func yearParam(args *fasthttp.Args, name string) (string, error) {
	v := string(args.Peek(name))
	if err := calculator.CheckYear(v); err != nil {
		return "", fmt.Errorf("%s %w", name, err)
	}
	if v == "" {
		return models.All, nil
	}
	return v, nil
}

func monthParam(args *fasthttp.Args, name string) (string, error) {
	v := string(args.Peek(name))
	if err := calculator.CheckMonth(v); err != nil {
		return "", fmt.Errorf("%s %w", name, err)
	}
	if v == "" {
		return models.All, nil
	}
	return v, nil
}

func dateParam(args *fasthttp.Args, name string) (*time.Time, error) {
	v := string(args.Peek(name))
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a YYYY-MM-DD date", name)
	}
	return &d, nil
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		utils.Log.Errorf("encode response: %v", err)
		status = fasthttp.StatusInternalServerError
		body = []byte(`{"status":500,"message":"could not encode response"}`)
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, ErrorResponse{Status: status, Message: message})
}
