package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/minrei/internal/analysis"
	"github.com/wonny/minrei/internal/backtest"
	"github.com/wonny/minrei/pkg/logger"
)

// VarService runs portfolio simulations for the API surface.
type VarService interface {
	GeneratePnlVectors(ctx context.Context, req backtest.PnlVectorsRequest) (*backtest.PnlVectorsResult, error)
	RunGMVBacktest(ctx context.Context, req backtest.GMVReportRequest) (*backtest.GMVReport, error)
}

// VarHandler handles VaR simulation API endpoints
// ⭐ SSOT: 시뮬레이션 API 핸들러는 이 구조체에서만
type VarHandler struct {
	service VarService
	logger  *logger.Logger
}

// NewVarHandler creates a new VaR handler
func NewVarHandler(service VarService, log *logger.Logger) *VarHandler {
	return &VarHandler{
		service: service,
		logger:  log,
	}
}

// GetPnlVectors returns per-instrument simulated P&L vectors for a trader
// GET /api/var/pnl-vectors?trader=...&valuation_date=2026-08-14&lookback_days=400
func (h *VarHandler) GetPnlVectors(w http.ResponseWriter, r *http.Request) {
	trader := r.URL.Query().Get("trader")
	if trader == "" {
		respondError(w, http.StatusBadRequest, "trader is required")
		return
	}

	req := backtest.PnlVectorsRequest{Trader: trader}

	if raw := r.URL.Query().Get("valuation_date"); raw != "" {
		vd, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "valuation_date must be YYYY-MM-DD")
			return
		}
		req.ValuationDate = &vd
	}

	lookback, ok := parseLookback(w, r)
	if !ok {
		return
	}
	req.LookbackDays = lookback

	result, err := h.service.GeneratePnlVectors(r.Context(), req)
	if err != nil {
		h.respondSimulationError(w, r, err, "Failed to generate pnl vectors")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

// GetBacktest returns the GMV backtest report for a trader or the house book
// GET /api/var/backtest?trader=...&lookback_days=400&benchmark=SPY500-N
func (h *VarHandler) GetBacktest(w http.ResponseWriter, r *http.Request) {
	req := backtest.GMVReportRequest{
		Trader:    r.URL.Query().Get("trader"),
		Benchmark: r.URL.Query().Get("benchmark"),
	}

	lookback, ok := parseLookback(w, r)
	if !ok {
		return
	}
	req.LookbackDays = lookback

	report, err := h.service.RunGMVBacktest(r.Context(), req)
	if err != nil {
		h.respondSimulationError(w, r, err, "Failed to run backtest")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}

// respondSimulationError maps simulation errors onto HTTP status codes.
func (h *VarHandler) respondSimulationError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.logger.WithError(err).WithFields(map[string]interface{}{
		"path":  r.URL.Path,
		"query": r.URL.RawQuery,
	}).Error(msg)

	switch {
	case errors.Is(err, backtest.ErrNoPositions):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, analysis.ErrMultipleValuationDates),
		errors.Is(err, analysis.ErrDegenerateVariance),
		errors.Is(err, analysis.ErrZeroNetValue):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, msg)
	}
}

func parseLookback(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("lookback_days")
	if raw == "" {
		return 0, true
	}
	lookback, err := strconv.Atoi(raw)
	if err != nil || lookback < 0 {
		respondError(w, http.StatusBadRequest, "lookback_days must be a non-negative integer")
		return 0, false
	}
	return lookback, true
}
