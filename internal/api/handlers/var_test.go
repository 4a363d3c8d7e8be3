package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/minrei/internal/backtest"
	"github.com/wonny/minrei/pkg/logger"
)

type stubVarService struct {
	pnlReq      backtest.PnlVectorsRequest
	pnlResult   *backtest.PnlVectorsResult
	pnlErr      error
	backtestReq backtest.GMVReportRequest
	report      *backtest.GMVReport
	reportErr   error
}

func (s *stubVarService) GeneratePnlVectors(_ context.Context, req backtest.PnlVectorsRequest) (*backtest.PnlVectorsResult, error) {
	s.pnlReq = req
	return s.pnlResult, s.pnlErr
}

func (s *stubVarService) RunGMVBacktest(_ context.Context, req backtest.GMVReportRequest) (*backtest.GMVReport, error) {
	s.backtestReq = req
	return s.report, s.reportErr
}

func TestGetPnlVectors_RequiresTrader(t *testing.T) {
	h := NewVarHandler(&stubVarService{}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetPnlVectors(rec, httptest.NewRequest("GET", "/api/var/pnl-vectors", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPnlVectors_ParsesQuery(t *testing.T) {
	svc := &stubVarService{pnlResult: &backtest.PnlVectorsResult{Trader: "J. Fish"}}
	h := NewVarHandler(svc, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetPnlVectors(rec, httptest.NewRequest("GET",
		"/api/var/pnl-vectors?trader=J.+Fish&valuation_date=2026-08-14&lookback_days=250", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "J. Fish", svc.pnlReq.Trader)
	assert.Equal(t, 250, svc.pnlReq.LookbackDays)
	require.NotNil(t, svc.pnlReq.ValuationDate)
	assert.Equal(t, "2026-08-14", svc.pnlReq.ValuationDate.Format("2006-01-02"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}

func TestGetPnlVectors_BadDate(t *testing.T) {
	h := NewVarHandler(&stubVarService{}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetPnlVectors(rec, httptest.NewRequest("GET",
		"/api/var/pnl-vectors?trader=x&valuation_date=14-08-2026", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPnlVectors_NoPositionsIs404(t *testing.T) {
	h := NewVarHandler(&stubVarService{pnlErr: backtest.ErrNoPositions}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetPnlVectors(rec, httptest.NewRequest("GET", "/api/var/pnl-vectors?trader=nobody", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBacktest_HouseBookByDefault(t *testing.T) {
	svc := &stubVarService{report: &backtest.GMVReport{RunID: "r1"}}
	h := NewVarHandler(svc, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetBacktest(rec, httptest.NewRequest("GET", "/api/var/backtest", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", svc.backtestReq.Trader)
}

func TestGetBacktest_BadLookback(t *testing.T) {
	h := NewVarHandler(&stubVarService{}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetBacktest(rec, httptest.NewRequest("GET", "/api/var/backtest?lookback_days=-5", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubRefs struct {
	traders []string
	groups  []string
	err     error
}

func (s *stubRefs) Traders(context.Context) ([]string, error) { return s.traders, s.err }
func (s *stubRefs) Groups(context.Context) ([]string, error)  { return s.groups, s.err }

func TestGetTraders(t *testing.T) {
	h := NewUtilsHandler(&stubRefs{traders: []string{"J. Fish", "K. Lee"}}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetTraders(rec, httptest.NewRequest("GET", "/api/utils/traders", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Count   int      `json:"count"`
			Traders []string `json:"traders"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Data.Count)
	assert.Equal(t, []string{"J. Fish", "K. Lee"}, body.Data.Traders)
}

func TestGetGroups_EmptyListNotNull(t *testing.T) {
	h := NewUtilsHandler(&stubRefs{}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetGroups(rec, httptest.NewRequest("GET", "/api/utils/groups", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"groups":[]`)
}
