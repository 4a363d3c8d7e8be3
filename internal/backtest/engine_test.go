package backtest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/minrei/internal/contracts"
	"github.com/wonny/minrei/pkg/config"
	"github.com/wonny/minrei/pkg/logger"
)

func day(n int) time.Time {
	return time.Date(2026, 3, n, 0, 0, 0, 0, time.UTC)
}

type stubPositions struct {
	byTrader map[string][]contracts.Position
	house    []contracts.Position
}

func (s *stubPositions) LatestByTrader(_ context.Context, traderName string) ([]contracts.Position, error) {
	return s.byTrader[traderName], nil
}

func (s *stubPositions) ByTraderAndDate(_ context.Context, traderName string, valuationDate time.Time) ([]contracts.Position, error) {
	var out []contracts.Position
	for _, p := range s.byTrader[traderName] {
		if p.ValuationDate.Equal(valuationDate) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPositions) House(_ context.Context) ([]contracts.Position, error) {
	return s.house, nil
}

type stubPrices struct {
	observations []contracts.PriceObservation
}

func (s *stubPrices) Historical(_ context.Context, locations []string, _ int) ([]contracts.PriceObservation, error) {
	want := make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		want[loc] = struct{}{}
	}
	var out []contracts.PriceObservation
	for _, o := range s.observations {
		if _, ok := want[o.PxLocation]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

type stubSeasonal struct {
	index contracts.SeasonalIndex
}

func (s *stubSeasonal) SeasonalIndex(_ context.Context) (contracts.SeasonalIndex, error) {
	return s.index, nil
}

func priceHistory(location string, forwardMonth int, prices ...float64) []contracts.PriceObservation {
	cm := day(1)
	out := make([]contracts.PriceObservation, len(prices))
	for i, p := range prices {
		out[i] = contracts.PriceObservation{
			PxLocation:    location,
			PxDate:        day(i + 1),
			ContractMonth: cm,
			ForwardMonth:  forwardMonth,
			Price:         p,
		}
	}
	return out
}

func testEngine(positions *stubPositions, prices *stubPrices) *Engine {
	return NewEngine(
		positions,
		prices,
		&stubSeasonal{index: contracts.NewSeasonalIndex([]string{"NG-HH"})},
		config.RiskConfig{DefaultLookbackDays: 400, BenchmarkIndex: "SPY500-N"},
		logger.Nop(),
	)
}

func TestGeneratePnlVectors(t *testing.T) {
	vd := day(9)
	positions := &stubPositions{byTrader: map[string][]contracts.Position{
		"J. Fish": {
			{ValuationDate: vd, TraderName: "J. Fish", PxLocation: "BRENT", ForwardMonth: 1, DeltaPosition: 5, Weight: 100},
		},
	}}
	prices := &stubPrices{observations: priceHistory("BRENT", 1, 100, 101, 103, 102, 105, 104, 106, 108)}

	result, err := testEngine(positions, prices).GeneratePnlVectors(context.Background(), PnlVectorsRequest{Trader: "J. Fish"})
	require.NoError(t, err)
	require.Len(t, result.Vectors, 1)
	assert.Empty(t, result.MissingKeys)

	v := result.Vectors[0]
	assert.Equal(t, "BRENT", v.PxLocation)
	assert.Equal(t, 5.0, v.DeltaPosition)
	// first observation per series has no return and is dropped
	require.Len(t, v.Pnl, 7)
	assert.InDeltaSlice(t, []float64{5, 10, -5, 15, -5, 10, 10}, v.Pnl, 1e-9)
}

func TestGeneratePnlVectors_MissingSeriesSimulatedFlat(t *testing.T) {
	vd := day(9)
	positions := &stubPositions{byTrader: map[string][]contracts.Position{
		"J. Fish": {
			{ValuationDate: vd, TraderName: "J. Fish", PxLocation: "BRENT", ForwardMonth: 1, DeltaPosition: 5, Weight: 100},
			{ValuationDate: vd, TraderName: "J. Fish", PxLocation: "GASOIL", ForwardMonth: 2, DeltaPosition: 3, Weight: 100},
		},
	}}
	prices := &stubPrices{observations: priceHistory("BRENT", 1, 100, 101, 103)}

	result, err := testEngine(positions, prices).GeneratePnlVectors(context.Background(), PnlVectorsRequest{Trader: "J. Fish"})
	require.NoError(t, err)
	require.Len(t, result.Vectors, 2)
	require.Len(t, result.MissingKeys, 1)
	assert.Equal(t, "GASOIL", result.MissingKeys[0].Location)

	for _, v := range result.Vectors {
		if v.PxLocation != "GASOIL" {
			continue
		}
		for _, pnl := range v.Pnl {
			assert.Zero(t, pnl)
		}
	}
}

func TestGeneratePnlVectors_NoPositions(t *testing.T) {
	engine := testEngine(&stubPositions{byTrader: map[string][]contracts.Position{}}, &stubPrices{})

	_, err := engine.GeneratePnlVectors(context.Background(), PnlVectorsRequest{Trader: "nobody"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPositions))
}

func TestRunGMVBacktest(t *testing.T) {
	vd := day(9)
	positions := &stubPositions{byTrader: map[string][]contracts.Position{
		"J. Fish": {
			{ValuationDate: vd, TraderName: "J. Fish", PxLocation: "BRENT", ForwardMonth: 1, DeltaPosition: 5, Weight: 100},
		},
	}}
	observations := priceHistory("BRENT", 1, 100, 101, 103, 102, 105, 104, 106, 108)
	observations = append(observations, priceHistory("SPY500-N", 1, 50, 51, 50.5, 52, 51, 53, 54, 55)...)
	prices := &stubPrices{observations: observations}

	report, err := testEngine(positions, prices).RunGMVBacktest(context.Background(), GMVReportRequest{Trader: "J. Fish"})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "SPY500-N", report.Benchmark)
	assert.Equal(t, vd, report.ValuationDate)

	// 가격 모드: 첫 관측치는 수익률 계산에서 탈락하므로 GMV는 2일차 가격 기준
	assert.InDelta(t, 5*101.0, report.StartingGMV, 1e-9)
	assert.InDelta(t, 5*108.0, report.EndingGMV, 1e-9)
	assert.InDelta(t, 5*108.0, report.EndingNMV, 1e-9)
	assert.InDelta(t, 1.0, report.Leverage, 1e-9)

	// daily P&L: {10,-5,15,-5,10,10} → 5% percentile = -5
	assert.InDelta(t, -5.0, report.VaR1Y, 1e-9)
	assert.InDelta(t, -5.0, report.VaR3M, 1e-9)

	// long-only book shifted by starting GMV: cumulative return is the ratio
	// of shifted endpoints
	wantReturn := (5*108.0 + 505) / (5*101.0 + 505)
	assert.InDelta(t, wantReturn, report.GMVReturn, 1e-9)
	assert.InDelta(t, wantReturn, report.LeveredReturn, 1e-9)

	assert.False(t, math.IsNaN(report.Beta))
	assert.InDelta(t, report.Beta, report.LeveredBeta, 1e-9)
	assert.GreaterOrEqual(t, report.R2, 0.0)
	assert.LessOrEqual(t, report.R2, 1.0)
	assert.Equal(t, 6, report.BetaObs)
}

func TestRunGMVBacktest_HouseBook(t *testing.T) {
	vd := day(9)
	positions := &stubPositions{house: []contracts.Position{
		{ValuationDate: vd, PxLocation: "BRENT", ForwardMonth: 1, DeltaPosition: 2, Weight: 100},
	}}
	observations := priceHistory("BRENT", 1, 100, 101, 103, 102, 105)
	observations = append(observations, priceHistory("SPY500-N", 1, 50, 51, 50.5, 52, 51)...)

	report, err := testEngine(positions, &stubPrices{observations: observations}).
		RunGMVBacktest(context.Background(), GMVReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, "", report.Trader)
	assert.InDelta(t, 2*101.0, report.StartingGMV, 1e-9)
}

func TestBenchmarkLogReturns_DeduplicatesByDate(t *testing.T) {
	obs := []contracts.PriceObservation{
		{PxDate: day(2), LogReturn: 0.01},
		{PxDate: day(2), LogReturn: 0.99},
		{PxDate: day(1), LogReturn: -0.02},
	}
	s := benchmarkLogReturns(obs)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, -0.02, s.Values[0])
	assert.Equal(t, 0.01, s.Values[1])
}

func TestBenchmarkLogReturns_KeysByCalendarDay(t *testing.T) {
	// 03-03 02:00 KST는 UTC로는 03-02 17:00이지만 캘린더 날짜는 03-03이다
	seoul := time.FixedZone("KST", 9*60*60)
	obs := []contracts.PriceObservation{
		{PxDate: day(3), LogReturn: 0.01},
		{PxDate: time.Date(2026, 3, 3, 2, 0, 0, 0, seoul), LogReturn: 0.99},
	}
	s := benchmarkLogReturns(obs)
	require.Equal(t, 1, s.Len())
	assert.True(t, s.Dates[0].Equal(day(3)))
	assert.Equal(t, 0.01, s.Values[0])
}

func TestUniqueLocations(t *testing.T) {
	positions := []contracts.Position{
		{PxLocation: "BRENT"}, {PxLocation: "GASOIL"}, {PxLocation: "BRENT"},
	}
	assert.Equal(t, []string{"BRENT", "GASOIL"}, uniqueLocations(positions))
}
