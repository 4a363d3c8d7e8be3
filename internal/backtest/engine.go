package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/minrei/internal/analysis"
	"github.com/wonny/minrei/internal/contracts"
	"github.com/wonny/minrei/internal/metrics"
	"github.com/wonny/minrei/pkg/config"
	"github.com/wonny/minrei/pkg/logger"
)

// VaR tail windows, in trading days.
const (
	varTail1Y = 251
	varTail3M = 60

	varConfidence = 0.95
)

// ErrNoPositions marks a book that has no rows for the requested trader/date.
var ErrNoPositions = errors.New("no positions found for request")

// PositionSource provides position snapshots.
type PositionSource interface {
	LatestByTrader(ctx context.Context, traderName string) ([]contracts.Position, error)
	ByTraderAndDate(ctx context.Context, traderName string, valuationDate time.Time) ([]contracts.Position, error)
	House(ctx context.Context) ([]contracts.Position, error)
}

// PriceSource provides historical price windows.
type PriceSource interface {
	Historical(ctx context.Context, locations []string, lookbackDays int) ([]contracts.PriceObservation, error)
}

// SeasonalSource provides the seasonal commodity universe.
type SeasonalSource interface {
	SeasonalIndex(ctx context.Context) (contracts.SeasonalIndex, error)
}

// Engine runs historical portfolio simulations against market data sources.
// ⭐ SSOT: 시뮬레이션 오케스트레이션은 이 타입에서만 수행
type Engine struct {
	positions PositionSource
	prices    PriceSource
	seasonal  SeasonalSource
	cfg       config.RiskConfig
	log       *logger.Logger
}

// NewEngine wires an engine from its market data sources.
func NewEngine(
	positions PositionSource,
	prices PriceSource,
	seasonal SeasonalSource,
	cfg config.RiskConfig,
	log *logger.Logger,
) *Engine {
	return &Engine{
		positions: positions,
		prices:    prices,
		seasonal:  seasonal,
		cfg:       cfg,
		log:       log,
	}
}

// PnlVectorsRequest selects the book and window for a per-instrument P&L run.
type PnlVectorsRequest struct {
	Trader string `json:"trader"`
	// ValuationDate pins a historical snapshot. nil이면 최신 스냅샷.
	ValuationDate *time.Time `json:"valuation_date,omitempty"`
	// LookbackDays bounds the price window. 0이면 설정 기본값.
	LookbackDays int `json:"lookback_days,omitempty"`
}

// PnlVector is one position's simulated daily P&L over the lookback window.
type PnlVector struct {
	TraderName    string    `json:"trader_name"`
	PxLocation    string    `json:"px_location"`
	ContractMonth time.Time `json:"contract_month"`
	ForwardMonth  int       `json:"forward_month"`
	DeltaPosition float64   `json:"deltaposition"`

	Dates []time.Time `json:"dates"`
	Pnl   []float64   `json:"pnl"`
}

// PnlVectorsResult is the full per-instrument simulation output.
type PnlVectorsResult struct {
	Trader        string      `json:"trader"`
	ValuationDate time.Time   `json:"valuation_date"`
	LookbackDays  int         `json:"lookback_days"`
	Vectors       []PnlVector `json:"vectors"`
	// MissingKeys lists positions that had no matching price series and were
	// simulated as zero P&L.
	MissingKeys []contracts.ContractKey `json:"missing_keys,omitempty"`
}

// GeneratePnlVectors simulates each position's daily P&L: delta position held
// fixed, multiplied through the historical price-delta matrix.
func (e *Engine) GeneratePnlVectors(ctx context.Context, req PnlVectorsRequest) (result *PnlVectorsResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveSimulation("pnl_vectors", start, err) }()

	positions, err := e.loadPositions(ctx, req.Trader, req.ValuationDate)
	if err != nil {
		return nil, err
	}

	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = e.cfg.DefaultLookbackDays
	}

	prices, err := e.prices.Historical(ctx, uniqueLocations(positions), lookback)
	if err != nil {
		return nil, fmt.Errorf("load historical prices: %w", err)
	}
	seasonalIdx, err := e.seasonal.SeasonalIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seasonal index: %w", err)
	}

	returns := analysis.CalculateReturns(prices)
	panel, err := analysis.ExAntePortfolioPositions(positions, returns, seasonalIdx, false)
	if err != nil {
		return nil, fmt.Errorf("simulate position pnl: %w", err)
	}
	e.reportMissing("pnl_vectors", req.Trader, panel.MissingKeys)

	result = &PnlVectorsResult{
		Trader:        req.Trader,
		ValuationDate: positions[0].ValuationDate,
		LookbackDays:  lookback,
		Vectors:       joinVectors(positions, panel),
		MissingKeys:   panel.MissingKeys,
	}

	e.log.WithFields(map[string]interface{}{
		"trader":  req.Trader,
		"vectors": len(result.Vectors),
		"dates":   len(panel.Dates),
	}).Info("generated pnl vectors")
	return result, nil
}

// joinVectors maps panel rows back onto their source positions. Row labels are
// delivery-month keys; duplicate labels are consumed in row order, which matches
// the partition order of the panel.
func joinVectors(positions []contracts.Position, panel *analysis.PnlPanel) []PnlVector {
	byKey := make(map[contracts.ContractKey][]int, len(positions))
	for i := range positions {
		k := contracts.SeasonalKey(positions[i].PxLocation, positions[i].ResolvedContractMonth())
		byKey[k] = append(byKey[k], i)
	}

	vectors := make([]PnlVector, 0, len(panel.Keys))
	for row, key := range panel.Keys {
		idxs := byKey[key]
		if len(idxs) == 0 {
			continue
		}
		p := &positions[idxs[0]]
		byKey[key] = idxs[1:]

		vectors = append(vectors, PnlVector{
			TraderName:    p.TraderName,
			PxLocation:    p.PxLocation,
			ContractMonth: p.ResolvedContractMonth(),
			ForwardMonth:  p.ForwardMonth,
			DeltaPosition: p.DeltaPosition,
			Dates:         panel.Dates,
			Pnl:           panel.Row(row),
		})
	}
	return vectors
}

// GMVReportRequest selects the book for a gross-market-value backtest.
type GMVReportRequest struct {
	// Trader selects one book; empty runs the aggregated house book.
	Trader string `json:"trader,omitempty"`
	// LookbackDays bounds the price window. 0이면 설정 기본값.
	LookbackDays int `json:"lookback_days,omitempty"`
	// Benchmark overrides the configured beta benchmark instrument.
	Benchmark string `json:"benchmark,omitempty"`
}

// GMVReport is the leverage / VaR / beta summary of one backtest run.
type GMVReport struct {
	RunID       string    `json:"run_id"`
	Trader      string    `json:"trader"`
	Benchmark   string    `json:"benchmark"`
	GeneratedAt time.Time `json:"generated_at"`

	ValuationDate time.Time `json:"valuation_date"`
	LookbackDays  int       `json:"lookback_days"`
	Observations  int       `json:"observations"`

	VaR1Y float64 `json:"var_1y"`
	VaR3M float64 `json:"var_3m"`

	StartingGMV float64 `json:"starting_gmv"`
	EndingGMV   float64 `json:"ending_gmv"`
	EndingNMV   float64 `json:"ending_nmv"`
	Leverage    float64 `json:"leverage"`

	Beta        float64 `json:"beta"`
	R2          float64 `json:"r2"`
	PValue      float64 `json:"p_value"`
	BetaObs     int     `json:"beta_obs"`
	LeveredBeta float64 `json:"levered_beta"`

	GMVReturn     float64 `json:"gmv_return"`
	LeveredReturn float64 `json:"levered_return"`

	// Reconstructed is the cumulative growth series rebuilt from the
	// portfolio log returns, starting at 1.0.
	Reconstructed analysis.Series `json:"reconstructed"`

	MissingKeys []contracts.ContractKey `json:"missing_keys,omitempty"`
}

// RunGMVBacktest reconstructs the book's historical market value in price mode,
// then derives VaR, leverage, benchmark beta and the levered return.
func (e *Engine) RunGMVBacktest(ctx context.Context, req GMVReportRequest) (report *GMVReport, err error) {
	start := time.Now()
	defer func() { metrics.ObserveSimulation("gmv_backtest", start, err) }()

	positions, err := e.loadPositions(ctx, req.Trader, nil)
	if err != nil {
		return nil, err
	}

	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = e.cfg.DefaultLookbackDays
	}
	benchmark := req.Benchmark
	if benchmark == "" {
		benchmark = e.cfg.BenchmarkIndex
	}

	benchPrices, err := e.prices.Historical(ctx, []string{benchmark}, lookback)
	if err != nil {
		return nil, fmt.Errorf("load benchmark prices: %w", err)
	}
	benchReturns := benchmarkLogReturns(analysis.CalculateReturns(benchPrices))

	prices, err := e.prices.Historical(ctx, uniqueLocations(positions), lookback)
	if err != nil {
		return nil, fmt.Errorf("load historical prices: %w", err)
	}
	seasonalIdx, err := e.seasonal.SeasonalIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seasonal index: %w", err)
	}

	// Price mode: the panel carries filled dollar exposure levels, not daily
	// deltas. 갭은 ffill→bfill로 메꾼다.
	returns := analysis.CalculateReturns(prices)
	panel, err := analysis.ExAntePortfolioPositions(positions, returns, seasonalIdx, true)
	if err != nil {
		return nil, fmt.Errorf("simulate exposure panel: %w", err)
	}
	e.reportMissing("gmv_backtest", req.Trader, panel.MissingKeys)
	if len(panel.Dates) == 0 {
		return nil, errors.New("no overlapping price history for book")
	}

	portfolio := panel.SumOverKeys()
	last := len(panel.Dates) - 1

	leverage, err := analysis.LeverageRatio(panel)
	if err != nil {
		return nil, fmt.Errorf("leverage: %w", err)
	}

	startingGMV := panel.ColumnGross(0)
	logReturns := analysis.PortfolioLogReturns(portfolio.AddScalar(startingGMV))
	reconstructed := analysis.CumulativeFromLogReturns(logReturns)

	beta, err := analysis.CalculateBeta(benchReturns, logReturns, lookback)
	if err != nil {
		return nil, fmt.Errorf("beta vs %s: %w", benchmark, err)
	}

	diffs := portfolio.Diff().Values
	gmvReturn := reconstructed.Last()

	report = &GMVReport{
		RunID:       uuid.NewString(),
		Trader:      req.Trader,
		Benchmark:   benchmark,
		GeneratedAt: time.Now().UTC(),

		ValuationDate: positions[0].ValuationDate,
		LookbackDays:  lookback,
		Observations:  portfolio.Len(),

		VaR1Y: analysis.VaR(diffs, varTail1Y, varConfidence),
		VaR3M: analysis.VaR(diffs, varTail3M, varConfidence),

		StartingGMV: startingGMV,
		EndingGMV:   panel.ColumnGross(last),
		EndingNMV:   panel.ColumnNet(last),
		Leverage:    leverage,

		Beta:        beta.Beta,
		R2:          beta.R2,
		PValue:      beta.PValue,
		BetaObs:     beta.N,
		LeveredBeta: beta.Beta * leverage,

		GMVReturn:     gmvReturn,
		LeveredReturn: 1 + (gmvReturn-1)*leverage,

		Reconstructed: reconstructed,
		MissingKeys:   panel.MissingKeys,
	}

	e.log.WithFields(map[string]interface{}{
		"run_id":   report.RunID,
		"trader":   displayTrader(req.Trader),
		"var_1y":   report.VaR1Y,
		"leverage": report.Leverage,
		"beta":     report.Beta,
	}).Info("gmv backtest complete")
	return report, nil
}

// loadPositions resolves the book: a named trader (latest or pinned snapshot)
// or, for an empty trader, the aggregated house book.
func (e *Engine) loadPositions(ctx context.Context, trader string, valuationDate *time.Time) ([]contracts.Position, error) {
	var (
		positions []contracts.Position
		err       error
	)
	switch {
	case trader == "":
		positions, err = e.positions.House(ctx)
	case valuationDate != nil:
		positions, err = e.positions.ByTraderAndDate(ctx, trader, *valuationDate)
	default:
		positions, err = e.positions.LatestByTrader(ctx, trader)
	}
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: trader=%q", ErrNoPositions, displayTrader(trader))
	}
	return positions, nil
}

func (e *Engine) reportMissing(kind, trader string, missing []contracts.ContractKey) {
	if len(missing) == 0 {
		return
	}
	metrics.MissingPriceKeys.WithLabelValues(kind).Add(float64(len(missing)))
	keys := make([]string, len(missing))
	for i, k := range missing {
		keys[i] = k.String()
	}
	e.log.WithFields(map[string]interface{}{
		"trader": displayTrader(trader),
		"keys":   keys,
	}).Warn("positions without price history, simulated flat")
}

// benchmarkLogReturns flattens benchmark return observations into a single
// date-indexed series. 같은 날짜에 여러 만기가 있으면 첫 행만 사용한다.
func benchmarkLogReturns(observations []contracts.PriceObservation) analysis.Series {
	byDate := make(map[time.Time]float64, len(observations))
	dates := make([]time.Time, 0, len(observations))
	for i := range observations {
		d := calendarDay(observations[i].PxDate)
		if _, ok := byDate[d]; ok {
			continue
		}
		byDate[d] = observations[i].LogReturn
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := analysis.Series{Dates: dates, Values: make([]float64, len(dates))}
	for i, d := range dates {
		out.Values[i] = byDate[d]
	}
	return out
}

// calendarDay keys a timestamp by its calendar date, wall-clock and zone
// offset ignored.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func uniqueLocations(positions []contracts.Position) []string {
	seen := make(map[string]struct{}, len(positions))
	var locations []string
	for i := range positions {
		loc := positions[i].PxLocation
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	return locations
}

func displayTrader(trader string) string {
	if trader == "" {
		return "house"
	}
	return trader
}
