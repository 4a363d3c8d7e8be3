package analysis

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/minrei/internal/contracts"
)

// ErrMultipleValuationDates rejects a snapshot that mixes valuation dates.
// 시뮬레이션은 단일 평가일 스냅샷을 전제로 한다.
var ErrMultipleValuationDates = errors.New("position snapshot contains multiple valuation dates")

// NotionalResult is the simulated portfolio notional over the lookback window.
type NotionalResult struct {
	Notional Series
	// MissingKeys lists position keys that had no price series and were
	// simulated as an all-NaN column. 호출자가 경고 여부를 판단한다.
	MissingKeys []contracts.ContractKey
}

// ExAntePortfolioNotional reconstructs the historical notional value of a
// static position snapshot against its historical prices: the aligned price
// matrix (t×n) multiplied by the delta-position vector (n×1).
//
// Seasonal 상품은 contract_month, 비시즌 상품은 forward_month 기준으로 각각
// 정렬한 뒤 같은 날짜 인덱스 위에서 합산한다.
// NOTE: 컨트랙트 롤은 반영하지 않는다. 롤 반영이 필요하면
// ExAntePortfolioPositions의 delta 모드를 사용할 것.
func ExAntePortfolioNotional(
	positions []contracts.Position,
	prices []contracts.PriceObservation,
	seasonal contracts.SeasonalIndex,
) (NotionalResult, error) {
	if err := checkSingleValuationDate(positions); err != nil {
		return NotionalResult{}, err
	}

	dates := dateIndex(prices)
	seasonalPos, forwardPos := partitionBySeason(positions, seasonal)

	total := make([]float64, len(dates))
	var missing []contracts.ContractKey
	for _, sub := range []positionSubset{
		{seasonalPos, true},
		{forwardPos, false},
	} {
		if len(sub.positions) == 0 || len(dates) == 0 {
			continue
		}
		al := alignSubset(sub.positions, prices, dates, sub.seasonal, valuePrice, fillForwardBackward)
		missing = append(missing, al.missing...)

		sizes := make([]float64, len(sub.positions))
		for i := range sub.positions {
			sizes[i] = sub.positions[i].DeltaPosition
		}

		var notional mat.VecDense
		notional.MulVec(al.data, mat.NewVecDense(len(sizes), sizes))
		for i := range total {
			total[i] += notional.AtVec(i)
		}
	}

	return NotionalResult{
		Notional:    Series{Dates: dates, Values: total},
		MissingKeys: missing,
	}, nil
}

type positionSubset struct {
	positions []contracts.Position
	seasonal  bool
}

// PnlPanel is a per-instrument contribution panel: one row per position,
// labeled by instrument + delivery month, one column per date.
type PnlPanel struct {
	Keys  []contracts.ContractKey `json:"keys"`
	Dates []time.Time             `json:"dates"`
	Data  *mat.Dense              `json:"-"` // n x t, nil when empty
	// MissingKeys lists alignment keys that had no price series.
	MissingKeys []contracts.ContractKey `json:"missing_keys,omitempty"`
}

// Row returns a copy of the contribution vector for row i.
func (p *PnlPanel) Row(i int) []float64 {
	out := make([]float64, len(p.Dates))
	if p.Data != nil {
		mat.Row(out, i, p.Data)
	}
	return out
}

// SumOverKeys collapses the panel to an aggregate per-date series.
func (p *PnlPanel) SumOverKeys() Series {
	values := make([]float64, len(p.Dates))
	if p.Data != nil {
		n, _ := p.Data.Dims()
		for i := 0; i < n; i++ {
			for j := range values {
				values[j] += p.Data.At(i, j)
			}
		}
	}
	return Series{Dates: append([]time.Time(nil), p.Dates...), Values: values}
}

// ColumnGross returns the sum of absolute values in column j — the gross
// market value when the panel carries prices.
func (p *PnlPanel) ColumnGross(j int) float64 {
	if p.Data == nil {
		return 0
	}
	var gross float64
	n, _ := p.Data.Dims()
	for i := 0; i < n; i++ {
		gross += math.Abs(p.Data.At(i, j))
	}
	return gross
}

// ColumnNet returns the signed sum of column j — the net market value when the
// panel carries prices.
func (p *PnlPanel) ColumnNet(j int) float64 {
	if p.Data == nil {
		return 0
	}
	var net float64
	n, _ := p.Data.Dims()
	for i := 0; i < n; i++ {
		net += p.Data.At(i, j)
	}
	return net
}

// ExAntePortfolioPositions simulates per-position historical P&L: the aligned
// return matrix (t×n), scaled column-wise by position size and transposed to an
// n×t panel. Seasonal and non-seasonal sub-panels are concatenated by row; the
// two subsets partition the snapshot, so rows never overlap.
//
// usePrices가 true면 델타 대신 채워진 가격을 사용한다. 레버리지 백테스트처럼
// 일중 변화가 아니라 달러 수준 자체가 필요한 경우다.
// NOTE: weight는 이미 포지션에 적용되어 있다고 가정한다.
func ExAntePortfolioPositions(
	positions []contracts.Position,
	prices []contracts.PriceObservation,
	seasonal contracts.SeasonalIndex,
	usePrices bool,
) (*PnlPanel, error) {
	if err := checkSingleValuationDate(positions); err != nil {
		return nil, err
	}

	dates := dateIndex(prices)
	panel := &PnlPanel{Dates: dates}
	if len(positions) == 0 || len(dates) == 0 {
		return panel, nil
	}

	value, fill := valuePriceDelta, fillZero
	if usePrices {
		value, fill = valuePrice, fillForwardBackward
	}

	seasonalPos, forwardPos := partitionBySeason(positions, seasonal)
	panel.Data = mat.NewDense(len(positions), len(dates), nil)

	row := 0
	for _, sub := range []positionSubset{
		{seasonalPos, true},
		{forwardPos, false},
	} {
		if len(sub.positions) == 0 {
			continue
		}
		al := alignSubset(sub.positions, prices, dates, sub.seasonal, value, fill)
		panel.MissingKeys = append(panel.MissingKeys, al.missing...)

		for i := range sub.positions {
			p := &sub.positions[i]
			// 패널 행 라벨은 정렬 방식과 무관하게 인도월 기준
			panel.Keys = append(panel.Keys, contracts.SeasonalKey(p.PxLocation, p.ResolvedContractMonth()))
			for j := range dates {
				panel.Data.Set(row, j, al.data.At(j, i)*p.DeltaPosition)
			}
			row++
		}
	}
	return panel, nil
}

// checkSingleValuationDate enforces the single-snapshot invariant before any
// matrix work happens.
func checkSingleValuationDate(positions []contracts.Position) error {
	if len(positions) == 0 {
		return nil
	}
	first := dateKey(positions[0].ValuationDate)
	for i := range positions[1:] {
		if !dateKey(positions[i+1].ValuationDate).Equal(first) {
			return ErrMultipleValuationDates
		}
	}
	return nil
}
