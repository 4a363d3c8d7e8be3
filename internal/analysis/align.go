package analysis

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/minrei/internal/contracts"
)

// valueColumn selects which observation field feeds the pivot.
type valueColumn int

const (
	valuePrice valueColumn = iota
	valuePriceDelta
)

// fillMode controls how pivot gaps are treated.
// 가격: 마지막 관측 유지(ffill) 후 시리즈 시작 구간은 역방향 채움(bfill).
// 델타/수익률: 관측 없음 = 움직임 없음으로 보고 0.
type fillMode int

const (
	fillForwardBackward fillMode = iota
	fillZero
)

// alignment is a dense date × key matrix reindexed to a position subset's key
// order, plus the keys that had no matching price series at all.
type alignment struct {
	dates   []time.Time
	keys    []contracts.ContractKey
	data    *mat.Dense // len(dates) x len(keys); nil when either dim is empty
	missing []contracts.ContractKey
}

// partitionBySeason splits a position snapshot into the seasonal and
// non-seasonal subsets. Exhaustive and disjoint by construction.
func partitionBySeason(positions []contracts.Position, seasonal contracts.SeasonalIndex) (seasonalPos, forwardPos []contracts.Position) {
	for _, p := range positions {
		if seasonal.Contains(p.PxLocation) {
			seasonalPos = append(seasonalPos, p)
		} else {
			forwardPos = append(forwardPos, p)
		}
	}
	return seasonalPos, forwardPos
}

// alignSubset pivots the price panel on date × contract key for one position
// subset and reindexes the columns to exactly the subset's key order.
// Keys absent from the panel fall back to an all-NaN (price) or all-zero
// (delta) column and are reported via alignment.missing.
func alignSubset(
	subset []contracts.Position,
	prices []contracts.PriceObservation,
	dates []time.Time,
	isSeasonal bool,
	value valueColumn,
	fill fillMode,
) alignment {
	keys := make([]contracts.ContractKey, len(subset))
	for i := range subset {
		keys[i] = subset[i].Key(isSeasonal)
	}

	// pivot: 컬럼별 날짜→값. 중복 관측은 첫 값 유지 (업스트림에서 이미 dedupe).
	columns := make(map[contracts.ContractKey]map[time.Time]float64)
	for i := range prices {
		o := &prices[i]
		var key contracts.ContractKey
		if isSeasonal {
			key = o.SeriesKey()
		} else {
			key = o.ForwardSeriesKey()
		}
		col, ok := columns[key]
		if !ok {
			col = make(map[time.Time]float64)
			columns[key] = col
		}
		d := dateKey(o.PxDate)
		if _, dup := col[d]; dup {
			continue
		}
		switch value {
		case valuePrice:
			col[d] = o.Price
		case valuePriceDelta:
			col[d] = o.PriceDelta
		}
	}

	out := alignment{dates: dates, keys: keys}
	if len(dates) == 0 || len(keys) == 0 {
		return out
	}

	out.data = mat.NewDense(len(dates), len(keys), nil)
	for j, key := range keys {
		col, ok := columns[key]
		if !ok {
			out.missing = append(out.missing, key)
		}
		filled := fillColumn(dates, col, fill)
		for i, v := range filled {
			out.data.Set(i, j, v)
		}
	}
	return out
}

// fillColumn materializes one pivot column over the date index, applying the
// gap-filling policy.
func fillColumn(dates []time.Time, col map[time.Time]float64, fill fillMode) []float64 {
	out := make([]float64, len(dates))

	if fill == fillZero {
		for i, d := range dates {
			if v, ok := col[d]; ok {
				out[i] = v
			}
		}
		return out
	}

	// forward fill
	last := math.NaN()
	for i, d := range dates {
		if v, ok := col[d]; ok {
			last = v
		}
		out[i] = last
	}
	// backward fill the leading gap
	next := math.NaN()
	for i := len(out) - 1; i >= 0; i-- {
		if !math.IsNaN(out[i]) {
			next = out[i]
		} else {
			out[i] = next
		}
	}
	return out
}

// dateIndex returns the sorted unique observation dates of the price panel.
func dateIndex(prices []contracts.PriceObservation) []time.Time {
	seen := make(map[time.Time]struct{}, len(prices))
	for i := range prices {
		seen[dateKey(prices[i].PxDate)] = struct{}{}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// dateKey normalizes a timestamp to a UTC calendar date so it can serve as a
// map key regardless of wall-clock noise.
func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
