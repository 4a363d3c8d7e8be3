package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/minrei/internal/contracts"
)

// logReturnEpsilon stabilizes ln(1+r) for simple returns sitting right at the
// representable edge of zero.
const logReturnEpsilon = 1e-9

// CalculateReturns computes price deltas, simple returns, and log returns per
// (px_location, contract_month) series, ordered by date. Pure function: the
// input slice is not modified.
//
// simple_return은 |price| 기준으로 계산한다. 베이시스/스프레드 상품의 부호
// 반전이 수익률 부호를 뒤집는 것을 막기 위함이다.
// log_return은 ln(1 + simple_return + ε). simple_return <= -1 이거나 정의되지
// 않으면 로그 인자가 0 이하가 되므로 해당 행은 결과에서 제외된다.
// 각 시리즈의 첫 관측치는 직전 값이 없어 함께 제외된다.
func CalculateReturns(observations []contracts.PriceObservation) []contracts.PriceObservation {
	if len(observations) == 0 {
		return nil
	}

	obs := make([]contracts.PriceObservation, len(observations))
	copy(obs, observations)
	sortBySeries(obs)

	out := make([]contracts.PriceObservation, 0, len(obs))
	for i := range obs {
		if i == 0 || obs[i].SeriesKey() != obs[i-1].SeriesKey() {
			continue // first print of a series has no prior
		}
		prev := obs[i-1]
		cur := obs[i]

		cur.PriceDelta = cur.Price - prev.Price
		cur.SimpleReturn = simpleReturn(prev.Price, cur.Price)
		cur.LogReturn = logReturn(cur.SimpleReturn)

		if math.IsNaN(cur.SimpleReturn) || math.IsNaN(cur.LogReturn) {
			continue
		}
		out = append(out, cur)
	}
	return out
}

// simpleReturn is the percentage change of absolute prices. NaN when the prior
// print is exactly zero.
func simpleReturn(prev, cur float64) float64 {
	p := math.Abs(prev)
	if p == 0 {
		return math.NaN()
	}
	return math.Abs(cur)/p - 1
}

// logReturn guards against a non-positive log argument.
func logReturn(simple float64) float64 {
	if math.IsNaN(simple) || simple <= -1 {
		return math.NaN()
	}
	return math.Log1p(simple + logReturnEpsilon)
}

// sortBySeries orders observations by (px_location, contract_month, px_date).
func sortBySeries(obs []contracts.PriceObservation) {
	sort.SliceStable(obs, func(i, j int) bool {
		a, b := &obs[i], &obs[j]
		if a.PxLocation != b.PxLocation {
			return a.PxLocation < b.PxLocation
		}
		if !a.ContractMonth.Equal(b.ContractMonth) {
			return a.ContractMonth.Before(b.ContractMonth)
		}
		return a.PxDate.Before(b.PxDate)
	})
}

// CleanPrices drops every date on which at least one instrument is missing a
// price, returning the cleaned slice and the number of rows removed.
// 일부 날짜에 구멍 난 패널을 통째로 정리할 때 사용하는 보조 루틴.
func CleanPrices(observations []contracts.PriceObservation) ([]contracts.PriceObservation, int) {
	bad := make(map[time.Time]struct{})
	for i := range observations {
		if math.IsNaN(observations[i].Price) {
			bad[dateKey(observations[i].PxDate)] = struct{}{}
		}
	}
	if len(bad) == 0 {
		return observations, 0
	}

	out := make([]contracts.PriceObservation, 0, len(observations))
	for i := range observations {
		if _, drop := bad[dateKey(observations[i].PxDate)]; drop {
			continue
		}
		out = append(out, observations[i])
	}
	return out, len(observations) - len(out)
}
