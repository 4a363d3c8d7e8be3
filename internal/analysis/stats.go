package analysis

import (
	"errors"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerateVariance marks a benchmark whose return variance is zero: beta
// is undefined and must not leak downstream as NaN or Inf.
var ErrDegenerateVariance = errors.New("benchmark return variance is zero, beta undefined")

// ErrZeroNetValue marks a book whose ending net market value is exactly zero,
// leaving the leverage ratio undefined.
var ErrZeroNetValue = errors.New("ending net market value is zero, leverage undefined")

// PortfolioLogReturns converts a notional series into log returns with an
// explicit long/short/crossing policy.
//
//   - 전 구간 양수(롱): ln(1 + pct_change)
//   - 전 구간 음수(숏): ln(1 - pct_change(|v|))
//   - 0을 가로지르는 경우(롱/숏 혼재, 델타 중립 근처): 시리즈를 -2·min 만큼
//     이동시킨 뒤 pct_change. 0 근처 분모를 피하기 위한 정책이며 일반적인
//     로그 수익률 공식이 아니다. -2·min이라는 이동 폭의 수치적 근거는 도메인
//     검토 대상 — 호환성을 위해 기존 공식을 그대로 유지한다.
//
// The first observation has no prior value and is dropped.
func PortfolioLogReturns(notional Series) Series {
	if notional.Len() < 2 {
		return Series{}
	}

	out := Series{
		Dates:  append([]time.Time(nil), notional.Dates[1:]...),
		Values: make([]float64, notional.Len()-1),
	}

	switch {
	case notional.Min() > 0: // long
		for i := 1; i < notional.Len(); i++ {
			out.Values[i-1] = math.Log(1 + pctChange(notional.Values[i-1], notional.Values[i]))
		}
	case notional.Max() < 0: // short
		for i := 1; i < notional.Len(); i++ {
			out.Values[i-1] = math.Log(1 - pctChange(math.Abs(notional.Values[i-1]), math.Abs(notional.Values[i])))
		}
	default:
		shift := -2 * notional.Min()
		for i := 1; i < notional.Len(); i++ {
			out.Values[i-1] = math.Log(1 + pctChange(notional.Values[i-1]+shift, notional.Values[i]+shift))
		}
	}
	return out
}

func pctChange(prev, cur float64) float64 {
	return cur/prev - 1
}

// VaR computes historical-simulation Value-at-Risk from a return history
// assumed sorted by date: the most recent tail observations, sorted ascending.
//
// (confidence=0.95, tail=251)의 정식 케이스는 고정 보간 규칙
// 0.9·s[12] + 0.1·s[13]을 사용한다. 사내 historical-simulation 관행에 맞춘
// 핀 규칙이므로 바꾸지 말 것. 그 외 조합은 (1-confidence)·100 백분위수의
// 선형 보간으로 계산한다.
func VaR(returnHistory []float64, tail int, confidenceLevel float64) float64 {
	if len(returnHistory) == 0 {
		return math.NaN()
	}
	if tail > 0 && len(returnHistory) > tail {
		returnHistory = returnHistory[len(returnHistory)-tail:]
	}

	sorted := make([]float64, len(returnHistory))
	copy(sorted, returnHistory)
	sort.Float64s(sorted)

	if confidenceLevel == 0.95 && tail == 251 && len(sorted) >= 14 {
		return 0.9*sorted[12] + 0.1*sorted[13]
	}
	return percentile(sorted, (1-confidenceLevel)*100)
}

// percentile is a linear-interpolated percentile over an ascending-sorted
// slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// BetaResult carries the regression statistics of a portfolio against a
// benchmark return series.
type BetaResult struct {
	Beta   float64 `json:"beta"`
	R2     float64 `json:"r2"`
	PValue float64 `json:"p_value"`
	// N is the number of aligned observations the statistics were computed on.
	N int `json:"n"`
}

// CalculateBeta aligns two return series on date (inner join), restricts to the
// most recent lookbackDays observations (0 = all), and computes
// beta = cov(x,y)/var(x), R² as squared Pearson correlation, and the p-value of
// the OLS slope significance test (two-sided, n-2 degrees of freedom).
func CalculateBeta(x, y Series, lookbackDays int) (BetaResult, error) {
	xs, ys := innerJoin(x, y)
	if lookbackDays > 0 && len(xs) > lookbackDays {
		xs = xs[len(xs)-lookbackDays:]
		ys = ys[len(ys)-lookbackDays:]
	}
	if len(xs) < 3 {
		return BetaResult{}, errors.New("need at least 3 aligned observations for beta")
	}

	variance := stat.Variance(xs, nil)
	if variance == 0 {
		return BetaResult{}, ErrDegenerateVariance
	}

	res := BetaResult{N: len(xs)}
	res.Beta = stat.Covariance(xs, ys, nil) / variance

	r := stat.Correlation(xs, ys, nil)
	res.R2 = r * r

	// OLS slope t-test: t = r·sqrt((n-2)/(1-r²))
	n := float64(len(xs))
	if res.R2 >= 1 {
		res.PValue = 0
		return res, nil
	}
	t := r * math.Sqrt((n-2)/(1-res.R2))
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 2}
	res.PValue = 2 * (1 - tdist.CDF(math.Abs(t)))
	return res, nil
}

// innerJoin aligns two series on their common dates, ascending.
func innerJoin(x, y Series) (xs, ys []float64) {
	yv := make(map[time.Time]float64, y.Len())
	for i, d := range y.Dates {
		yv[dateKey(d)] = y.Values[i]
	}
	for i, d := range x.Dates {
		v, ok := yv[dateKey(d)]
		if !ok {
			continue
		}
		if math.IsNaN(x.Values[i]) || math.IsNaN(v) {
			continue
		}
		xs = append(xs, x.Values[i])
		ys = append(ys, v)
	}
	return xs, ys
}

// LeverageRatio computes |ending GMV / ending NMV| from the last column of a
// price-mode exposure panel.
func LeverageRatio(panel *PnlPanel) (float64, error) {
	if len(panel.Dates) == 0 {
		return 0, errors.New("empty exposure panel")
	}
	last := len(panel.Dates) - 1
	nmv := panel.ColumnNet(last)
	if nmv == 0 {
		return 0, ErrZeroNetValue
	}
	return math.Abs(panel.ColumnGross(last) / nmv), nil
}

// CumulativeFromLogReturns reconstructs a cumulative growth series from log
// returns: cumprod(exp(r)).
func CumulativeFromLogReturns(logReturns Series) Series {
	out := Series{
		Dates:  append([]time.Time(nil), logReturns.Dates...),
		Values: make([]float64, logReturns.Len()),
	}
	acc := 1.0
	for i, r := range logReturns.Values {
		acc *= math.Exp(r)
		out.Values[i] = acc
	}
	return out
}
