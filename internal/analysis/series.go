package analysis

import (
	"math"
	"time"
)

// Series is a date-indexed value series, dates ascending.
// ⭐ SSOT: 시뮬레이션 결과 시계열은 이 타입으로만 주고받는다
type Series struct {
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len returns the number of observations.
func (s Series) Len() int {
	return len(s.Values)
}

// Last returns the final value, NaN for an empty series.
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[len(s.Values)-1]
}

// Diff returns the arithmetic first difference. The first observation has no
// prior value and is dropped.
func (s Series) Diff() Series {
	if len(s.Values) < 2 {
		return Series{}
	}
	out := Series{
		Dates:  make([]time.Time, len(s.Values)-1),
		Values: make([]float64, len(s.Values)-1),
	}
	for i := 1; i < len(s.Values); i++ {
		out.Dates[i-1] = s.Dates[i]
		out.Values[i-1] = s.Values[i] - s.Values[i-1]
	}
	return out
}

// AddScalar returns a copy of the series shifted by v.
func (s Series) AddScalar(v float64) Series {
	out := Series{
		Dates:  append([]time.Time(nil), s.Dates...),
		Values: make([]float64, len(s.Values)),
	}
	for i, x := range s.Values {
		out.Values[i] = x + v
	}
	return out
}

// Min returns the smallest value, NaN for an empty series.
func (s Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	m := s.Values[0]
	for _, v := range s.Values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest value, NaN for an empty series.
func (s Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	m := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
