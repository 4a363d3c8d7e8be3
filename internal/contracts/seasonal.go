package contracts

import "strings"

// SeasonalIndex is the set of instruments whose price history must be tracked
// by calendar delivery month rather than a rolling forward offset.
// ⭐ 계약: 멤버십이 포지션-가격 정렬 방식을 결정한다
type SeasonalIndex map[string]struct{}

// NewSeasonalIndex builds a seasonal index from instrument identifiers,
// normalizing case and surrounding whitespace.
func NewSeasonalIndex(locations []string) SeasonalIndex {
	idx := make(SeasonalIndex, len(locations))
	for _, loc := range locations {
		idx[strings.ToUpper(strings.TrimSpace(loc))] = struct{}{}
	}
	return idx
}

// Contains reports whether the instrument is seasonal. The lookup assumes the
// caller already normalized the identifier.
func (s SeasonalIndex) Contains(location string) bool {
	_, ok := s[location]
	return ok
}

// Locations returns the members in unspecified order.
func (s SeasonalIndex) Locations() []string {
	out := make([]string, 0, len(s))
	for loc := range s {
		out = append(out, loc)
	}
	return out
}
