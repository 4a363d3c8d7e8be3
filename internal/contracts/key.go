package contracts

import (
	"fmt"
	"time"
)

// ContractKey identifies one instrument-month price series.
// ⭐ SSOT: 시계열 식별자는 이 구조체로만 — 문자열 결합 키 금지
// Seasonal 상품은 인도월(Year/Month), 비시즌 상품은 forward offset으로 식별한다.
// 필드가 모두 비교 가능하므로 map 키로 바로 사용할 수 있다.
type ContractKey struct {
	Location string `json:"px_location"`
	Year     int    `json:"year,omitempty"`
	Month    int    `json:"month,omitempty"`
	Forward  int    `json:"forward_month,omitempty"`
}

// SeasonalKey builds a key for a seasonal instrument tracked by delivery month.
func SeasonalKey(location string, contractMonth time.Time) ContractKey {
	return ContractKey{
		Location: location,
		Year:     contractMonth.Year(),
		Month:    int(contractMonth.Month()),
	}
}

// ForwardKey builds a key for a non-seasonal instrument tracked by a rolling
// forward-month offset.
func ForwardKey(location string, forwardMonth int) ContractKey {
	return ContractKey{Location: location, Forward: forwardMonth}
}

// IsSeasonal reports whether the key is month-resolved.
func (k ContractKey) IsSeasonal() bool {
	return k.Year != 0
}

// ContractMonth returns the delivery month for a seasonal key, anchored to the
// first of the month. Zero time for forward-offset keys.
func (k ContractKey) ContractMonth() time.Time {
	if !k.IsSeasonal() {
		return time.Time{}
	}
	return time.Date(k.Year, time.Month(k.Month), 1, 0, 0, 0, 0, time.UTC)
}

// String renders the key for logs and error messages.
func (k ContractKey) String() string {
	if k.IsSeasonal() {
		return fmt.Sprintf("%s %04d-%02d", k.Location, k.Year, k.Month)
	}
	return fmt.Sprintf("%s F+%d", k.Location, k.Forward)
}
