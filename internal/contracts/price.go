package contracts

import "time"

// PriceObservation is one historical price print for an instrument
// contract-month, already FX- and basis-adjusted by the data layer.
// Return 필드들은 analysis 단계에서 채워진다 (그 전에는 0).
type PriceObservation struct {
	PxLocation    string    `json:"px_location"`
	PxDate        time.Time `json:"px_date"`
	ContractMonth time.Time `json:"contract_month"`
	ForwardMonth  int       `json:"forward_month"`
	Price         float64   `json:"price"`
	PriceDelta    float64   `json:"price_delta,omitempty"`
	SimpleReturn  float64   `json:"simple_return,omitempty"`
	LogReturn     float64   `json:"log_return,omitempty"`
}

// SeriesKey returns the (instrument, delivery month) identity of the print.
// 수익률 계산의 그룹 기준.
func (o *PriceObservation) SeriesKey() ContractKey {
	return SeasonalKey(o.PxLocation, o.ContractMonth)
}

// ForwardSeriesKey returns the (instrument, forward offset) identity used when
// aligning non-seasonal positions.
func (o *PriceObservation) ForwardSeriesKey() ContractKey {
	return ForwardKey(o.PxLocation, o.ForwardMonth)
}
