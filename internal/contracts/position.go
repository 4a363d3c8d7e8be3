package contracts

import "time"

// Position represents one instrument/contract-month line of a book's position
// snapshot on a valuation date.
// ⭐ SSOT: 포지션 스냅샷 타입은 여기서만 정의
// Greeks는 정규화 단계에서 weight/100이 이미 적용된 값이다.
type Position struct {
	ValuationDate time.Time  `json:"valuation_date"`
	TraderName    string     `json:"trader_name,omitempty"`
	PxLocation    string     `json:"px_location"`
	ContractMonth *time.Time `json:"contract_month,omitempty"` // nil until imputed from forward month
	ForwardMonth  int        `json:"forward_month"`
	DeltaPosition float64    `json:"deltaposition"`
	GammaPosition float64    `json:"gammaposition"`
	ThetaPosition float64    `json:"thetaposition"`
	VegaPosition  float64    `json:"vegaposition"`
	Weight        float64    `json:"weight"`
}

// ImputedContractMonth resolves the delivery month for a position that only
// carries a forward-month offset: valuation month + (forward-1), anchored to
// the first of the resulting month.
// forward_month=1 은 당월 인도를 의미한다.
// 월초 고정 후에 월을 더한다. 일자를 들고 더하면 1/31 + 1개월이 3월로
// 넘어가는 식의 월말 오버플로가 생긴다.
func (p *Position) ImputedContractMonth() time.Time {
	return time.Date(
		p.ValuationDate.Year(),
		p.ValuationDate.Month()+time.Month(p.ForwardMonth-1),
		1, 0, 0, 0, 0, time.UTC,
	)
}

// ResolvedContractMonth returns the contract month, imputing it from the
// forward month when absent. After normalization every position has one.
func (p *Position) ResolvedContractMonth() time.Time {
	if p.ContractMonth != nil {
		return *p.ContractMonth
	}
	return p.ImputedContractMonth()
}

// Key returns the price-series key governing this position: delivery month for
// seasonal instruments, forward offset otherwise.
func (p *Position) Key(seasonal bool) ContractKey {
	if seasonal {
		return SeasonalKey(p.PxLocation, p.ResolvedContractMonth())
	}
	return ForwardKey(p.PxLocation, p.ForwardMonth)
}
