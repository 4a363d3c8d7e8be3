package marketdata

import (
	"strings"
	"time"

	"github.com/wonny/minrei/internal/contracts"
)

// Query post-processing lives here as plain named functions, wired explicitly
// by each repository method after scanning.
// ⭐ SSOT: 쿼리 결과 정규화는 이 파일의 변환 함수로만 — 이름 규약에 따른
// 암묵적 디스패치 금지

// PriceRow is a scanned price record before the basis/FX pre-step.
type PriceRow struct {
	contracts.PriceObservation
	PriceBasis *float64 // nil → 1
	Rate       *float64 // FX rate to USD; nil → 1
}

// NormalizePositions applies the position snapshot invariants:
// instrument identifiers uppercased and trimmed, Greeks scaled by weight/100,
// contract months imputed from the forward month where absent, and rows with
// the same (valuation_date, px_location, forward_month) aggregated — Greeks
// summed, all other fields from the first occurrence.
func NormalizePositions(positions []contracts.Position) []contracts.Position {
	type groupKey struct {
		valuationDate time.Time
		location      string
		forwardMonth  int
	}

	var order []groupKey
	grouped := make(map[groupKey]*contracts.Position)

	for i := range positions {
		p := positions[i]
		p.PxLocation = normalizeLocation(p.PxLocation)

		scale := p.Weight / 100
		p.DeltaPosition *= scale
		p.GammaPosition *= scale
		p.ThetaPosition *= scale
		p.VegaPosition *= scale

		if p.ContractMonth == nil {
			cm := p.ImputedContractMonth()
			p.ContractMonth = &cm
		}

		key := groupKey{
			valuationDate: toDate(p.ValuationDate),
			location:      p.PxLocation,
			forwardMonth:  p.ForwardMonth,
		}
		if existing, ok := grouped[key]; ok {
			existing.DeltaPosition += p.DeltaPosition
			existing.GammaPosition += p.GammaPosition
			existing.ThetaPosition += p.ThetaPosition
			existing.VegaPosition += p.VegaPosition
			continue
		}
		grouped[key] = &p
		order = append(order, key)
	}

	out := make([]contracts.Position, 0, len(order))
	for _, key := range order {
		out = append(out, *grouped[key])
	}
	return out
}

// NormalizePrices applies the price pre-step — price /= price_basis (default 1)
// then price /= fx_rate — normalizes instrument identifiers, and drops
// duplicate (px_location, px_date, contract_month) rows keeping the first.
func NormalizePrices(rows []PriceRow) []contracts.PriceObservation {
	type seriesDate struct {
		location string
		date     time.Time
		month    time.Time
	}
	seen := make(map[seriesDate]struct{}, len(rows))

	out := make([]contracts.PriceObservation, 0, len(rows))
	for i := range rows {
		o := rows[i].PriceObservation
		o.PxLocation = normalizeLocation(o.PxLocation)

		if rows[i].PriceBasis != nil && *rows[i].PriceBasis != 0 {
			o.Price /= *rows[i].PriceBasis
		}
		if rows[i].Rate != nil && *rows[i].Rate != 0 {
			o.Price /= *rows[i].Rate
		}

		key := seriesDate{o.PxLocation, toDate(o.PxDate), toDate(o.ContractMonth)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, o)
	}
	return out
}

// NormalizeLocations uppercases and trims a list of instrument identifiers.
func NormalizeLocations(locations []string) []string {
	out := make([]string, len(locations))
	for i, loc := range locations {
		out[i] = normalizeLocation(loc)
	}
	return out
}

func normalizeLocation(location string) string {
	return strings.ToUpper(strings.TrimSpace(location))
}

func toDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
