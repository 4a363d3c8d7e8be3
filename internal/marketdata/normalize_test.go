package marketdata

import (
	"math"
	"testing"
	"time"

	"github.com/wonny/minrei/internal/contracts"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func floatPtr(v float64) *float64 { return &v }

func TestNormalizePositions_WeightAndLocation(t *testing.T) {
	got := NormalizePositions([]contracts.Position{{
		ValuationDate: date(2026, 8, 14),
		PxLocation:    "  brent ",
		ForwardMonth:  1,
		DeltaPosition: 1000,
		GammaPosition: 40,
		ThetaPosition: -20,
		VegaPosition:  10,
		Weight:        50,
	}})

	if len(got) != 1 {
		t.Fatalf("got %d positions, want 1", len(got))
	}
	p := got[0]
	if p.PxLocation != "BRENT" {
		t.Errorf("px_location = %q, want BRENT", p.PxLocation)
	}
	if p.DeltaPosition != 500 || p.GammaPosition != 20 || p.ThetaPosition != -10 || p.VegaPosition != 5 {
		t.Errorf("greeks not scaled by weight/100: %+v", p)
	}
}

func TestNormalizePositions_ImputesContractMonth(t *testing.T) {
	tests := []struct {
		name          string
		valuationDate time.Time
		forwardMonth  int
		want          time.Time
	}{
		{"front month", date(2026, 8, 14), 1, date(2026, 8, 1)},
		{"third month", date(2026, 8, 14), 3, date(2026, 10, 1)},
		{"year rollover", date(2026, 11, 20), 4, date(2027, 2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePositions([]contracts.Position{{
				ValuationDate: tt.valuationDate,
				PxLocation:    "BRENT",
				ForwardMonth:  tt.forwardMonth,
				Weight:        100,
			}})
			if got[0].ContractMonth == nil {
				t.Fatal("contract month not imputed")
			}
			if !got[0].ContractMonth.Equal(tt.want) {
				t.Errorf("contract_month = %v, want %v", got[0].ContractMonth, tt.want)
			}
		})
	}
}

func TestNormalizePositions_KeepsExplicitContractMonth(t *testing.T) {
	cm := date(2027, 3, 1)
	got := NormalizePositions([]contracts.Position{{
		ValuationDate: date(2026, 8, 14),
		PxLocation:    "NG-HH",
		ContractMonth: &cm,
		ForwardMonth:  1,
		Weight:        100,
	}})
	if !got[0].ContractMonth.Equal(cm) {
		t.Errorf("explicit contract_month overwritten: %v", got[0].ContractMonth)
	}
}

func TestNormalizePositions_AggregatesDuplicateKeys(t *testing.T) {
	vd := date(2026, 8, 14)
	got := NormalizePositions([]contracts.Position{
		{ValuationDate: vd, PxLocation: "BRENT", ForwardMonth: 1, DeltaPosition: 100, GammaPosition: 4, Weight: 100, TraderName: "J. Fish"},
		{ValuationDate: vd, PxLocation: "brent", ForwardMonth: 1, DeltaPosition: -40, GammaPosition: 1, Weight: 50, TraderName: "J. Fish"},
		{ValuationDate: vd, PxLocation: "BRENT", ForwardMonth: 2, DeltaPosition: 10, Weight: 100, TraderName: "J. Fish"},
	})

	if len(got) != 2 {
		t.Fatalf("got %d positions, want 2 (fm=1 aggregated, fm=2 separate)", len(got))
	}
	// weight applies before aggregation: 100 + (-40 * 0.5)
	if got[0].DeltaPosition != 80 {
		t.Errorf("aggregated delta = %v, want 80", got[0].DeltaPosition)
	}
	if got[0].GammaPosition != 4.5 {
		t.Errorf("aggregated gamma = %v, want 4.5", got[0].GammaPosition)
	}
	if got[1].DeltaPosition != 10 {
		t.Errorf("fm=2 delta = %v, want 10", got[1].DeltaPosition)
	}
}

func TestNormalizePrices_BasisAndRate(t *testing.T) {
	rows := []PriceRow{
		{
			PriceObservation: contracts.PriceObservation{
				PxLocation: " gasoil ", PxDate: date(2026, 8, 14),
				ContractMonth: date(2026, 9, 1), ForwardMonth: 1, Price: 220,
			},
			PriceBasis: floatPtr(2),
			Rate:       floatPtr(1.1),
		},
		{
			PriceObservation: contracts.PriceObservation{
				PxLocation: "BRENT", PxDate: date(2026, 8, 14),
				ContractMonth: date(2026, 9, 1), ForwardMonth: 1, Price: 80,
			},
			// nil basis defaults to 1
			Rate: floatPtr(1),
		},
	}

	got := NormalizePrices(rows)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].PxLocation != "GASOIL" {
		t.Errorf("px_location = %q, want GASOIL", got[0].PxLocation)
	}
	if math.Abs(got[0].Price-100) > 1e-9 {
		t.Errorf("price = %v, want 220/2/1.1 = 100", got[0].Price)
	}
	if got[1].Price != 80 {
		t.Errorf("price = %v, want 80 untouched", got[1].Price)
	}
}

func TestNormalizePrices_DeduplicatesKeepingFirst(t *testing.T) {
	obs := contracts.PriceObservation{
		PxLocation: "BRENT", PxDate: date(2026, 8, 14),
		ContractMonth: date(2026, 9, 1), ForwardMonth: 1,
	}
	first, second := obs, obs
	first.Price = 80
	second.Price = 81

	got := NormalizePrices([]PriceRow{{PriceObservation: first}, {PriceObservation: second}})
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
	if got[0].Price != 80 {
		t.Errorf("kept price = %v, want the first print 80", got[0].Price)
	}
}
