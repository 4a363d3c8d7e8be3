package contracts

import (
	"testing"
	"time"
)

func TestImputedContractMonth(t *testing.T) {
	tests := []struct {
		name          string
		valuationDate time.Time
		forwardMonth  int
		want          time.Time
	}{
		{"front month is the valuation month", date(2026, 8, 14), 1, month(2026, time.August)},
		{"third month", date(2026, 8, 14), 3, month(2026, time.October)},
		{"year rollover", date(2026, 11, 20), 4, month(2027, time.February)},
		{"end of month does not spill", date(2026, 1, 31), 1, month(2026, time.January)},
		{"month-end second month stays in february", date(2026, 1, 31), 2, month(2026, time.February)},
		{"month-end over year boundary", date(2026, 12, 31), 2, month(2027, time.January)},
		{"leap-adjacent month-end", date(2026, 3, 30), 12, month(2027, time.February)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Position{ValuationDate: tt.valuationDate, ForwardMonth: tt.forwardMonth}
			if got := p.ImputedContractMonth(); !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolvedContractMonth_PrefersExplicit(t *testing.T) {
	cm := month(2027, time.March)
	p := Position{ValuationDate: date(2026, 8, 14), ContractMonth: &cm, ForwardMonth: 1}
	if got := p.ResolvedContractMonth(); !got.Equal(cm) {
		t.Errorf("got %v, want explicit %v", got, cm)
	}

	p.ContractMonth = nil
	if got := p.ResolvedContractMonth(); !got.Equal(month(2026, time.August)) {
		t.Errorf("got %v, want imputed 2026-08", got)
	}
}

func TestPositionKey(t *testing.T) {
	p := Position{ValuationDate: date(2026, 8, 14), PxLocation: "NG-HH", ForwardMonth: 2}

	if got := p.Key(true); got != SeasonalKey("NG-HH", month(2026, time.September)) {
		t.Errorf("seasonal key = %+v", got)
	}
	if got := p.Key(false); got != ForwardKey("NG-HH", 2) {
		t.Errorf("forward key = %+v", got)
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
