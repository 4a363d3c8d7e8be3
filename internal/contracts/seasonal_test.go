package contracts

import "testing"

func TestNewSeasonalIndex_Normalizes(t *testing.T) {
	idx := NewSeasonalIndex([]string{" ng-hh ", "JKM", "jkm"})

	if len(idx) != 2 {
		t.Fatalf("index size = %d, want 2", len(idx))
	}
	if !idx.Contains("NG-HH") || !idx.Contains("JKM") {
		t.Errorf("index missing normalized members: %v", idx.Locations())
	}
	if idx.Contains("ng-hh") {
		t.Error("lookup should assume a normalized identifier")
	}
}

func TestSeasonalIndex_Empty(t *testing.T) {
	idx := NewSeasonalIndex(nil)
	if idx.Contains("BRENT") {
		t.Error("empty index contains member")
	}
}
