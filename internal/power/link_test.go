package power

import (
	"strings"
	"testing"
)

func TestBuildSupplyLinkURL(t *testing.T) {
	got := BuildSupplyLinkURL(1200, 3, 500, []string{"9V", "18V"})

	if !strings.HasPrefix(got, SupplyCatalogPath+"?") {
		t.Fatalf("url = %q, want %s prefix", got, SupplyCatalogPath)
	}
	for _, part := range []string{"minCurrent=1200", "minOutputs=3", "minOutputCurrent=500", "voltages=9V%2C18V"} {
		if !strings.Contains(got, part) {
			t.Errorf("url %q missing %q", got, part)
		}
	}
}

func TestBuildSupplyLinkURLOmitsZeroes(t *testing.T) {
	if got := BuildSupplyLinkURL(0, 0, 0, nil); got != SupplyCatalogPath {
		t.Errorf("url = %q, want bare path", got)
	}

	got := BuildSupplyLinkURL(0, 2, 0, []string{})
	if got != SupplyCatalogPath+"?minOutputs=2" {
		t.Errorf("url = %q, want only minOutputs", got)
	}
}

func TestSupplyLinkFor(t *testing.T) {
	data := ExtractPowerData(singleSupplyBench())
	got := SupplyLinkFor(data)

	for _, part := range []string{"minCurrent=500", "minOutputs=1", "minOutputCurrent=500", "voltages=9V"} {
		if !strings.Contains(got, part) {
			t.Errorf("url %q missing %q", got, part)
		}
	}
}
