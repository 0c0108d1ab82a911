package power

import (
	"strings"
	"testing"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

func codes(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

func TestAnalyzeClean(t *testing.T) {
	a := Analyze(singleSupplyBench())

	if !a.Report.Valid {
		t.Errorf("Report.Valid = false, errors %v", codes(a.Report.Errors))
	}
	if len(a.Report.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", codes(a.Report.Warnings))
	}
	if len(a.Assignment.Assignments) != 1 {
		t.Errorf("assignments = %d, want 1", len(a.Assignment.Assignments))
	}
	if a.SupplyLink == "" || len(a.Insight) == 0 {
		t.Error("Analyze() should fill the supply link and insight")
	}
}

func TestAuditNoSupply(t *testing.T) {
	a := Analyze([]types.DeviceRow{pedal(1, "DS-1", powerIn(10, "9V", 100, cn, barrel))})

	if a.Report.Valid {
		t.Fatal("Report.Valid = true without a supply")
	}
	if got := codes(a.Report.Errors); len(got) != 1 || got[0] != CodeNoSupply {
		t.Errorf("errors = %v, want [%s]", got, CodeNoSupply)
	}
	if !strings.HasPrefix(a.Report.Errors[0].Hint, SupplyCatalogPath) {
		t.Errorf("Hint = %q, want supply link", a.Report.Errors[0].Hint)
	}
}

func TestAuditEmptyBench(t *testing.T) {
	a := Analyze(nil)
	if !a.Report.Valid || len(a.Report.Warnings) != 0 {
		t.Errorf("report = %+v, want clean", a.Report)
	}
}

func TestAuditTooFewOutputs(t *testing.T) {
	a := Analyze([]types.DeviceRow{
		pedal(1, "A", powerIn(10, "9V", 100, cn, barrel)),
		pedal(2, "B", powerIn(11, "9V", 100, cn, barrel)),
		pedal(3, "C", powerIn(12, "9V", 100, cn, barrel)),
		supply(4, "Power 1", 1000, 1, powerOut(20, "9V", 500, cn, barrel, true)),
	})

	if got := codes(a.Report.Errors); len(got) != 2 || got[0] != CodeUnassigned || got[1] != CodeUnassigned {
		t.Errorf("errors = %v, want two %s", got, CodeUnassigned)
	}
	var tooFew *Issue
	for i := range a.Report.Warnings {
		if a.Report.Warnings[i].Code == CodeTooFewOutputs {
			tooFew = &a.Report.Warnings[i]
		}
	}
	if tooFew == nil {
		t.Fatalf("warnings = %v, want %s", codes(a.Report.Warnings), CodeTooFewOutputs)
	}
	want := "Daisy-chain candidates: Boss A + Boss B + Boss C (300mA on a 500mA output)"
	if tooFew.Hint != want {
		t.Errorf("Hint = %q, want %q", tooFew.Hint, want)
	}
}

func TestAuditWarnings(t *testing.T) {
	unknown := powerIn(12, "9V", 0, cn, barrel)
	unknown.CurrentMA = nil

	a := Analyze([]types.DeviceRow{
		pedal(1, "Odd", powerIn(10, "9V", 100, cp, barrel)),
		pedal(2, "Mystery", unknown),
		pedal(3, "Dual", powerIn(13, "9V", 50, cn, barrel), powerIn(14, "9V", 50, cn, barrel)),
		supply(4, "Power 1", 1000, 3,
			powerOut(20, "9V", 500, cn, barrel, false),
			powerOut(21, "9V", 500, cn, barrel, false),
			powerOut(22, "9V", 500, cn, barrel, false),
		),
	})

	got := codes(a.Report.Warnings)
	for _, code := range []string{CodeUnknownDraw, CodeNonIsolated, CodeAdapterNeeded, CodeMultiplePowerJack} {
		found := false
		for _, c := range got {
			if c == code {
				found = true
			}
		}
		if !found {
			t.Errorf("warnings %v missing %s", got, code)
		}
	}
	if !a.Report.Valid {
		t.Errorf("errors = %v, want none", codes(a.Report.Errors))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Errorf("warnings not sorted by code: %v", got)
			break
		}
	}
}

func TestAuditInsufficient(t *testing.T) {
	a := Analyze([]types.DeviceRow{
		pedal(1, "DS-1", powerIn(10, "9V", 400, cn, barrel)),
		supply(2, "Power 1", 300, 1, powerOut(20, "9V", 500, cn, barrel, true)),
	})

	if got := codes(a.Report.Errors); len(got) != 1 || got[0] != CodeInsufficient {
		t.Errorf("errors = %v, want [%s]", got, CodeInsufficient)
	}
}
