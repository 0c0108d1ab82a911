package power

import (
	"strings"
	"testing"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

func TestValidateConnection(t *testing.T) {
	out := powerOut(1, "9V", 500, cn, barrel, true)

	tests := []struct {
		name       string
		input      types.Jack
		cumulative *int
		status     Severity
		prefixes   []string
	}{
		{"clean", powerIn(2, "9V", 100, cn, barrel), nil, SevValid, nil},
		{"voltage", powerIn(2, "18V", 100, cn, barrel), nil, SevError, []string{"Voltage mismatch"}},
		{"cumulative overload", powerIn(2, "9V", 100, cn, barrel), intp(550), SevError, []string{"Current overload"}},
		{"own draw overload", powerIn(2, "9V", 600, cn, barrel), nil, SevError, []string{"Current overload"}},
		{"cumulative at rating", powerIn(2, "9V", 100, cn, barrel), intp(500), SevValid, nil},
		{"polarity", powerIn(2, "9V", 100, cp, barrel), nil, SevWarning, []string{"Polarity mismatch"}},
		{"connector", powerIn(2, "9V", 100, cn, "2.5mm barrel"), nil, SevWarning, []string{"Connector mismatch"}},
		{"polarity and connector", powerIn(2, "9V", 100, cp, "2.5mm barrel"), nil, SevWarning,
			[]string{"Polarity mismatch", "Connector mismatch"}},
		{"voltage hides polarity", powerIn(2, "18V", 100, cp, barrel), nil, SevError, []string{"Voltage mismatch"}},
		{"unknown input", types.Jack{ID: 2, Category: types.JackCategoryPower, Direction: types.DirectionInput}, nil, SevValid, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateConnection(out, tt.input, tt.cumulative)
			if got.Status != tt.status {
				t.Errorf("Status = %q, want %q (%v)", got.Status, tt.status, got.Warnings)
			}
			if got.Warnings == nil {
				t.Fatal("Warnings must not be nil")
			}
			if len(got.Warnings) != len(tt.prefixes) {
				t.Fatalf("Warnings = %v, want %d entries", got.Warnings, len(tt.prefixes))
			}
			for i, p := range tt.prefixes {
				if !strings.HasPrefix(got.Warnings[i], p) {
					t.Errorf("Warnings[%d] = %q, want prefix %q", i, got.Warnings[i], p)
				}
			}
		})
	}
}

func TestValidateConnectionOverloadMessage(t *testing.T) {
	out := powerOut(1, "9V", 500, cn, barrel, true)
	in := powerIn(2, "9V", 300, cn, barrel)

	got := ValidateConnection(out, in, intp(550))
	want := "Current overload: 550mA drawn exceeds the output rating of 500mA"
	if got.Warnings[0] != want {
		t.Errorf("message = %q, want %q", got.Warnings[0], want)
	}
}

func TestValidateConnectionKnowingMoreNeverHelps(t *testing.T) {
	out := powerOut(1, "9V", 500, cn, barrel, true)
	partial := types.Jack{ID: 2, Category: types.JackCategoryPower, Direction: types.DirectionInput}
	full := powerIn(2, "12V", 100, cp, barrel)

	rank := map[Severity]int{SevValid: 0, SevWarning: 1, SevError: 2}
	before := ValidateConnection(out, partial, nil)
	after := ValidateConnection(out, full, nil)
	if rank[after.Status] < rank[before.Status] {
		t.Errorf("severity dropped from %q to %q", before.Status, after.Status)
	}
}
