package power

import (
	"testing"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

func TestFormatMA(t *testing.T) {
	tests := map[int]string{
		0:       "0mA",
		999:     "999mA",
		1000:    "1,000mA",
		123456:  "123,456mA",
		1234567: "1,234,567mA",
		-1500:   "-1,500mA",
	}
	for in, want := range tests {
		if got := FormatMA(in); got != want {
			t.Errorf("FormatMA(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestMajorityPolarity(t *testing.T) {
	jacks := []types.Jack{
		{Polarity: strp("Center Positive")},
		{Polarity: strp("Center Negative")},
		{Polarity: strp("center negative")},
		{},
	}
	if got := MajorityPolarity(jacks); got != "center-negative" {
		t.Errorf("MajorityPolarity() = %q, want center-negative", got)
	}

	tie := []types.Jack{{Polarity: strp(cp)}, {Polarity: strp(cn)}}
	if got := MajorityPolarity(tie); got != "center-positive" {
		t.Errorf("MajorityPolarity(tie) = %q, want first seen", got)
	}

	if got := MajorityPolarity([]types.Jack{{}}); got != "" {
		t.Errorf("MajorityPolarity(none) = %q, want empty", got)
	}
}

func TestMajorityConnector(t *testing.T) {
	jacks := []types.Jack{
		{ConnectorType: strp(barrel)},
		{ConnectorType: strp("2.5mm barrel")},
		{ConnectorType: strp(" 2.1mm barrel")},
	}
	if got := MajorityConnector(jacks); got != barrel {
		t.Errorf("MajorityConnector() = %q, want %q", got, barrel)
	}
}
