package power

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseLeadingFloat reads the numeric prefix of s, so "9-18" parses as 9.
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimLeft(s, " \t\n\r"))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// VoltageTokensCanSatisfy reports whether any supply token delivers the
// needed voltage. Non-numeric needs fall back to exact token membership.
func VoltageTokensCanSatisfy(supplyTokens []string, needed string) bool {
	n, ok := parseLeadingFloat(needed)
	if !ok {
		return slices.Contains(supplyTokens, needed)
	}

	for _, token := range supplyTokens {
		if bounds := strings.Split(token, "-"); len(bounds) == 2 {
			lo, okLo := parseLeadingFloat(bounds[0])
			hi, okHi := parseLeadingFloat(bounds[1])
			if okLo && okHi && n >= lo && n <= hi {
				return true
			}
		}
		if v, ok := parseLeadingFloat(token); ok && v == n {
			return true
		}
	}
	return false
}

// VoltagesCompatible requires every consumer token to be satisfiable by
// some supply token.
func VoltagesCompatible(supplyVoltage, consumerVoltage string) bool {
	supplyTokens := VoltageTokensFromJack(supplyVoltage)
	for _, needed := range VoltageTokensFromJack(consumerVoltage) {
		if !VoltageTokensCanSatisfy(supplyTokens, needed) {
			return false
		}
	}
	return true
}

// PolarityMatch compares two polarities. known is false when either side
// is absent, in which case the pair never blocks a match.
func PolarityMatch(a, b *string) (match, known bool) {
	if a == nil || b == nil {
		return true, false
	}
	return NormalizePolarity(*a) == NormalizePolarity(*b), true
}

// ConnectorMatch compares two connector types with the same absence rule
// as PolarityMatch.
func ConnectorMatch(a, b *string) (match, known bool) {
	if a == nil || b == nil {
		return true, false
	}
	return NormalizeConnector(*a) == NormalizeConnector(*b), true
}
