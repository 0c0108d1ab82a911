package power

import (
	"strconv"
	"strings"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

// FormatMA renders a current with thousands separators: 1000 -> "1,000mA".
func FormatMA(ma int) string {
	digits := strconv.Itoa(ma)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString("mA")
	return b.String()
}

// MajorityPolarity returns the most common normalized polarity among the
// jacks, or "" when none declare one. The first value seen wins ties.
func MajorityPolarity(jacks []types.Jack) string {
	return majority(jacks, func(j types.Jack) (string, bool) {
		if j.Polarity == nil {
			return "", false
		}
		return NormalizePolarity(*j.Polarity), true
	})
}

// MajorityConnector is MajorityPolarity for connector types.
func MajorityConnector(jacks []types.Jack) string {
	return majority(jacks, func(j types.Jack) (string, bool) {
		if j.ConnectorType == nil {
			return "", false
		}
		return NormalizeConnector(*j.ConnectorType), true
	})
}

func majority(jacks []types.Jack, value func(types.Jack) (string, bool)) string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, j := range jacks {
		v, ok := value(j)
		if !ok {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
