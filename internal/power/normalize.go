// Package power computes supply budgets, port assignments, daisy-chain
// groupings and connection checks for a set of catalog devices.
package power

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	currentKind   = regexp.MustCompile(`(?i)\s*(DC|AC)\s*`)
	voltUnit      = regexp.MustCompile(`(?i)V`)
)

// NormalizePolarity lowercases and hyphenates: "Center Negative" -> "center-negative".
// The result is for comparisons only.
func NormalizePolarity(p string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(p), "-")
}

// NormalizeConnector trims surrounding whitespace. Connector names are
// compared case-sensitively.
func NormalizeConnector(c string) string {
	return strings.TrimSpace(c)
}

// NormalizeVoltage strips DC/AC markers and volt units: "9V DC" -> "9",
// "9V/12V/18V" -> "9/12/18", "100-240V AC" -> "100-240".
func NormalizeVoltage(raw string) string {
	s := currentKind.ReplaceAllString(raw, "")
	s = voltUnit.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// VoltageTokensFromJack splits a voltage field into its ordered tokens.
// Each token is a bare number or a "lo-hi" range.
func VoltageTokensFromJack(voltage string) []string {
	parts := strings.Split(NormalizeVoltage(voltage), "/")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
