package power

import (
	"fmt"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

type Severity string

const (
	SevValid   Severity = "valid"
	SevWarning Severity = "warning"
	SevError   Severity = "error"
)

// ConnectionCheck is the outcome of validating one output-to-input edge.
// Warnings holds the messages for both warning and error outcomes.
type ConnectionCheck struct {
	Status   Severity `json:"status"`
	Warnings []string `json:"warnings"`
}

// ValidateConnection checks an output jack feeding an input jack.
// cumulativeMA is the total draw routed through the output including this
// input; when nil the input's own draw is used. Voltage and current
// problems are errors and stop further checks; polarity and connector
// mismatches are collected as warnings. Unknown attributes never raise
// severity.
func ValidateConnection(output, input types.Jack, cumulativeMA *int) ConnectionCheck {
	if output.Voltage != nil && input.Voltage != nil && !VoltagesCompatible(*output.Voltage, *input.Voltage) {
		return ConnectionCheck{
			Status: SevError,
			Warnings: []string{fmt.Sprintf("Voltage mismatch: output supplies %s, input requires %s",
				*output.Voltage, *input.Voltage)},
		}
	}

	load := cumulativeMA
	if load == nil {
		load = input.CurrentMA
	}
	if load != nil && output.CurrentMA != nil && *load > *output.CurrentMA {
		return ConnectionCheck{
			Status: SevError,
			Warnings: []string{fmt.Sprintf("Current overload: %s drawn exceeds the output rating of %s",
				FormatMA(*load), FormatMA(*output.CurrentMA))},
		}
	}

	warnings := make([]string, 0)
	if match, known := PolarityMatch(output.Polarity, input.Polarity); known && !match {
		warnings = append(warnings, fmt.Sprintf("Polarity mismatch: output is %s, input expects %s",
			*output.Polarity, *input.Polarity))
	}
	if match, known := ConnectorMatch(output.ConnectorType, input.ConnectorType); known && !match {
		warnings = append(warnings, fmt.Sprintf("Connector mismatch: output is %s, input expects %s",
			*output.ConnectorType, *input.ConnectorType))
	}

	if len(warnings) > 0 {
		return ConnectionCheck{Status: SevWarning, Warnings: warnings}
	}
	return ConnectionCheck{Status: SevValid, Warnings: warnings}
}
