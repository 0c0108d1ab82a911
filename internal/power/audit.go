package power

import (
	"fmt"
	"sort"
	"strings"
)

const (
	CodeNoSupply          = "POWER_001"
	CodeInsufficient      = "POWER_002"
	CodeUnknownDraw       = "POWER_003"
	CodeTooFewOutputs     = "POWER_010"
	CodeUnassigned        = "POWER_011"
	CodeNonIsolated       = "POWER_020"
	CodeAdapterNeeded     = "POWER_021"
	CodeMultiplePowerJack = "POWER_030"
)

type Issue struct {
	Code       string   `json:"code"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	ProductID  int      `json:"product_id,omitempty"`
	InstanceID string   `json:"instance_id,omitempty"`
	Hint       string   `json:"hint,omitempty"`
}

type Report struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func (r *Report) addError(is Issue) {
	is.Severity = SevError
	r.Errors = append(r.Errors, is)
}

func (r *Report) addWarning(is Issue) {
	is.Severity = SevWarning
	r.Warnings = append(r.Warnings, is)
}

func (r *Report) finalize() {
	byCode := func(list []Issue) func(i, j int) bool {
		return func(i, j int) bool {
			if list[i].Code != list[j].Code {
				return list[i].Code < list[j].Code
			}
			return list[i].ProductID < list[j].ProductID
		}
	}
	if r.Errors == nil {
		r.Errors = []Issue{}
	}
	if r.Warnings == nil {
		r.Warnings = []Issue{}
	}
	sort.SliceStable(r.Errors, byCode(r.Errors))
	sort.SliceStable(r.Warnings, byCode(r.Warnings))
	r.Valid = len(r.Errors) == 0
}

// Audit collects the actionable findings for a budget, its assignment and
// its daisy-chain groups.
func Audit(data BudgetData, assignment AssignmentResult, groups []DaisyChainGroup) Report {
	rep := Report{}

	for _, c := range data.Consumers {
		if c.PowerInputs > 1 {
			rep.addWarning(Issue{
				Code:       CodeMultiplePowerJack,
				Message:    fmt.Sprintf("%s has %d power inputs; only the first is considered", c.DisplayName(), c.PowerInputs),
				ProductID:  c.ProductID,
				InstanceID: c.InstanceID,
			})
		}
	}

	for _, c := range data.UnknownConsumers {
		rep.addWarning(Issue{
			Code:       CodeUnknownDraw,
			Message:    fmt.Sprintf("%s has no published current draw", c.DisplayName()),
			ProductID:  c.ProductID,
			InstanceID: c.InstanceID,
			Hint:       "Check the manufacturer's manual before relying on the budget",
		})
	}

	switch data.Status {
	case StatusNoSupply:
		if len(data.Consumers) > 0 {
			rep.addError(Issue{
				Code:    CodeNoSupply,
				Message: fmt.Sprintf("No power supply for %d %s", len(data.Consumers), plural(len(data.Consumers), "device", "devices")),
				Hint:    SupplyLinkFor(data),
			})
		}
		rep.finalize()
		return rep
	case StatusInsufficient:
		rep.addError(Issue{
			Code: CodeInsufficient,
			Message: fmt.Sprintf("Supplies provide %s but devices draw %s (%s short)",
				FormatMA(data.TotalCapacity), FormatMA(data.TotalDraw), FormatMA(-data.Headroom)),
			Hint: SupplyLinkFor(data),
		})
	}

	outputs := data.TotalOutputCount
	if outputs == 0 {
		outputs = len(data.AllOutputJacks)
	}
	if len(data.Consumers) > outputs {
		is := Issue{
			Code:    CodeTooFewOutputs,
			Message: fmt.Sprintf("%d devices but only %d %s", len(data.Consumers), outputs, plural(outputs, "output", "outputs")),
		}
		if len(groups) > 0 {
			is.Hint = daisyChainHint(groups)
		}
		rep.addWarning(is)
	}

	for _, c := range assignment.Unassigned {
		rep.addError(Issue{
			Code:       CodeUnassigned,
			Message:    fmt.Sprintf("No compatible output for %s", c.DisplayName()),
			ProductID:  c.ProductID,
			InstanceID: c.InstanceID,
		})
	}

	for _, a := range assignment.Assignments {
		if !a.Jack.Isolated() {
			rep.addWarning(Issue{
				Code: CodeNonIsolated,
				Message: fmt.Sprintf("%s is on non-isolated output %d of %s and may pick up noise",
					a.Consumer.DisplayName(), a.Jack.PortIndex, a.Jack.SupplyName),
				ProductID:  a.Consumer.ProductID,
				InstanceID: a.Consumer.InstanceID,
			})
		}
		for _, note := range a.Notes {
			rep.addWarning(Issue{
				Code:       CodeAdapterNeeded,
				Message:    fmt.Sprintf("%s: %s", a.Consumer.DisplayName(), note),
				ProductID:  a.Consumer.ProductID,
				InstanceID: a.Consumer.InstanceID,
			})
		}
	}

	rep.finalize()
	return rep
}

func daisyChainHint(groups []DaisyChainGroup) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		names := make([]string, 0, len(g.Consumers))
		for _, c := range g.Consumers {
			names = append(names, c.DisplayName())
		}
		parts = append(parts, fmt.Sprintf("%s (%s on a %s output)",
			strings.Join(names, " + "), FormatMA(g.CombinedMA), FormatMA(g.MaxOutputMA)))
	}
	return "Daisy-chain candidates: " + strings.Join(parts, "; ")
}
