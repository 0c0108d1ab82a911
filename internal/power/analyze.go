package power

import "github.com/KevinKickass/OpenPedalCore/internal/types"

// Analysis bundles every derived view of one device set.
type Analysis struct {
	Budget      BudgetData        `json:"budget"`
	Assignment  AssignmentResult  `json:"assignment"`
	DaisyChains []DaisyChainGroup `json:"daisy_chains"`
	Report      Report            `json:"report"`
	Insight     []string          `json:"insight"`
	SupplyLink  string            `json:"supply_link"`
}

func Analyze(rows []types.DeviceRow) Analysis {
	budget := ExtractPowerData(rows)
	assignment := AssignPedalsToOutputs(budget.Consumers, budget.Supplies)
	groups := ComputeDaisyChainGroups(budget.Consumers, budget.AllOutputJacks)

	return Analysis{
		Budget:      budget,
		Assignment:  assignment,
		DaisyChains: groups,
		Report:      Audit(budget, assignment, groups),
		Insight:     Insight(budget),
		SupplyLink:  SupplyLinkFor(budget),
	}
}
