package power

import (
	"fmt"
	"sort"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

// Insight renders the budget sidebar text, one line per entry.
func Insight(data BudgetData) []string {
	n := len(data.Consumers)
	lines := []string{
		fmt.Sprintf("Your %d %s %s %s total.", n, plural(n, "device", "devices"),
			plural(n, "draws", "draw"), FormatMA(data.TotalDraw)),
	}

	if u := len(data.UnknownConsumers); u > 0 {
		lines = append(lines, fmt.Sprintf("%d %s with unknown draw", u, plural(u, "device", "devices")))
	}
	if h := data.HighestDraw; h != nil {
		lines = append(lines, fmt.Sprintf("Highest: %s (%s)", h.DisplayName(), FormatMA(*h.CurrentMA)))
	}

	if data.Status == StatusNoSupply {
		return append(lines, "No power supply in workbench.")
	}

	if len(data.Supplies) == 1 {
		lines = append(lines, fmt.Sprintf("Your %s provides %s.", data.Supplies[0].DisplayName(),
			FormatMA(data.TotalCapacity)))
	} else {
		lines = append(lines, fmt.Sprintf("Combined supply capacity: %s.", FormatMA(data.TotalCapacity)))
	}

	if data.Status == StatusInsufficient {
		lines = append(lines, fmt.Sprintf("%s short", FormatMA(-data.Headroom)))
	} else {
		lines = append(lines, fmt.Sprintf("%s headroom (%d%%)", FormatMA(data.Headroom), data.HeadroomPct))
	}

	if len(data.Supplies) > 1 {
		for _, s := range data.Supplies {
			if s.TotalCurrentMA == nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", s.DisplayName(), FormatMA(*s.TotalCurrentMA)))
		}
	}
	return lines
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

type CalculationResult struct {
	SupplyID        int             `json:"supply_id"`
	SupplyModel     string          `json:"supply_model"`
	TotalCapacityMA int             `json:"total_capacity_ma"`
	TotalDrawMA     int             `json:"total_draw_ma"`
	RemainingMA     int             `json:"remaining_ma"`
	WithinBudget    bool            `json:"within_budget"`
	Consumers       []PowerConsumer `json:"consumers"`
	Summary         string          `json:"summary"`
}

// Calculate compares one supply's rated capacity against the known draw of
// the given devices. Devices without a power input are skipped.
func Calculate(supply types.DeviceRow, devices []types.DeviceRow) CalculationResult {
	info := SupplyInfo(supply)
	capacity := 0
	if info.TotalCurrentMA != nil {
		capacity = *info.TotalCurrentMA
	}

	consumers := make([]PowerConsumer, 0, len(devices))
	draw := 0
	for _, d := range devices {
		c, ok := ConsumerInfo(d)
		if !ok {
			continue
		}
		consumers = append(consumers, c)
		draw += drawOrZero(c)
	}

	remaining := capacity - draw
	res := CalculationResult{
		SupplyID:        supply.ID,
		SupplyModel:     supply.Model,
		TotalCapacityMA: capacity,
		TotalDrawMA:     draw,
		RemainingMA:     remaining,
		WithinBudget:    remaining >= 0,
		Consumers:       consumers,
	}
	if res.WithinBudget {
		res.Summary = fmt.Sprintf("Total draw: %dmA of %dmA capacity (%dmA headroom).", draw, capacity, remaining)
	} else {
		res.Summary = fmt.Sprintf("Over budget! Need %dmA but supply only provides %dmA (short by %dmA).",
			draw, capacity, -remaining)
	}
	return res
}

type SupplyMatch struct {
	ID              int     `json:"id"`
	Model           string  `json:"model"`
	Manufacturer    string  `json:"manufacturer"`
	TotalCapacityMA int     `json:"total_capacity_ma"`
	RequiredMA      int     `json:"required_ma"`
	HeadroomMA      int     `json:"headroom_ma"`
	MSRPDisplay     *string `json:"msrp_display"`
}

// RequiredDraw sums the known draw of the devices' power inputs.
func RequiredDraw(devices []types.DeviceRow) int {
	total := 0
	for _, d := range devices {
		if c, ok := ConsumerInfo(d); ok {
			total += drawOrZero(c)
		}
	}
	return total
}

// MatchSupplies lists the supplies rated for at least requiredMA, tightest
// fit first.
func MatchSupplies(requiredMA int, supplies []types.Product) []SupplyMatch {
	matches := make([]SupplyMatch, 0)
	for _, p := range supplies {
		if p.ProductType != types.ProductTypePowerSupply {
			continue
		}
		capacity := detailInt(p.Detail, DetailTotalCurrentMA)
		if capacity == nil || *capacity < requiredMA {
			continue
		}
		matches = append(matches, SupplyMatch{
			ID:              p.ID,
			Model:           p.Model,
			Manufacturer:    p.Manufacturer,
			TotalCapacityMA: *capacity,
			RequiredMA:      requiredMA,
			HeadroomMA:      *capacity - requiredMA,
			MSRPDisplay:     FormatMSRP(p.MSRPCents),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].HeadroomMA != matches[j].HeadroomMA {
			return matches[i].HeadroomMA < matches[j].HeadroomMA
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

func FormatMSRP(cents *int) *string {
	if cents == nil {
		return nil
	}
	s := fmt.Sprintf("$%d.%02d", *cents/100, *cents%100)
	return &s
}
