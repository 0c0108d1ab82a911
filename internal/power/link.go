package power

import (
	"net/url"
	"strconv"
	"strings"
)

const SupplyCatalogPath = "/power-supplies"

// BuildSupplyLinkURL builds the deep link to supplies able to power a set of
// consumers. Zero or empty inputs are left out of the query.
func BuildSupplyLinkURL(totalDraw, consumerCount, highestDrawMA int, voltages []string) string {
	q := url.Values{}
	if totalDraw > 0 {
		q.Set("minCurrent", strconv.Itoa(totalDraw))
	}
	if consumerCount > 0 {
		q.Set("minOutputs", strconv.Itoa(consumerCount))
	}
	if highestDrawMA > 0 {
		q.Set("minOutputCurrent", strconv.Itoa(highestDrawMA))
	}
	if len(voltages) > 0 {
		q.Set("voltages", strings.Join(voltages, ","))
	}

	if len(q) == 0 {
		return SupplyCatalogPath
	}
	return SupplyCatalogPath + "?" + q.Encode()
}

// SupplyLinkFor derives the link parameters from a budget snapshot.
func SupplyLinkFor(data BudgetData) string {
	highest := 0
	if data.HighestDraw != nil {
		highest = *data.HighestDraw.CurrentMA
	}
	return BuildSupplyLinkURL(data.TotalDraw, len(data.Consumers), highest, data.UniqueVoltages)
}
