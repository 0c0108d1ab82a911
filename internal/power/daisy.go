package power

import (
	"strings"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

const groupKeySep = "|"

// ComputeDaisyChainGroups finds clusters of at least two consumers with
// identical voltage, polarity and connector whose combined draw fits on one
// compatible output. Consumers missing any of those fields or their draw
// are not grouped. Groups come back in key discovery order.
func ComputeDaisyChainGroups(consumers []PowerConsumer, outputs []types.Jack) []DaisyChainGroup {
	members := make(map[string][]PowerConsumer)
	keys := make([]string, 0)

	for _, c := range consumers {
		if c.CurrentMA == nil || c.Voltage == nil || c.Polarity == nil || c.ConnectorType == nil {
			continue
		}
		key := strings.Join([]string{*c.Voltage, *c.Polarity, *c.ConnectorType}, groupKeySep)
		if _, seen := members[key]; !seen {
			keys = append(keys, key)
		}
		members[key] = append(members[key], c)
	}

	groups := make([]DaisyChainGroup, 0)
	for _, key := range keys {
		group := members[key]
		if len(group) < 2 {
			continue
		}

		c0 := group[0]
		combined := 0
		for _, c := range group {
			combined += *c.CurrentMA
		}

		maxOutput, found := maxCompatibleOutput(outputs, *c0.Voltage)
		if !found || combined > maxOutput {
			continue
		}

		groups = append(groups, DaisyChainGroup{
			Voltage:       *c0.Voltage,
			Polarity:      *c0.Polarity,
			ConnectorType: *c0.ConnectorType,
			Consumers:     group,
			CombinedMA:    combined,
			MaxOutputMA:   maxOutput,
		})
	}
	return groups
}

// maxCompatibleOutput returns the highest rating among outputs whose
// voltage satisfies the given one. Unknown ratings count as 0.
func maxCompatibleOutput(outputs []types.Jack, voltage string) (int, bool) {
	best, found := 0, false
	for _, j := range outputs {
		if j.Voltage == nil || !VoltagesCompatible(*j.Voltage, voltage) {
			continue
		}
		rating := 0
		if j.CurrentMA != nil {
			rating = *j.CurrentMA
		}
		if !found || rating > best {
			best = rating
		}
		found = true
	}
	return best, found
}
