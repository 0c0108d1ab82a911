package power

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

// Detail keys read from supply records.
const (
	DetailTotalCurrentMA      = "total_current_ma"
	DetailTotalOutputCount    = "total_output_count"
	DetailIsolatedOutputCount = "isolated_output_count"
	DetailSupplyType          = "supply_type"
	DetailAvailableVoltages   = "available_voltages"
	DetailMountingType        = "mounting_type"
)

// PowerInputJack returns the first power input jack of a device.
func PowerInputJack(jacks []types.Jack) (types.Jack, bool) {
	for _, j := range jacks {
		if j.IsPowerInput() {
			return j, true
		}
	}
	return types.Jack{}, false
}

// PowerOutputJacks returns every power output jack in declaration order.
func PowerOutputJacks(jacks []types.Jack) []types.Jack {
	out := make([]types.Jack, 0)
	for _, j := range jacks {
		if j.IsPowerOutput() {
			out = append(out, j)
		}
	}
	return out
}

func countPowerInputs(jacks []types.Jack) int {
	n := 0
	for _, j := range jacks {
		if j.IsPowerInput() {
			n++
		}
	}
	return n
}

// SupplyInfo builds the supply view of a row regardless of its product type.
func SupplyInfo(row types.DeviceRow) PowerSupplyInfo {
	return PowerSupplyInfo{
		ProductID:           row.ID,
		InstanceID:          row.InstanceID,
		Manufacturer:        row.Manufacturer,
		Model:               row.Model,
		TotalCurrentMA:      detailInt(row.Detail, DetailTotalCurrentMA),
		TotalOutputCount:    detailInt(row.Detail, DetailTotalOutputCount),
		IsolatedOutputCount: detailInt(row.Detail, DetailIsolatedOutputCount),
		SupplyType:          detailString(row.Detail, DetailSupplyType),
		AvailableVoltages:   detailString(row.Detail, DetailAvailableVoltages),
		MountingType:        detailString(row.Detail, DetailMountingType),
		OutputJacks:         PowerOutputJacks(row.Jacks),
	}
}

// ConsumerInfo builds the consumer view of a row. ok is false when the row
// has no power input jack.
func ConsumerInfo(row types.DeviceRow) (PowerConsumer, bool) {
	jack, ok := PowerInputJack(row.Jacks)
	if !ok {
		return PowerConsumer{}, false
	}
	return PowerConsumer{
		ProductID:     row.ID,
		InstanceID:    row.InstanceID,
		Manufacturer:  row.Manufacturer,
		Model:         row.Model,
		InputJackID:   jack.ID,
		PowerInputs:   countPowerInputs(row.Jacks),
		CurrentMA:     jack.CurrentMA,
		Voltage:       jack.Voltage,
		Polarity:      jack.Polarity,
		ConnectorType: jack.ConnectorType,
	}, true
}

// ExtractPowerData partitions rows into consumers and supplies and computes
// the aggregate budget. List order follows the input; aggregates do not
// depend on it.
func ExtractPowerData(rows []types.DeviceRow) BudgetData {
	data := BudgetData{
		Consumers:        make([]PowerConsumer, 0),
		Supplies:         make([]PowerSupplyInfo, 0),
		KnownConsumers:   make([]PowerConsumer, 0),
		UnknownConsumers: make([]PowerConsumer, 0),
		UniqueVoltages:   make([]string, 0),
		AllOutputJacks:   make([]types.Jack, 0),
	}

	for _, row := range rows {
		if row.ProductType == types.ProductTypePowerSupply {
			data.Supplies = append(data.Supplies, SupplyInfo(row))
			continue
		}
		if consumer, ok := ConsumerInfo(row); ok {
			data.Consumers = append(data.Consumers, consumer)
		}
	}

	voltages := make(map[string]struct{})
	for i, c := range data.Consumers {
		if c.Voltage != nil {
			voltages[*c.Voltage] = struct{}{}
		}
		if c.CurrentMA == nil {
			data.UnknownConsumers = append(data.UnknownConsumers, c)
			continue
		}
		data.KnownConsumers = append(data.KnownConsumers, c)
		data.TotalDraw += *c.CurrentMA
		if data.HighestDraw == nil || *c.CurrentMA > *data.HighestDraw.CurrentMA {
			data.HighestDraw = &data.Consumers[i]
		}
	}
	for v := range voltages {
		data.UniqueVoltages = append(data.UniqueVoltages, v)
	}
	sort.Strings(data.UniqueVoltages)

	for _, s := range data.Supplies {
		if s.TotalCurrentMA != nil {
			data.TotalCapacity += *s.TotalCurrentMA
		}
		if s.TotalOutputCount != nil {
			data.TotalOutputCount += *s.TotalOutputCount
		}
		data.AllOutputJacks = append(data.AllOutputJacks, s.OutputJacks...)
	}

	switch {
	case len(data.Supplies) == 0:
		data.Status = StatusNoSupply
	case data.TotalCapacity < data.TotalDraw:
		data.Status = StatusInsufficient
	default:
		data.Status = StatusSufficient
	}

	data.Headroom = data.TotalCapacity - data.TotalDraw
	if data.TotalCapacity > 0 {
		data.HeadroomPct = roundHalfUp(float64(data.Headroom) / float64(data.TotalCapacity) * 100)
	}

	return data
}

// roundHalfUp rounds .5 toward positive infinity, so -2.5 becomes -2.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func detailInt(detail map[string]any, key string) *int {
	raw, ok := detail[key]
	if !ok || raw == nil {
		return nil
	}
	var v int
	switch n := raw.(type) {
	case int:
		v = n
	case int32:
		v = int(n)
	case int64:
		v = int(n)
	case uint64:
		v = int(n)
	case float32:
		v = int(n)
	case float64:
		v = int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return nil
			}
			i = int64(f)
		}
		v = int(i)
	default:
		return nil
	}
	return &v
}

func detailString(detail map[string]any, key string) *string {
	raw, ok := detail[key]
	if !ok || raw == nil {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	return &s
}
