package power

import "github.com/KevinKickass/OpenPedalCore/internal/types"

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }
func boolp(b bool) *bool    { return &b }

func powerIn(id int, voltage string, ma int, polarity, connector string) types.Jack {
	return types.Jack{
		ID:            id,
		Category:      types.JackCategoryPower,
		Direction:     types.DirectionInput,
		Voltage:       strp(voltage),
		CurrentMA:     intp(ma),
		Polarity:      strp(polarity),
		ConnectorType: strp(connector),
	}
}

func powerOut(id int, voltage string, ma int, polarity, connector string, isolated bool) types.Jack {
	return types.Jack{
		ID:            id,
		Category:      types.JackCategoryPower,
		Direction:     types.DirectionOutput,
		Voltage:       strp(voltage),
		CurrentMA:     intp(ma),
		Polarity:      strp(polarity),
		ConnectorType: strp(connector),
		IsIsolated:    boolp(isolated),
	}
}

func pedal(id int, model string, jacks ...types.Jack) types.DeviceRow {
	return types.DeviceRow{
		ID:           id,
		ProductType:  types.ProductTypePedal,
		Manufacturer: "Boss",
		Model:        model,
		Jacks:        jacks,
		Detail:       map[string]any{},
	}
}

func supply(id int, model string, capacity, outputs int, jacks ...types.Jack) types.DeviceRow {
	return types.DeviceRow{
		ID:           id,
		ProductType:  types.ProductTypePowerSupply,
		Manufacturer: "Acme",
		Model:        model,
		Jacks:        jacks,
		Detail: map[string]any{
			DetailTotalCurrentMA:   capacity,
			DetailTotalOutputCount: outputs,
		},
	}
}

const (
	cn     = "Center Negative"
	cp     = "Center Positive"
	barrel = "2.1mm barrel"
)
