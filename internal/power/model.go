package power

import "github.com/KevinKickass/OpenPedalCore/internal/types"

type BudgetStatus string

const (
	StatusNoSupply     BudgetStatus = "no-supply"
	StatusInsufficient BudgetStatus = "insufficient"
	StatusSufficient   BudgetStatus = "sufficient"
)

// PowerConsumer is the power-relevant view of a device with a power input.
// InputJackID is the single input jack the view was built from.
type PowerConsumer struct {
	ProductID     int     `json:"product_id"`
	InstanceID    string  `json:"instance_id,omitempty"`
	Manufacturer  string  `json:"manufacturer"`
	Model         string  `json:"model"`
	InputJackID   int     `json:"input_jack_id"`
	PowerInputs   int     `json:"power_inputs"`
	CurrentMA     *int    `json:"current_ma"`
	Voltage       *string `json:"voltage"`
	Polarity      *string `json:"polarity"`
	ConnectorType *string `json:"connector_type"`
}

func (c PowerConsumer) DisplayName() string {
	return c.Manufacturer + " " + c.Model
}

type PowerSupplyInfo struct {
	ProductID           int          `json:"product_id"`
	InstanceID          string       `json:"instance_id,omitempty"`
	Manufacturer        string       `json:"manufacturer"`
	Model               string       `json:"model"`
	TotalCurrentMA      *int         `json:"total_current_ma"`
	TotalOutputCount    *int         `json:"total_output_count"`
	IsolatedOutputCount *int         `json:"isolated_output_count"`
	SupplyType          *string      `json:"supply_type"`
	AvailableVoltages   *string      `json:"available_voltages"`
	MountingType        *string      `json:"mounting_type"`
	OutputJacks         []types.Jack `json:"output_jacks"`
}

func (s PowerSupplyInfo) DisplayName() string {
	return s.Manufacturer + " " + s.Model
}

// TaggedOutputJack is an output jack annotated with its supply. PortIndex
// is 1-based within the supply's own outputs.
type TaggedOutputJack struct {
	types.Jack
	SupplyName       string `json:"supply_name"`
	SupplyProductID  int    `json:"supply_product_id"`
	SupplyInstanceID string `json:"supply_instance_id,omitempty"`
	PortIndex        int    `json:"port_index"`
}

type PortAssignment struct {
	Consumer PowerConsumer    `json:"consumer"`
	Jack     TaggedOutputJack `json:"jack"`
	Score    int              `json:"score"`
	Notes    []string         `json:"notes"`
}

type AssignmentResult struct {
	Assignments []PortAssignment `json:"assignments"`
	Unassigned  []PowerConsumer  `json:"unassigned"`
}

type DaisyChainGroup struct {
	Voltage       string          `json:"voltage"`
	Polarity      string          `json:"polarity"`
	ConnectorType string          `json:"connector_type"`
	Consumers     []PowerConsumer `json:"consumers"`
	CombinedMA    int             `json:"combined_ma"`
	MaxOutputMA   int             `json:"max_output_ma"`
}

// BudgetData is an immutable snapshot of a device set's power picture.
type BudgetData struct {
	Consumers        []PowerConsumer   `json:"consumers"`
	Supplies         []PowerSupplyInfo `json:"supplies"`
	KnownConsumers   []PowerConsumer   `json:"known_consumers"`
	UnknownConsumers []PowerConsumer   `json:"unknown_consumers"`
	TotalDraw        int               `json:"total_draw"`
	HighestDraw      *PowerConsumer    `json:"highest_draw"`
	TotalCapacity    int               `json:"total_capacity"`
	Status           BudgetStatus      `json:"status"`
	Headroom         int               `json:"headroom"`
	HeadroomPct      int               `json:"headroom_pct"`
	UniqueVoltages   []string          `json:"unique_voltages"`
	TotalOutputCount int               `json:"total_output_count"`
	AllOutputJacks   []types.Jack      `json:"all_output_jacks"`
}
