package types

type ProductType string

const (
	ProductTypePedal          ProductType = "pedal"
	ProductTypePowerSupply    ProductType = "power_supply"
	ProductTypePedalboard     ProductType = "pedalboard"
	ProductTypeMIDIController ProductType = "midi_controller"
	ProductTypeUtility        ProductType = "utility"
)

var ValidProductTypes = map[ProductType]bool{
	ProductTypePedal:          true,
	ProductTypePowerSupply:    true,
	ProductTypePedalboard:     true,
	ProductTypeMIDIController: true,
	ProductTypeUtility:        true,
}

type JackCategory string

const (
	JackCategoryPower      JackCategory = "power"
	JackCategoryAudio      JackCategory = "audio"
	JackCategoryMIDI       JackCategory = "midi"
	JackCategoryExpression JackCategory = "expression"
	JackCategoryUSB        JackCategory = "usb"
	JackCategoryAux        JackCategory = "aux"
)

type JackDirection string

const (
	DirectionInput         JackDirection = "input"
	DirectionOutput        JackDirection = "output"
	DirectionBidirectional JackDirection = "bidirectional"
)

// Jack is one port on a product. Nil fields are unknown in the catalog.
type Jack struct {
	ID            int           `json:"id" yaml:"id"`
	Category      JackCategory  `json:"category" yaml:"category"`
	Direction     JackDirection `json:"direction" yaml:"direction"`
	JackName      *string       `json:"jack_name" yaml:"jack_name"`
	Position      *string       `json:"position,omitempty" yaml:"position"`
	ConnectorType *string       `json:"connector_type" yaml:"connector_type"`
	Voltage       *string       `json:"voltage" yaml:"voltage"`
	CurrentMA     *int          `json:"current_ma" yaml:"current_ma"`
	Polarity      *string       `json:"polarity" yaml:"polarity"`
	Function      *string       `json:"function,omitempty" yaml:"function"`
	IsIsolated    *bool         `json:"is_isolated" yaml:"is_isolated"`
	GroupID       *string       `json:"group_id,omitempty" yaml:"group_id"`
}

// Isolated reports the isolation flag, which defaults to true when unknown.
func (j Jack) Isolated() bool {
	return j.IsIsolated == nil || *j.IsIsolated
}

func (j Jack) IsPowerInput() bool {
	return j.Category == JackCategoryPower && j.Direction == DirectionInput
}

func (j Jack) IsPowerOutput() bool {
	return j.Category == JackCategoryPower && j.Direction == DirectionOutput
}

type Product struct {
	ID           int            `json:"id" yaml:"id"`
	ProductType  ProductType    `json:"product_type" yaml:"product_type"`
	Manufacturer string         `json:"manufacturer" yaml:"manufacturer"`
	Model        string         `json:"model" yaml:"model"`
	MSRPCents    *int           `json:"msrp_cents,omitempty" yaml:"msrp_cents"`
	Jacks        []Jack         `json:"jacks" yaml:"jacks"`
	Detail       map[string]any `json:"detail,omitempty" yaml:"detail"`
}

func (p Product) DisplayName() string {
	return p.Manufacturer + " " + p.Model
}

// Row binds the product to one workbench instance.
func (p Product) Row(instanceID string) DeviceRow {
	return DeviceRow{
		ID:           p.ID,
		InstanceID:   instanceID,
		ProductType:  p.ProductType,
		Manufacturer: p.Manufacturer,
		Model:        p.Model,
		Jacks:        p.Jacks,
		Detail:       p.Detail,
	}
}

// DeviceRow is the record the power engine consumes. InstanceID is empty
// when the row does not come from a workbench.
type DeviceRow struct {
	ID           int            `json:"id"`
	InstanceID   string         `json:"instance_id,omitempty"`
	ProductType  ProductType    `json:"product_type"`
	Manufacturer string         `json:"manufacturer"`
	Model        string         `json:"model"`
	Jacks        []Jack         `json:"jacks"`
	Detail       map[string]any `json:"detail,omitempty"`
}

func (r DeviceRow) DisplayName() string {
	return r.Manufacturer + " " + r.Model
}

// FindJack returns the jack with the given id.
func (r DeviceRow) FindJack(id int) (Jack, bool) {
	for _, j := range r.Jacks {
		if j.ID == id {
			return j, true
		}
	}
	return Jack{}, false
}
