package types

import "time"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type WorkbenchItem struct {
	InstanceID  string      `json:"instance_id"`
	ProductID   int         `json:"product_id"`
	ProductType ProductType `json:"product_type"`
	AddedAt     time.Time   `json:"added_at"`
	Position    *Point      `json:"position,omitempty"`
	Rotation    *float64    `json:"rotation,omitempty"`
}

// ViewPositions maps a view mode to item positions keyed by instance id.
type ViewPositions map[string]map[string]Point

// PowerConnection is a user-drawn edge from a supply output jack to a
// consumer input jack.
type PowerConnection struct {
	ID                   string   `json:"id"`
	SourceJackID         int      `json:"source_jack_id"`
	TargetJackID         int      `json:"target_jack_id"`
	SourceInstanceID     string   `json:"source_instance_id"`
	TargetInstanceID     string   `json:"target_instance_id"`
	SourceProductID      int      `json:"source_product_id"`
	TargetProductID      int      `json:"target_product_id"`
	AcknowledgedWarnings []string `json:"acknowledged_warnings,omitempty"`
}

type Workbench struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Items            []WorkbenchItem   `json:"items"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	BoardID          *int              `json:"board_id,omitempty"`
	ViewPositions    ViewPositions     `json:"view_positions,omitempty"`
	PowerConnections []PowerConnection `json:"power_connections,omitempty"`
}

// FindItem returns the item with the given instance id.
func (w Workbench) FindItem(instanceID string) (WorkbenchItem, bool) {
	for _, item := range w.Items {
		if item.InstanceID == instanceID {
			return item, true
		}
	}
	return WorkbenchItem{}, false
}
