// Package diagram models the power wiring view: the click-to-connect
// interaction, the edits it produces and the live checks drawn on each edge.
package diagram

import (
	"fmt"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
)

// Side is which end of an edge a port can be. Bidirectional power jacks act
// as inputs.
type Side string

const (
	SideOutput Side = "output"
	SideInput  Side = "input"
)

// Endpoint is one port on one workbench instance.
type Endpoint struct {
	InstanceID string `json:"instance_id"`
	ProductID  int    `json:"product_id"`
	JackID     int    `json:"jack_id"`
	Side       Side   `json:"side"`
}

func (e Endpoint) key() string {
	return fmt.Sprintf("%s:%d", e.InstanceID, e.JackID)
}

// EndpointFor resolves a port on a device in the workbench.
func EndpointFor(devices map[string]types.DeviceRow, instanceID string, jackID int) (Endpoint, error) {
	row, ok := devices[instanceID]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: instance %s", ErrUnknownPort, instanceID)
	}
	jack, ok := row.FindJack(jackID)
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: jack %d on %s", ErrUnknownPort, jackID, instanceID)
	}

	side := SideInput
	if jack.Direction == types.DirectionOutput {
		side = SideOutput
	}
	return Endpoint{InstanceID: instanceID, ProductID: row.ID, JackID: jackID, Side: side}, nil
}

// Interaction is the editor state between clicks. It is a value; every
// transition returns a new one.
type Interaction struct {
	State    State     `json:"state"`
	Pending  *Endpoint `json:"pending,omitempty"`
	Selected string    `json:"selected,omitempty"`
}

func NewInteraction() Interaction {
	return Interaction{State: StateIdle}
}

// Click handles a click on a port. The first click arms a pending endpoint
// and clears any selection. Clicking the same port again, or a port on the
// same side, disarms it. Otherwise an AddConnection running from the
// output side to the input side is returned.
func (in Interaction) Click(ep Endpoint, newID func() string) (Interaction, Command) {
	if in.State != StatePending || in.Pending == nil {
		pending := ep
		return Interaction{State: StatePending, Pending: &pending}, nil
	}

	src := *in.Pending
	idle := Interaction{State: StateIdle, Selected: in.Selected}
	if src.key() == ep.key() || src.Side == ep.Side {
		return idle, nil
	}

	out, inp := src, ep
	if src.Side == SideInput {
		out, inp = ep, src
	}
	return idle, AddConnection{Connection: types.PowerConnection{
		ID:               newID(),
		SourceJackID:     out.JackID,
		TargetJackID:     inp.JackID,
		SourceInstanceID: out.InstanceID,
		TargetInstanceID: inp.InstanceID,
		SourceProductID:  out.ProductID,
		TargetProductID:  inp.ProductID,
	}}
}

// Cancel drops both the pending endpoint and the selection.
func (in Interaction) Cancel() Interaction {
	return NewInteraction()
}

// Select highlights a connection and disarms any pending endpoint.
func (in Interaction) Select(connectionID string) Interaction {
	return Interaction{State: StateIdle, Selected: connectionID}
}

// DeleteSelected removes the selected connection, if any.
func (in Interaction) DeleteSelected() (Interaction, Command) {
	if in.Selected == "" {
		return in, nil
	}
	next := in
	next.Selected = ""
	return next, RemoveConnection{ID: in.Selected}
}
