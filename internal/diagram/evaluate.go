package diagram

import (
	"slices"

	"github.com/KevinKickass/OpenPedalCore/internal/power"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

type ConnectionStatus struct {
	ConnectionID string         `json:"connection_id"`
	Status       power.Severity `json:"status"`
	Warnings     []string       `json:"warnings"`
	Acknowledged bool           `json:"acknowledged"`
	CumulativeMA int            `json:"cumulative_ma"`
}

type outputKey struct {
	instanceID string
	jackID     int
}

// Evaluate checks every connection against the jacks it joins. Each output's
// load is the summed draw of all inputs wired to it. Connections whose
// jacks cannot be resolved are reported valid.
func Evaluate(conns []types.PowerConnection, devices map[string]types.DeviceRow) []ConnectionStatus {
	load := make(map[outputKey]int)
	for _, conn := range conns {
		if input, ok := jackOf(devices, conn.TargetInstanceID, conn.TargetJackID); ok && input.CurrentMA != nil {
			load[outputKey{conn.SourceInstanceID, conn.SourceJackID}] += *input.CurrentMA
		}
	}

	out := make([]ConnectionStatus, 0, len(conns))
	for _, conn := range conns {
		cumulative := load[outputKey{conn.SourceInstanceID, conn.SourceJackID}]
		status := ConnectionStatus{
			ConnectionID: conn.ID,
			Status:       power.SevValid,
			Warnings:     []string{},
			CumulativeMA: cumulative,
		}

		output, okOut := jackOf(devices, conn.SourceInstanceID, conn.SourceJackID)
		input, okIn := jackOf(devices, conn.TargetInstanceID, conn.TargetJackID)
		if okOut && okIn {
			check := power.ValidateConnection(output, input, &cumulative)
			status.Status = check.Status
			status.Warnings = check.Warnings
		}
		status.Acknowledged = acknowledged(conn.AcknowledgedWarnings, status.Warnings)
		out = append(out, status)
	}
	return out
}

// acknowledged is true when there is at least one acknowledgement and it
// covers every current warning.
func acknowledged(acked, warnings []string) bool {
	if len(acked) == 0 {
		return false
	}
	for _, w := range warnings {
		if !slices.Contains(acked, w) {
			return false
		}
	}
	return true
}

func jackOf(devices map[string]types.DeviceRow, instanceID string, jackID int) (types.Jack, bool) {
	row, ok := devices[instanceID]
	if !ok {
		return types.Jack{}, false
	}
	return row.FindJack(jackID)
}

// AutoAssign turns a port assignment into connections, one per assigned
// consumer present in devices.
func AutoAssign(result power.AssignmentResult, devices map[string]types.DeviceRow, newID func() string) []types.PowerConnection {
	conns := make([]types.PowerConnection, 0, len(result.Assignments))
	for _, a := range result.Assignments {
		row, ok := devices[a.Consumer.InstanceID]
		if !ok {
			continue
		}
		if _, ok := row.FindJack(a.Consumer.InputJackID); !ok {
			continue
		}
		conns = append(conns, types.PowerConnection{
			ID:               newID(),
			SourceJackID:     a.Jack.ID,
			TargetJackID:     a.Consumer.InputJackID,
			SourceInstanceID: a.Jack.SupplyInstanceID,
			TargetInstanceID: a.Consumer.InstanceID,
			SourceProductID:  a.Jack.SupplyProductID,
			TargetProductID:  a.Consumer.ProductID,
		})
	}
	return conns
}
