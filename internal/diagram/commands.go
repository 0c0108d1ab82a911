package diagram

import (
	"errors"
	"slices"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

var ErrUnknownPort = errors.New("unknown port")

// Command is an edit to a workbench's connection list. Apply never mutates
// its input.
type Command interface {
	Name() string
	Apply(conns []types.PowerConnection) []types.PowerConnection
}

type AddConnection struct {
	Connection types.PowerConnection
}

func (AddConnection) Name() string { return "add_connection" }

func (c AddConnection) Apply(conns []types.PowerConnection) []types.PowerConnection {
	out := make([]types.PowerConnection, 0, len(conns)+1)
	out = append(out, conns...)
	return append(out, c.Connection)
}

type RemoveConnection struct {
	ID string
}

func (RemoveConnection) Name() string { return "remove_connection" }

func (c RemoveConnection) Apply(conns []types.PowerConnection) []types.PowerConnection {
	out := make([]types.PowerConnection, 0, len(conns))
	for _, conn := range conns {
		if conn.ID != c.ID {
			out = append(out, conn)
		}
	}
	return out
}

type ReplaceConnections struct {
	Connections []types.PowerConnection
}

func (ReplaceConnections) Name() string { return "replace_connections" }

func (c ReplaceConnections) Apply([]types.PowerConnection) []types.PowerConnection {
	out := make([]types.PowerConnection, len(c.Connections))
	copy(out, c.Connections)
	return out
}

// AcknowledgeWarning records that the user accepted one warning message on
// a connection. Repeated acknowledgements are kept once.
type AcknowledgeWarning struct {
	ConnectionID string
	Warning      string
}

func (AcknowledgeWarning) Name() string { return "acknowledge_warning" }

func (c AcknowledgeWarning) Apply(conns []types.PowerConnection) []types.PowerConnection {
	out := make([]types.PowerConnection, len(conns))
	for i, conn := range conns {
		if conn.ID == c.ConnectionID && !slices.Contains(conn.AcknowledgedWarnings, c.Warning) {
			acked := make([]string, 0, len(conn.AcknowledgedWarnings)+1)
			acked = append(acked, conn.AcknowledgedWarnings...)
			conn.AcknowledgedWarnings = append(acked, c.Warning)
		}
		out[i] = conn
	}
	return out
}
