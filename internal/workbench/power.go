package workbench

import (
	"context"
	"fmt"

	"github.com/KevinKickass/OpenPedalCore/internal/diagram"
	"github.com/KevinKickass/OpenPedalCore/internal/events"
	"github.com/KevinKickass/OpenPedalCore/internal/power"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"go.uber.org/zap"
)

// PowerView is everything the power tab of a workbench shows.
type PowerView struct {
	power.Analysis
	Connections []diagram.ConnectionStatus `json:"connections"`
	Interaction diagram.Interaction        `json:"interaction"`
}

// Devices resolves the items of a workbench against the catalog, in item
// order. Items whose product is no longer in the catalog are skipped.
func (m *Manager) Devices(ctx context.Context, id string) ([]types.DeviceRow, error) {
	wb, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return m.rows(ctx, wb)
}

func (m *Manager) rows(ctx context.Context, wb types.Workbench) ([]types.DeviceRow, error) {
	if m.products == nil {
		return nil, ErrNoCatalog
	}

	ids := make([]int, 0, len(wb.Items))
	seen := make(map[int]bool)
	for _, item := range wb.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := m.products.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workbench products: %w", err)
	}
	byID := make(map[int]types.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	rows := make([]types.DeviceRow, 0, len(wb.Items))
	for _, item := range wb.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		rows = append(rows, p.Row(item.InstanceID))
	}
	return rows, nil
}

func byInstance(rows []types.DeviceRow) map[string]types.DeviceRow {
	out := make(map[string]types.DeviceRow, len(rows))
	for _, r := range rows {
		out[r.InstanceID] = r
	}
	return out
}

// Power analyses a workbench and checks its drawn connections.
func (m *Manager) Power(ctx context.Context, id string) (PowerView, error) {
	wb, err := m.Get(id)
	if err != nil {
		return PowerView{}, err
	}
	rows, err := m.rows(ctx, wb)
	if err != nil {
		return PowerView{}, err
	}

	m.mu.RLock()
	in, ok := m.interactions[wb.ID]
	m.mu.RUnlock()
	if !ok {
		in = diagram.NewInteraction()
	}

	return PowerView{
		Analysis:    power.Analyze(rows),
		Connections: diagram.Evaluate(wb.PowerConnections, byInstance(rows)),
		Interaction: in,
	}, nil
}

func (m *Manager) publishBudget(ctx context.Context, wb types.Workbench) {
	if m.streamer == nil || m.products == nil {
		return
	}
	rows, err := m.rows(ctx, wb)
	if err != nil {
		m.logger.Warn("Failed to compute workbench budget",
			zap.String("workbench", wb.ID), zap.Error(err))
		return
	}
	data := power.ExtractPowerData(rows)
	m.publish(events.TypeBudgetChanged, wb, events.BudgetChange{
		WorkbenchName: wb.Name,
		Status:        string(data.Status),
		TotalDrawMA:   data.TotalDraw,
		CapacityMA:    data.TotalCapacity,
		HeadroomMA:    data.Headroom,
	})
}

// Apply runs a diagram command against the workbench's connections.
func (m *Manager) Apply(ctx context.Context, id string, cmd diagram.Command) ([]types.PowerConnection, error) {
	wb, err := m.mutate(ctx, id, events.TypeConnectionsChanged, func(wb *types.Workbench) error {
		switch c := cmd.(type) {
		case diagram.RemoveConnection:
			if !hasConnection(wb.PowerConnections, c.ID) {
				return fmt.Errorf("%w: %s", ErrConnectionNotFound, c.ID)
			}
		case diagram.AcknowledgeWarning:
			if !hasConnection(wb.PowerConnections, c.ConnectionID) {
				return fmt.Errorf("%w: %s", ErrConnectionNotFound, c.ConnectionID)
			}
		}
		wb.PowerConnections = cmd.Apply(wb.PowerConnections)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("Diagram command applied",
		zap.String("workbench", wb.ID),
		zap.String("command", cmd.Name()),
		zap.Int("connections", len(wb.PowerConnections)))
	return wb.PowerConnections, nil
}

// AddConnection stores a connection, assigning an id when it has none.
func (m *Manager) AddConnection(ctx context.Context, id string, conn types.PowerConnection) (types.PowerConnection, error) {
	if conn.ID == "" {
		conn.ID = m.newID()
	}
	if _, err := m.Apply(ctx, id, diagram.AddConnection{Connection: conn}); err != nil {
		return types.PowerConnection{}, err
	}
	return conn, nil
}

func (m *Manager) RemoveConnection(ctx context.Context, id, connID string) error {
	_, err := m.Apply(ctx, id, diagram.RemoveConnection{ID: connID})
	return err
}

// SetConnections replaces the whole connection list. Entries without an id
// get one.
func (m *Manager) SetConnections(ctx context.Context, id string, conns []types.PowerConnection) ([]types.PowerConnection, error) {
	out := make([]types.PowerConnection, len(conns))
	for i, c := range conns {
		if c.ID == "" {
			c.ID = m.newID()
		}
		out[i] = c
	}
	return m.Apply(ctx, id, diagram.ReplaceConnections{Connections: out})
}

func (m *Manager) AcknowledgeWarning(ctx context.Context, id, connID, warning string) ([]types.PowerConnection, error) {
	return m.Apply(ctx, id, diagram.AcknowledgeWarning{ConnectionID: connID, Warning: warning})
}

// AutoAssign replaces the connections with the greedy port assignment.
func (m *Manager) AutoAssign(ctx context.Context, id string) ([]types.PowerConnection, error) {
	rows, err := m.Devices(ctx, id)
	if err != nil {
		return nil, err
	}
	data := power.ExtractPowerData(rows)
	result := power.AssignPedalsToOutputs(data.Consumers, data.Supplies)
	conns := diagram.AutoAssign(result, byInstance(rows), m.newID)

	m.resetInteraction(id)
	return m.Apply(ctx, id, diagram.ReplaceConnections{Connections: conns})
}

func hasConnection(conns []types.PowerConnection, id string) bool {
	for _, c := range conns {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Interaction returns the diagram editor state of a workbench.
func (m *Manager) Interaction(id string) (diagram.Interaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return diagram.Interaction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if in, ok := m.interactions[m.st.Workbenches[idx].ID]; ok {
		return in, nil
	}
	return diagram.NewInteraction(), nil
}

func (m *Manager) setInteraction(id string, in diagram.Interaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.indexLocked(id); idx >= 0 {
		m.interactions[m.st.Workbenches[idx].ID] = in
	}
}

func (m *Manager) resetInteraction(id string) {
	m.setInteraction(id, diagram.NewInteraction())
}

// ClickPort feeds a port click into the diagram editor and applies the
// resulting edit, if any.
func (m *Manager) ClickPort(ctx context.Context, id, instanceID string, jackID int) (diagram.Interaction, error) {
	rows, err := m.Devices(ctx, id)
	if err != nil {
		return diagram.Interaction{}, err
	}
	ep, err := diagram.EndpointFor(byInstance(rows), instanceID, jackID)
	if err != nil {
		return diagram.Interaction{}, err
	}

	in, err := m.Interaction(id)
	if err != nil {
		return diagram.Interaction{}, err
	}
	next, cmd := in.Click(ep, m.newID)
	m.setInteraction(id, next)

	if cmd != nil {
		if _, err := m.Apply(ctx, id, cmd); err != nil {
			return next, err
		}
	}
	return next, nil
}

func (m *Manager) CancelInteraction(id string) (diagram.Interaction, error) {
	in, err := m.Interaction(id)
	if err != nil {
		return diagram.Interaction{}, err
	}
	next := in.Cancel()
	m.setInteraction(id, next)
	return next, nil
}

func (m *Manager) SelectConnection(id, connID string) (diagram.Interaction, error) {
	wb, err := m.Get(id)
	if err != nil {
		return diagram.Interaction{}, err
	}
	if !hasConnection(wb.PowerConnections, connID) {
		return diagram.Interaction{}, fmt.Errorf("%w: %s", ErrConnectionNotFound, connID)
	}
	in, err := m.Interaction(id)
	if err != nil {
		return diagram.Interaction{}, err
	}
	next := in.Select(connID)
	m.setInteraction(id, next)
	return next, nil
}

// DeleteSelected removes the selected connection, if one is selected.
func (m *Manager) DeleteSelected(ctx context.Context, id string) (diagram.Interaction, error) {
	in, err := m.Interaction(id)
	if err != nil {
		return diagram.Interaction{}, err
	}
	next, cmd := in.DeleteSelected()
	m.setInteraction(id, next)
	if cmd != nil {
		if _, err := m.Apply(ctx, id, cmd); err != nil {
			return next, err
		}
	}
	return next, nil
}
