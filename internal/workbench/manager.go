// Package workbench keeps the user's named device collections, their canvas
// layout and their power wiring.
package workbench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/KevinKickass/OpenPedalCore/internal/diagram"
	"github.com/KevinKickass/OpenPedalCore/internal/events"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound           = errors.New("workbench not found")
	ErrItemNotFound       = errors.New("workbench item not found")
	ErrConnectionNotFound = errors.New("power connection not found")
	ErrInvalidName        = errors.New("workbench name must not be empty")
	ErrNoCatalog          = errors.New("no product catalog configured")
)

const (
	DefaultStorageKey = "pedal_shootout_workbenches"
	DefaultName       = "My Workbench"

	// Active addresses the active workbench wherever an id is expected.
	Active = "active"
)

// ProductSource resolves catalog products for workbench items.
type ProductSource interface {
	GetMany(ctx context.Context, ids []int) ([]types.Product, error)
}

type Options struct {
	StorageKey  string
	DefaultName string
}

type state struct {
	Workbenches       []types.Workbench `json:"workbenches"`
	ActiveWorkbenchID string            `json:"active_workbench_id"`
}

type Manager struct {
	mu           sync.RWMutex
	st           state
	interactions map[string]diagram.Interaction

	store    Store
	products ProductSource
	streamer *events.Streamer
	opts     Options
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewManager(store Store, products ProductSource, streamer *events.Streamer, opts Options, logger *zap.Logger) *Manager {
	if opts.StorageKey == "" {
		opts.StorageKey = DefaultStorageKey
	}
	if opts.DefaultName == "" {
		opts.DefaultName = DefaultName
	}

	m := &Manager{
		interactions: make(map[string]diagram.Interaction),
		store:        store,
		products:     products,
		streamer:     streamer,
		opts:         opts,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	m.st = m.defaultState()
	return m
}

func (m *Manager) defaultWorkbench() types.Workbench {
	now := m.now()
	return types.Workbench{
		ID:        m.newID(),
		Name:      m.opts.DefaultName,
		Items:     []types.WorkbenchItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (m *Manager) defaultState() state {
	wb := m.defaultWorkbench()
	return state{Workbenches: []types.Workbench{wb}, ActiveWorkbenchID: wb.ID}
}

// Load replaces the in-memory state with the stored one. Missing, corrupt
// or empty state falls back to a single default workbench; a dangling
// active id is repointed at the first workbench and items written without
// an instance id get one.
func (m *Manager) Load(ctx context.Context) {
	st := m.decode(ctx)

	m.mu.Lock()
	m.st = st
	m.interactions = make(map[string]diagram.Interaction)
	m.mu.Unlock()

	m.logger.Info("Workbenches loaded",
		zap.Int("workbenches", len(st.Workbenches)),
		zap.String("active", st.ActiveWorkbenchID))
}

func (m *Manager) decode(ctx context.Context) state {
	raw, err := m.store.Load(ctx, m.opts.StorageKey)
	if err != nil {
		m.logger.Warn("Failed to load workbench state, starting fresh", zap.Error(err))
		return m.defaultState()
	}
	if raw == nil {
		return m.defaultState()
	}

	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		m.logger.Warn("Corrupt workbench state, starting fresh", zap.Error(err))
		return m.defaultState()
	}
	if len(st.Workbenches) == 0 || st.ActiveWorkbenchID == "" {
		return m.defaultState()
	}

	found := false
	for _, wb := range st.Workbenches {
		if wb.ID == st.ActiveWorkbenchID {
			found = true
			break
		}
	}
	if !found {
		m.logger.Warn("Active workbench missing, using first",
			zap.String("active", st.ActiveWorkbenchID))
		st.ActiveWorkbenchID = st.Workbenches[0].ID
	}

	migrated := 0
	for i := range st.Workbenches {
		wb := &st.Workbenches[i]
		if wb.Items == nil {
			wb.Items = []types.WorkbenchItem{}
		}
		for j := range wb.Items {
			if wb.Items[j].InstanceID == "" {
				wb.Items[j].InstanceID = m.newID()
				migrated++
			}
		}
	}
	if migrated > 0 {
		m.logger.Info("Assigned instance ids to legacy items", zap.Int("items", migrated))
	}
	return st
}

// persist writes the state. Failures are logged and swallowed.
func (m *Manager) persist(ctx context.Context, data []byte) {
	if data == nil {
		return
	}
	if err := m.store.Save(ctx, m.opts.StorageKey, data); err != nil {
		m.logger.Warn("Failed to save workbench state", zap.Error(err))
	}
}

// encodeLocked must be called with mu held.
func (m *Manager) encodeLocked() []byte {
	data, err := json.Marshal(m.st)
	if err != nil {
		m.logger.Error("Failed to encode workbench state", zap.Error(err))
		return nil
	}
	return data
}

func (m *Manager) publish(typ events.Type, wb types.Workbench, data any) {
	if m.streamer == nil {
		return
	}
	m.streamer.Publish(events.Event{Type: typ, WorkbenchID: wb.ID, Timestamp: m.now(), Data: data})
}

// indexLocked resolves an id, Active or "" to a slice index, or -1.
func (m *Manager) indexLocked(id string) int {
	if id == "" || id == Active {
		id = m.st.ActiveWorkbenchID
	}
	for i, wb := range m.st.Workbenches {
		if wb.ID == id {
			return i
		}
	}
	return -1
}

// mutate applies fn to a copy of one workbench and commits it on success.
func (m *Manager) mutate(ctx context.Context, id string, typ events.Type, fn func(wb *types.Workbench) error) (types.Workbench, error) {
	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return types.Workbench{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	wb := clone(m.st.Workbenches[idx])
	if err := fn(&wb); err != nil {
		m.mu.Unlock()
		return types.Workbench{}, err
	}
	wb.UpdatedAt = m.now()
	m.st.Workbenches[idx] = wb
	data := m.encodeLocked()
	m.mu.Unlock()

	m.persist(ctx, data)
	m.publish(typ, wb, nil)
	return clone(wb), nil
}

func (m *Manager) List() ([]types.Workbench, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Workbench, 0, len(m.st.Workbenches))
	for _, wb := range m.st.Workbenches {
		out = append(out, clone(wb))
	}
	return out, m.st.ActiveWorkbenchID
}

func (m *Manager) Get(id string) (types.Workbench, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.indexLocked(id)
	if idx < 0 {
		return types.Workbench{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(m.st.Workbenches[idx]), nil
}

// ActiveWorkbench never fails: the state always holds one workbench.
func (m *Manager) ActiveWorkbench() types.Workbench {
	wb, err := m.Get(Active)
	if err != nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return clone(m.st.Workbenches[0])
	}
	return wb
}

// Create adds an empty workbench and makes it active.
func (m *Manager) Create(ctx context.Context, name string) (types.Workbench, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Workbench{}, ErrInvalidName
	}

	now := m.now()
	wb := types.Workbench{
		ID:        m.newID(),
		Name:      name,
		Items:     []types.WorkbenchItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.st.Workbenches = append(m.st.Workbenches, wb)
	m.st.ActiveWorkbenchID = wb.ID
	data := m.encodeLocked()
	m.mu.Unlock()

	m.persist(ctx, data)
	m.publish(events.TypeWorkbenchUpdated, wb, nil)
	m.logger.Info("Workbench created", zap.String("id", wb.ID), zap.String("name", name))
	return clone(wb), nil
}

func (m *Manager) Rename(ctx context.Context, id, name string) (types.Workbench, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Workbench{}, ErrInvalidName
	}
	return m.mutate(ctx, id, events.TypeWorkbenchUpdated, func(wb *types.Workbench) error {
		wb.Name = name
		return nil
	})
}

// Delete removes a workbench. Deleting the last one leaves a fresh default
// workbench in its place; deleting the active one activates the first
// remaining.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := m.st.Workbenches[idx]

	remaining := make([]types.Workbench, 0, len(m.st.Workbenches)-1)
	remaining = append(remaining, m.st.Workbenches[:idx]...)
	remaining = append(remaining, m.st.Workbenches[idx+1:]...)
	if len(remaining) == 0 {
		fallback := m.defaultWorkbench()
		remaining = append(remaining, fallback)
		m.st.ActiveWorkbenchID = fallback.ID
	} else if m.st.ActiveWorkbenchID == removed.ID {
		m.st.ActiveWorkbenchID = remaining[0].ID
	}
	m.st.Workbenches = remaining
	delete(m.interactions, removed.ID)
	data := m.encodeLocked()
	m.mu.Unlock()

	m.persist(ctx, data)
	m.publish(events.TypeWorkbenchUpdated, removed, map[string]bool{"deleted": true})
	m.logger.Info("Workbench deleted", zap.String("id", removed.ID))
	return nil
}

func (m *Manager) SetActive(ctx context.Context, id string) error {
	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	wb := m.st.Workbenches[idx]
	m.st.ActiveWorkbenchID = wb.ID
	data := m.encodeLocked()
	m.mu.Unlock()

	m.persist(ctx, data)
	m.publish(events.TypeWorkbenchUpdated, wb, map[string]bool{"active": true})
	return nil
}

// AddItem places a new instance of a product on the workbench.
func (m *Manager) AddItem(ctx context.Context, id string, productID int, productType types.ProductType) (types.WorkbenchItem, error) {
	item := types.WorkbenchItem{
		InstanceID:  m.newID(),
		ProductID:   productID,
		ProductType: productType,
		AddedAt:     m.now(),
	}
	wb, err := m.mutate(ctx, id, events.TypeWorkbenchUpdated, func(wb *types.Workbench) error {
		wb.Items = append(wb.Items, item)
		return nil
	})
	if err != nil {
		return types.WorkbenchItem{}, err
	}
	m.publishBudget(ctx, wb)
	return item, nil
}

// RemoveItem drops one instance together with its connections and canvas
// positions.
func (m *Manager) RemoveItem(ctx context.Context, id, instanceID string) error {
	wb, err := m.mutate(ctx, id, events.TypeWorkbenchUpdated, func(wb *types.Workbench) error {
		if _, ok := wb.FindItem(instanceID); !ok {
			return fmt.Errorf("%w: %s", ErrItemNotFound, instanceID)
		}
		dropInstances(wb, func(item types.WorkbenchItem) bool { return item.InstanceID == instanceID })
		return nil
	})
	if err != nil {
		return err
	}
	m.publishBudget(ctx, wb)
	return nil
}

// RemoveAllInstances drops every instance of a product and reports how
// many were removed.
func (m *Manager) RemoveAllInstances(ctx context.Context, id string, productID int) (int, error) {
	removed := 0
	wb, err := m.mutate(ctx, id, events.TypeWorkbenchUpdated, func(wb *types.Workbench) error {
		removed = dropInstances(wb, func(item types.WorkbenchItem) bool { return item.ProductID == productID })
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.publishBudget(ctx, wb)
	}
	return removed, nil
}

func (m *Manager) Count(id string, productID int) (int, error) {
	wb, err := m.Get(id)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, item := range wb.Items {
		if item.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (m *Manager) TotalItemCount(id string) (int, error) {
	wb, err := m.Get(id)
	if err != nil {
		return 0, err
	}
	return len(wb.Items), nil
}

// Clear empties the workbench, dropping its connections with the items.
func (m *Manager) Clear(ctx context.Context, id string) error {
	wb, err := m.mutate(ctx, id, events.TypeWorkbenchUpdated, func(wb *types.Workbench) error {
		wb.Items = []types.WorkbenchItem{}
		wb.PowerConnections = nil
		return nil
	})
	if err != nil {
		return err
	}
	m.publishBudget(ctx, wb)
	return nil
}

func (m *Manager) SetViewPosition(ctx context.Context, id, view, instanceID string, p types.Point) error {
	_, err := m.mutate(ctx, id, events.TypeWorkbenchUpdated, func(wb *types.Workbench) error {
		if wb.ViewPositions == nil {
			wb.ViewPositions = types.ViewPositions{}
		}
		if wb.ViewPositions[view] == nil {
			wb.ViewPositions[view] = map[string]types.Point{}
		}
		wb.ViewPositions[view][instanceID] = p
		return nil
	})
	return err
}

// ViewPositions returns the positions stored for one view, empty when none.
func (m *Manager) ViewPositions(id, view string) (map[string]types.Point, error) {
	wb, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.Point, len(wb.ViewPositions[view]))
	for k, v := range wb.ViewPositions[view] {
		out[k] = v
	}
	return out, nil
}

// dropInstances removes matching items and everything keyed by their
// instance ids. It returns the number of items removed.
func dropInstances(wb *types.Workbench, match func(types.WorkbenchItem) bool) int {
	gone := make(map[string]bool)
	kept := make([]types.WorkbenchItem, 0, len(wb.Items))
	for _, item := range wb.Items {
		if match(item) {
			gone[item.InstanceID] = true
			continue
		}
		kept = append(kept, item)
	}
	if len(gone) == 0 {
		return 0
	}
	wb.Items = kept

	if wb.PowerConnections != nil {
		conns := make([]types.PowerConnection, 0, len(wb.PowerConnections))
		for _, c := range wb.PowerConnections {
			if !gone[c.SourceInstanceID] && !gone[c.TargetInstanceID] {
				conns = append(conns, c)
			}
		}
		wb.PowerConnections = conns
	}
	for _, positions := range wb.ViewPositions {
		for instanceID := range gone {
			delete(positions, instanceID)
		}
	}
	return len(gone)
}

func clone(wb types.Workbench) types.Workbench {
	out := wb
	out.Items = append([]types.WorkbenchItem{}, wb.Items...)
	if wb.BoardID != nil {
		b := *wb.BoardID
		out.BoardID = &b
	}
	if wb.PowerConnections != nil {
		out.PowerConnections = make([]types.PowerConnection, len(wb.PowerConnections))
		for i, c := range wb.PowerConnections {
			if c.AcknowledgedWarnings != nil {
				c.AcknowledgedWarnings = append([]string{}, c.AcknowledgedWarnings...)
			}
			out.PowerConnections[i] = c
		}
	}
	if wb.ViewPositions != nil {
		out.ViewPositions = make(types.ViewPositions, len(wb.ViewPositions))
		for view, positions := range wb.ViewPositions {
			cp := make(map[string]types.Point, len(positions))
			for k, v := range positions {
				cp[k] = v
			}
			out.ViewPositions[view] = cp
		}
	}
	return out
}
