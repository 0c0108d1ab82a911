package events

import (
	"sync"
	"time"
)

type Type string

const (
	TypeWorkbenchUpdated   Type = "workbench_updated"
	TypeConnectionsChanged Type = "connections_changed"
	TypeBudgetChanged      Type = "budget_changed"
)

// All subscribes to every workbench.
const All = ""

type Event struct {
	Type        Type      `json:"type"`
	WorkbenchID string    `json:"workbench_id"`
	Timestamp   time.Time `json:"timestamp"`
	Data        any       `json:"data,omitempty"`
}

// BudgetChange is the payload of TypeBudgetChanged.
type BudgetChange struct {
	WorkbenchName string `json:"workbench_name"`
	Status        string `json:"status"`
	TotalDrawMA   int    `json:"total_draw_ma"`
	CapacityMA    int    `json:"capacity_ma"`
	HeadroomMA    int    `json:"headroom_ma"`
}

type Streamer struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
	buffer      int
}

func NewStreamer() *Streamer {
	return &Streamer{
		subscribers: make(map[string][]chan Event),
		buffer:      100,
	}
}

// Subscribe returns a channel of events for one workbench, or for all of
// them when workbenchID is All.
func (s *Streamer) Subscribe(workbenchID string) <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, s.buffer)
	s.subscribers[workbenchID] = append(s.subscribers[workbenchID], ch)
	return ch
}

func (s *Streamer) Unsubscribe(workbenchID string, ch <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subscribers[workbenchID]
	for i, sub := range subs {
		if sub == ch {
			s.subscribers[workbenchID] = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}
}

// Publish fans out without blocking. Full subscriber buffers drop the event.
func (s *Streamer) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	deliver := func(subs []chan Event) {
		for _, ch := range subs {
			select {
			case ch <- ev:
			default:
			}
		}
	}
	deliver(s.subscribers[ev.WorkbenchID])
	if ev.WorkbenchID != All {
		deliver(s.subscribers[All])
	}
}

// Close closes every subscriber channel.
func (s *Streamer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, subs := range s.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(s.subscribers, id)
	}
}
