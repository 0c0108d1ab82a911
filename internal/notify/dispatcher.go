// Package notify sends over-budget alerts through shoutrrr service URLs.
package notify

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KevinKickass/OpenPedalCore/internal/events"
	"github.com/KevinKickass/OpenPedalCore/internal/power"
	"github.com/nicholas-fedor/shoutrrr"
	"go.uber.org/zap"
)

// Sender delivers one message to one service URL.
type Sender interface {
	Send(url, message string) error
}

type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

type Stats struct {
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Suppressed int64 `json:"suppressed"`
}

// Dispatcher watches budget events and alerts when a workbench draws more
// than its supplies provide. Each workbench alerts at most once per cooldown.
type Dispatcher struct {
	streamer *events.Streamer
	sender   Sender
	urls     []string
	cooldown time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time

	sent, failed, suppressed atomic.Int64

	sub    <-chan events.Event
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewDispatcher(streamer *events.Streamer, sender Sender, urls []string, cooldown time.Duration, logger *zap.Logger) *Dispatcher {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	return &Dispatcher{
		streamer: streamer,
		sender:   sender,
		urls:     urls,
		cooldown: cooldown,
		logger:   logger,
		now:      time.Now,
		lastSent: make(map[string]time.Time),
		stopCh:   make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	d.sub = d.streamer.Subscribe(events.All)
	d.logger.Info("Notification dispatcher started",
		zap.Int("services", len(d.urls)),
		zap.Duration("cooldown", d.cooldown))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case ev, ok := <-d.sub:
				if !ok {
					return
				}
				d.handle(ev)
			case <-d.stopCh:
				return
			}
		}
	}()
}

func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
	d.streamer.Unsubscribe(events.All, d.sub)
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:       d.sent.Load(),
		Failed:     d.failed.Load(),
		Suppressed: d.suppressed.Load(),
	}
}

func (d *Dispatcher) handle(ev events.Event) {
	if ev.Type != events.TypeBudgetChanged {
		return
	}
	change, ok := ev.Data.(events.BudgetChange)
	if !ok || change.Status != string(power.StatusInsufficient) {
		return
	}

	if !d.claim(ev.WorkbenchID) {
		d.suppressed.Add(1)
		d.logger.Debug("Budget alert suppressed by cooldown", zap.String("workbench", ev.WorkbenchID))
		return
	}

	message := Message(change)
	for _, url := range d.urls {
		if err := d.sender.Send(url, message); err != nil {
			d.failed.Add(1)
			d.logger.Warn("Failed to send budget alert",
				zap.String("workbench", ev.WorkbenchID),
				zap.Error(err))
			continue
		}
		d.sent.Add(1)
	}
}

// claim reserves the alert slot for a workbench if its cooldown has passed.
func (d *Dispatcher) claim(workbenchID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.lastSent[workbenchID]; ok && now.Sub(last) < d.cooldown {
		return false
	}
	d.lastSent[workbenchID] = now
	return true
}

// Message renders the alert text for an over-budget workbench.
func Message(change events.BudgetChange) string {
	return fmt.Sprintf("Power budget exceeded on %q: drawing %s of %s capacity (short by %s).",
		change.WorkbenchName,
		power.FormatMA(change.TotalDrawMA),
		power.FormatMA(change.CapacityMA),
		power.FormatMA(-change.HeadroomMA))
}
