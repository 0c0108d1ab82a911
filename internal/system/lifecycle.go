package system

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KevinKickass/OpenPedalCore/internal/interfaces"
	"go.uber.org/zap"
)

const defaultRollbackTimeout = 5 * time.Second

// LifecycleManager starts the registered components in order, watches them
// while running and stops them in reverse order.
type LifecycleManager struct {
	logger *zap.Logger

	components []interfaces.Component
	started    []interfaces.Component

	stateMu      sync.RWMutex
	currentState SystemState
	lastErr      error

	listenersMu     sync.RWMutex
	statusListeners []chan SystemStatus

	failures     chan error
	shutdownChan chan struct{}
	shutdownOnce sync.Once

	rollbackTimeout time.Duration
}

func NewLifecycleManager(logger *zap.Logger, components ...interfaces.Component) *LifecycleManager {
	return &LifecycleManager{
		logger:          logger,
		components:      components,
		currentState:    StateInitializing,
		failures:        make(chan error, 1),
		shutdownChan:    make(chan struct{}),
		statusListeners: make([]chan SystemStatus, 0),
		rollbackTimeout: defaultRollbackTimeout,
	}
}

// Register appends components. It must be called before Start.
func (lm *LifecycleManager) Register(components ...interfaces.Component) {
	lm.components = append(lm.components, components...)
}

// Start starts the entire system. When a component fails to start, the ones
// already running are stopped again and the system ends in ERROR.
func (lm *LifecycleManager) Start() error {
	if state := lm.State(); state != StateInitializing {
		return fmt.Errorf("cannot start: system is %s", state)
	}
	lm.logger.Info("Starting OpenPedalCore", zap.Int("components", len(lm.components)))

	for _, c := range lm.components {
		if err := c.Start(); err != nil {
			err = fmt.Errorf("failed to start %s: %w", c.Name(), err)
			lm.rollback()
			lm.setError(err)
			return err
		}
		lm.started = append(lm.started, c)
		lm.logger.Debug("Component started", zap.String("component", c.Name()))

		if fr, ok := c.(interfaces.FailureReporter); ok {
			go lm.watch(c.Name(), fr.Failures())
		}
	}

	if err := lm.transition(StateRunning); err != nil {
		return err
	}
	lm.logger.Info("System started successfully")
	return nil
}

func (lm *LifecycleManager) rollback() {
	ctx, cancel := context.WithTimeout(context.Background(), lm.rollbackTimeout)
	defer cancel()
	if err := lm.stopStarted(ctx); err != nil {
		lm.logger.Warn("Rollback incomplete", zap.Error(err))
	}
}

func (lm *LifecycleManager) watch(name string, failures <-chan error) {
	if failures == nil {
		return
	}
	for err := range failures {
		if err == nil {
			continue
		}
		err = fmt.Errorf("%s failed: %w", name, err)
		lm.logger.Error("Component failed", zap.String("component", name), zap.Error(err))

		lm.stateMu.RLock()
		running := lm.currentState == StateRunning
		lm.stateMu.RUnlock()
		if running {
			lm.setError(err)
		}

		select {
		case lm.failures <- err:
		default:
		}
	}
}

// Failures delivers the first component failure after start.
func (lm *LifecycleManager) Failures() <-chan error {
	return lm.failures
}

// Done is closed once Shutdown has finished.
func (lm *LifecycleManager) Done() <-chan struct{} {
	return lm.shutdownChan
}

// Shutdown gracefully shuts down the system. Components that do not stop
// before ctx expires are abandoned.
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		if lm.State() != StateInitializing {
			if err := lm.transition(StateStopping); err != nil {
				lm.logger.Warn("Unexpected state at shutdown", zap.Error(err))
			}
		}

		shutdownErr = lm.stopStarted(ctx)
		if shutdownErr == nil {
			lm.logger.Info("Graceful shutdown completed")
		}

		if err := lm.transition(StateStopped); err != nil {
			lm.logger.Warn("Unexpected state at shutdown", zap.Error(err))
		}
		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) stopStarted(ctx context.Context) error {
	var errs []error
	for i := len(lm.started) - 1; i >= 0; i-- {
		c := lm.started[i]

		done := make(chan error, 1)
		go func() { done <- c.Stop(ctx) }()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Errorf("%s stop failed: %w", c.Name(), err))
			}
		case <-ctx.Done():
			lm.logger.Warn("Shutdown timeout, forcing stop", zap.String("component", c.Name()))
			lm.started = lm.started[:i]
			return errors.Join(append(errs, fmt.Errorf("shutdown timeout exceeded while stopping %s", c.Name()))...)
		}
	}
	lm.started = nil
	return errors.Join(errs...)
}

func (lm *LifecycleManager) State() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

func (lm *LifecycleManager) transition(to SystemState) error {
	lm.stateMu.Lock()
	from := lm.currentState
	if err := ValidateTransition(from, to); err != nil {
		lm.stateMu.Unlock()
		return err
	}
	lm.currentState = to
	lm.stateMu.Unlock()

	lm.logger.Debug("State changed", zap.Stringer("from", from), zap.Stringer("to", to))
	lm.broadcastStatus()
	return nil
}

func (lm *LifecycleManager) setError(err error) {
	lm.stateMu.Lock()
	lm.lastErr = err
	lm.stateMu.Unlock()

	if terr := lm.transition(StateError); terr != nil {
		lm.logger.Warn("Cannot enter error state", zap.Error(terr))
	}
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	names := make([]string, 0, len(lm.components))
	for _, c := range lm.components {
		names = append(names, c.Name())
	}

	status := interfaces.SystemStatus{
		State:      lm.currentState.String(),
		Components: names,
	}
	if lm.lastErr != nil {
		status.Error = lm.lastErr.Error()
	}
	return status
}

func (lm *LifecycleManager) getStatusInternal() SystemStatus {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()

	status := SystemStatus{
		State:     lm.currentState,
		Timestamp: time.Now().Unix(),
	}
	if lm.lastErr != nil {
		status.Error = lm.lastErr.Error()
	}
	return status
}

func (lm *LifecycleManager) broadcastStatus() {
	status := lm.getStatusInternal()

	lm.listenersMu.RLock()
	defer lm.listenersMu.RUnlock()

	for _, listener := range lm.statusListeners {
		select {
		case listener <- status:
		default:
			// Channel full, skip
		}
	}
}

// SubscribeStatus subscribes to status updates
func (lm *LifecycleManager) SubscribeStatus() chan SystemStatus {
	ch := make(chan SystemStatus, 10)

	lm.listenersMu.Lock()
	lm.statusListeners = append(lm.statusListeners, ch)
	lm.listenersMu.Unlock()

	return ch
}

// UnsubscribeStatus unsubscribes from status updates
func (lm *LifecycleManager) UnsubscribeStatus(ch chan SystemStatus) {
	lm.listenersMu.Lock()
	defer lm.listenersMu.Unlock()

	for i, listener := range lm.statusListeners {
		if listener == ch {
			lm.statusListeners = append(lm.statusListeners[:i], lm.statusListeners[i+1:]...)
			close(ch)
			break
		}
	}
}
