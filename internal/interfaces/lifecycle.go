package interfaces

import "context"

// SystemStatus represents the current system state
type SystemStatus struct {
	State      string   `json:"state"`
	Components []string `json:"components"`
	Error      string   `json:"error,omitempty"`
}

// Component is a long-running part of the server owned by the lifecycle
// manager. Components start in registration order and stop in reverse.
type Component interface {
	Name() string
	Start() error
	Stop(ctx context.Context) error
}

// FailureReporter is implemented by components that can fail after Start
// has returned, such as a listener dying. The channel is closed on a clean
// stop.
type FailureReporter interface {
	Failures() <-chan error
}

type StatusProvider interface {
	GetCurrentStatus() SystemStatus
}
