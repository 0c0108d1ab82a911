package system

import (
	"context"

	"github.com/KevinKickass/OpenPedalCore/internal/api/rest"
	"github.com/KevinKickass/OpenPedalCore/internal/api/websocket"
	"github.com/KevinKickass/OpenPedalCore/internal/interfaces"
	"github.com/KevinKickass/OpenPedalCore/internal/notify"
)

type funcComponent struct {
	name  string
	start func() error
	stop  func(ctx context.Context) error
}

// NewComponent adapts a pair of functions. Either may be nil.
func NewComponent(name string, start func() error, stop func(ctx context.Context) error) interfaces.Component {
	return &funcComponent{name: name, start: start, stop: stop}
}

func (f *funcComponent) Name() string { return f.name }

func (f *funcComponent) Start() error {
	if f.start == nil {
		return nil
	}
	return f.start()
}

func (f *funcComponent) Stop(ctx context.Context) error {
	if f.stop == nil {
		return nil
	}
	return f.stop(ctx)
}

// Closer releases a resource at shutdown, e.g. a database handle.
func Closer(name string, close func() error) interfaces.Component {
	return NewComponent(name, nil, func(context.Context) error { return close() })
}

// blocking wraps a stop function that cannot take a context.
func blocking(stop func()) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			stop()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func HubComponent(hub *websocket.Hub) interfaces.Component {
	return NewComponent("websocket-hub",
		func() error {
			go hub.Run()
			return nil
		},
		blocking(hub.Stop))
}

func DispatcherComponent(d *notify.Dispatcher) interfaces.Component {
	return NewComponent("notify-dispatcher",
		func() error {
			d.Start()
			return nil
		},
		blocking(d.Stop))
}

type restComponent struct {
	server   *rest.Server
	failures <-chan error
}

func RESTComponent(server *rest.Server) interfaces.Component {
	return &restComponent{server: server}
}

func (r *restComponent) Name() string { return "rest-api" }

func (r *restComponent) Start() error {
	r.failures = r.server.Start()
	return nil
}

func (r *restComponent) Stop(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}

func (r *restComponent) Failures() <-chan error {
	return r.failures
}
