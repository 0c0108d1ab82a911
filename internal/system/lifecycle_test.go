package system

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.calls, ",")
}

type fakeComponent struct {
	name     string
	rec      *recorder
	startErr error
	block    chan struct{}
	failures chan error
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.rec.add("start:" + f.name)
	return nil
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	if f.block != nil {
		<-f.block
	}
	f.rec.add("stop:" + f.name)
	return nil
}

type failingComponent struct {
	*fakeComponent
}

func (f failingComponent) Failures() <-chan error { return f.failures }

func TestStartAndShutdownOrder(t *testing.T) {
	rec := &recorder{}
	lm := NewLifecycleManager(zap.NewNop(),
		&fakeComponent{name: "a", rec: rec},
		&fakeComponent{name: "b", rec: rec},
	)
	lm.Register(&fakeComponent{name: "c", rec: rec})

	if err := lm.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if lm.State() != StateRunning {
		t.Fatalf("state = %s, want RUNNING", lm.State())
	}
	if err := lm.Start(); err == nil {
		t.Error("second Start() should fail")
	}

	if err := lm.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got, want := rec.String(), "start:a,start:b,start:c,stop:c,stop:b,stop:a"; got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}
	if lm.State() != StateStopped {
		t.Errorf("state = %s, want STOPPED", lm.State())
	}

	select {
	case <-lm.Done():
	default:
		t.Error("Done() not closed after shutdown")
	}

	// Shutdown is idempotent.
	if err := lm.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestStartFailureRollsBack(t *testing.T) {
	rec := &recorder{}
	lm := NewLifecycleManager(zap.NewNop(),
		&fakeComponent{name: "a", rec: rec},
		&fakeComponent{name: "b", rec: rec, startErr: errors.New("port in use")},
		&fakeComponent{name: "c", rec: rec},
	)

	err := lm.Start()
	if err == nil || !strings.Contains(err.Error(), "failed to start b") {
		t.Fatalf("Start() error = %v", err)
	}
	if got := rec.String(); got != "start:a,stop:a" {
		t.Errorf("calls = %s", got)
	}
	if lm.State() != StateError {
		t.Errorf("state = %s, want ERROR", lm.State())
	}

	status := lm.GetCurrentStatus()
	if status.State != "ERROR" || !strings.Contains(status.Error, "port in use") {
		t.Errorf("status = %+v", status)
	}
	if len(status.Components) != 3 {
		t.Errorf("components = %v", status.Components)
	}

	if err := lm.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if lm.State() != StateStopped {
		t.Errorf("state = %s, want STOPPED", lm.State())
	}
}

func TestRuntimeFailureEntersError(t *testing.T) {
	rec := &recorder{}
	failures := make(chan error, 1)
	lm := NewLifecycleManager(zap.NewNop(),
		failingComponent{&fakeComponent{name: "rest", rec: rec, failures: failures}},
	)
	if err := lm.Start(); err != nil {
		t.Fatal(err)
	}

	failures <- errors.New("listener closed")

	select {
	case err := <-lm.Failures():
		if !strings.Contains(err.Error(), "rest failed") {
			t.Errorf("failure = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no failure reported")
	}
	if lm.State() != StateError {
		t.Errorf("state = %s, want ERROR", lm.State())
	}

	close(failures)
	if err := lm.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestShutdownTimeout(t *testing.T) {
	rec := &recorder{}
	block := make(chan struct{})
	defer close(block)

	lm := NewLifecycleManager(zap.NewNop(),
		&fakeComponent{name: "slow", rec: rec, block: block},
	)
	if err := lm.Start(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := lm.Shutdown(ctx)
	if err == nil || !strings.Contains(err.Error(), "shutdown timeout exceeded") {
		t.Errorf("Shutdown() error = %v", err)
	}
	if lm.State() != StateStopped {
		t.Errorf("state = %s, want STOPPED", lm.State())
	}
}

func TestStatusSubscription(t *testing.T) {
	lm := NewLifecycleManager(zap.NewNop())
	ch := lm.SubscribeStatus()

	if err := lm.Start(); err != nil {
		t.Fatal(err)
	}
	select {
	case st := <-ch:
		if st.State != StateRunning {
			t.Errorf("state = %s, want RUNNING", st.State)
		}
	case <-time.After(time.Second):
		t.Fatal("no status broadcast")
	}

	lm.UnsubscribeStatus(ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from, to SystemState
		ok       bool
	}{
		{StateInitializing, StateRunning, true},
		{StateInitializing, StateError, true},
		{StateRunning, StateStopping, true},
		{StateRunning, StateError, true},
		{StateStopping, StateStopped, true},
		{StateError, StateStopping, true},
		{StateRunning, StateInitializing, false},
		{StateStopped, StateRunning, false},
		{StateStopping, StateRunning, false},
		{SystemState(42), StateRunning, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if (err == nil) != tt.ok {
				t.Errorf("ValidateTransition(%s, %s) error = %v, want ok=%v", tt.from, tt.to, err, tt.ok)
			}
		})
	}
}

func TestComponentAdapters(t *testing.T) {
	started, closed := false, false
	c := NewComponent("x", func() error { started = true; return nil }, nil)
	if err := c.Start(); err != nil || !started {
		t.Errorf("Start() = %v, started = %v", err, started)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("Stop() with nil func = %v", err)
	}

	cl := Closer("db", func() error { closed = true; return nil })
	if err := cl.Start(); err != nil {
		t.Errorf("Closer Start() = %v", err)
	}
	if err := cl.Stop(context.Background()); err != nil || !closed {
		t.Errorf("Closer Stop() = %v, closed = %v", err, closed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	release := make(chan struct{})
	defer close(release)
	if err := blocking(func() { <-release })(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("blocking stop error = %v, want context.Canceled", err)
	}
}
