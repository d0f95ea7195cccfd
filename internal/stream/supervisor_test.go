package stream

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/example/go-soulwhistle/internal/params"
)

func newTestSupervisor(store *params.Store, fl *fakeListener) *Supervisor {
	s := NewSupervisor(store, http.NotFoundHandler(), WithLogger(quietLogger()))
	s.listen = fl.listen
	return s
}

func waitCalls(t *testing.T, fl *fakeListener, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c := fl.calls(); len(c) >= n {
			return c
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("listener called %d times; want %d", len(fl.calls()), n)
	return nil
}

func TestSupervisor_FollowsSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := params.NewStore(params.Default())
	fl := &fakeListener{}
	s := newTestSupervisor(store, fl)

	s.step(ctx)
	if running, _ := s.Running(); running {
		t.Fatal("server started while streaming disabled")
	}

	store.Update(func(p *params.Params) {
		p.StreamEnabled = true
		p.StreamPort = 9000
	})
	s.step(ctx)
	if running, port := s.Running(); !running || port != 9000 {
		t.Fatalf("Running() = %v, %d; want true, 9000", running, port)
	}
	if c := waitCalls(t, fl, 1); c[0] != ":9000" {
		t.Errorf("listen addr = %q; want :9000", c[0])
	}

	// Same snapshot: nothing changes.
	s.step(ctx)
	if len(fl.calls()) != 1 {
		t.Errorf("listener restarted without a config change")
	}

	store.Update(func(p *params.Params) { p.StreamPort = 9001 })
	s.step(ctx)
	if c := waitCalls(t, fl, 2); c[1] != ":9001" {
		t.Errorf("listen addr after port change = %q; want :9001", c[1])
	}

	store.Update(func(p *params.Params) { p.StreamEnabled = false })
	s.step(ctx)
	if running, _ := s.Running(); running {
		t.Error("server still running after streaming disabled")
	}
}

func TestSupervisor_FailedPortNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := params.Default()
	p.StreamEnabled = true
	p.StreamPort = 9100
	store := params.NewStore(p)
	fl := &fakeListener{fail: true}
	s := newTestSupervisor(store, fl)

	s.step(ctx)
	waitCalls(t, fl, 1)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.step(ctx)
		if running, _ := s.Running(); !running {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if running, _ := s.Running(); running {
		t.Fatal("failed server still marked running")
	}

	for range 5 {
		s.step(ctx)
	}
	if n := len(fl.calls()); n != 1 {
		t.Errorf("failed port retried: %d listen calls", n)
	}

	// Choosing a different port tries again.
	fl.mu.Lock()
	fl.fail = false
	fl.mu.Unlock()
	store.Update(func(p *params.Params) { p.StreamPort = 9101 })
	s.step(ctx)
	waitCalls(t, fl, 2)
	s.stop()
}

func TestSupervisor_RunStopsOnCancel(t *testing.T) {
	p := params.Default()
	p.StreamEnabled = true
	store := params.NewStore(p)
	fl := &fakeListener{}
	s := newTestSupervisor(store, fl)
	s.opts.pollInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitCalls(t, fl, 1)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
