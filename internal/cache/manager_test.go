package cache

import (
	"testing"
	"time"
)

type signalCleaner struct {
	calls chan struct{}
}

func (c *signalCleaner) CleanExpired() int {
	select {
	case c.calls <- struct{}{}:
	default:
	}
	return 1
}

func TestManagerStopWithoutStart(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewManager().Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() hung on a manager that was never started")
	}
}

func TestManagerSweepsRegisteredCaches(t *testing.T) {
	cleaner := &signalCleaner{calls: make(chan struct{}, 1)}
	m := NewManager()
	m.Register(cleaner)
	m.Start(5 * time.Millisecond)
	defer m.Stop()

	select {
	case <-cleaner.calls:
	case <-time.After(time.Second):
		t.Fatal("registered cache was never swept")
	}
}
