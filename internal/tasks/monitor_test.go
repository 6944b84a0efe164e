package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/services"
	"github.com/desertthunder/butter/internal/shared"
)

// listerFunc adapts a function to [ItemLister].
type listerFunc func(ctx context.Context, sess models.Session, q services.ItemQuery) ([]models.Item, error)

func (f listerFunc) Items(ctx context.Context, sess models.Session, q services.ItemQuery) ([]models.Item, error) {
	return f(ctx, sess, q)
}

func nextUpdate(t *testing.T, m *InventoryMonitor) MonitorUpdate {
	t.Helper()
	select {
	case u := <-m.Updates():
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for monitor update")
		return MonitorUpdate{}
	}
}

func waitDone(t *testing.T, m *InventoryMonitor) {
	t.Helper()
	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for monitor to stop")
	}
}

func TestInventoryMonitor(t *testing.T) {
	t.Run("Start validates session", func(t *testing.T) {
		lister := listerFunc(func(context.Context, models.Session, services.ItemQuery) ([]models.Item, error) { return nil, nil })

		m := NewInventoryMonitor(lister, models.Session{}, MonitorOpts{})
		if err := m.Start(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		m = NewInventoryMonitor(lister, models.Session{AccessToken: "tok"}, MonitorOpts{})
		if err := m.Start(context.Background()); !errors.Is(err, shared.ErrMerchantUnresolved) {
			t.Errorf("expected ErrMerchantUnresolved, got %v", err)
		}
		if m.Running() {
			t.Error("monitor should not be running")
		}
	})

	t.Run("publishes items and changes", func(t *testing.T) {
		var calls atomic.Int32
		lister := listerFunc(func(_ context.Context, sess models.Session, q services.ItemQuery) ([]models.Item, error) {
			if q.Limit != 25 {
				t.Errorf("expected limit 25, got %d", q.Limit)
			}
			if calls.Add(1) == 1 {
				return []models.Item{{ID: "A", Price: 100}, {ID: "B", Price: 200}}, nil
			}
			return []models.Item{{ID: "A", Price: 150}, {ID: "C", Price: 300}}, nil
		})

		m := NewInventoryMonitor(lister, testSession(), MonitorOpts{Interval: 10 * time.Millisecond, Limit: 25})
		if err := m.Start(context.Background()); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer m.Stop()

		first := nextUpdate(t, m)
		if first.Seq != 1 || len(first.Items) != 2 {
			t.Errorf("unexpected first update %+v", first)
		}
		if !first.Changes.Empty() {
			t.Errorf("first poll should report no changes, got %s", first.Changes)
		}

		second := nextUpdate(t, m)
		if second.Seq != 2 {
			t.Errorf("expected seq 2, got %d", second.Seq)
		}
		c := second.Changes
		if len(c.Added) != 1 || c.Added[0].ID != "C" {
			t.Errorf("expected C added, got %+v", c.Added)
		}
		if len(c.Removed) != 1 || c.Removed[0].ID != "B" {
			t.Errorf("expected B removed, got %+v", c.Removed)
		}
		if len(c.Updated) != 1 || c.Updated[0].Price != 150 {
			t.Errorf("expected A updated, got %+v", c.Updated)
		}
	})

	t.Run("never overlaps polls and Stop cancels in flight", func(t *testing.T) {
		var calls, active, maxActive atomic.Int32
		var pollErr error
		var mu sync.Mutex
		started := make(chan struct{}, 1)

		lister := listerFunc(func(ctx context.Context, _ models.Session, _ services.ItemQuery) ([]models.Item, error) {
			calls.Add(1)
			n := active.Add(1)
			defer active.Add(-1)
			for {
				cur := maxActive.Load()
				if n <= cur || maxActive.CompareAndSwap(cur, n) {
					break
				}
			}
			started <- struct{}{}
			<-ctx.Done()
			mu.Lock()
			pollErr = ctx.Err()
			mu.Unlock()
			return nil, ctx.Err()
		})

		m := NewInventoryMonitor(lister, testSession(), MonitorOpts{Interval: time.Millisecond})
		if err := m.Start(context.Background()); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		<-started
		m.Refresh()
		time.Sleep(50 * time.Millisecond)

		if got := calls.Load(); got != 1 {
			t.Errorf("expected 1 poll while in flight, got %d", got)
		}

		m.Stop()

		if maxActive.Load() != 1 {
			t.Errorf("expected at most 1 concurrent poll, got %d", maxActive.Load())
		}
		mu.Lock()
		if !errors.Is(pollErr, context.Canceled) {
			t.Errorf("expected in-flight poll to be canceled, got %v", pollErr)
		}
		mu.Unlock()
		if m.Running() {
			t.Error("monitor should be stopped")
		}
		select {
		case u := <-m.Updates():
			t.Errorf("canceled poll should not publish, got %+v", u)
		default:
		}
	})

	t.Run("token expired stops without retry", func(t *testing.T) {
		var calls atomic.Int32
		lister := listerFunc(func(context.Context, models.Session, services.ItemQuery) ([]models.Item, error) {
			calls.Add(1)
			return nil, shared.ErrTokenExpired
		})

		m := NewInventoryMonitor(lister, testSession(), MonitorOpts{Interval: 5 * time.Millisecond})
		if err := m.Start(context.Background()); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		waitDone(t, m)
		time.Sleep(30 * time.Millisecond)

		if got := calls.Load(); got != 1 {
			t.Errorf("expected exactly 1 poll, got %d", got)
		}
		if m.Running() {
			t.Error("monitor should have stopped itself")
		}

		u := nextUpdate(t, m)
		if !errors.Is(u.Err, shared.ErrTokenExpired) || !u.Stopped {
			t.Errorf("expected stopped update with ErrTokenExpired, got %+v", u)
		}
	})

	t.Run("other errors keep polling", func(t *testing.T) {
		var calls atomic.Int32
		lister := listerFunc(func(context.Context, models.Session, services.ItemQuery) ([]models.Item, error) {
			if calls.Add(1) == 1 {
				return nil, shared.ErrTransport
			}
			return []models.Item{{ID: "A"}}, nil
		})

		m := NewInventoryMonitor(lister, testSession(), MonitorOpts{Interval: 5 * time.Millisecond})
		if err := m.Start(context.Background()); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer m.Stop()

		first := nextUpdate(t, m)
		if !errors.Is(first.Err, shared.ErrTransport) || first.Stopped {
			t.Errorf("expected transport error update, got %+v", first)
		}
		second := nextUpdate(t, m)
		if second.Err != nil || len(second.Items) != 1 {
			t.Errorf("expected recovery, got %+v", second)
		}
	})

	t.Run("Start twice and restart", func(t *testing.T) {
		lister := listerFunc(func(context.Context, models.Session, services.ItemQuery) ([]models.Item, error) { return nil, nil })
		m := NewInventoryMonitor(lister, testSession(), MonitorOpts{Interval: time.Hour})

		if err := m.Start(context.Background()); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if err := m.Start(context.Background()); !errors.Is(err, shared.ErrMonitorRunning) {
			t.Errorf("expected ErrMonitorRunning, got %v", err)
		}

		m.Stop()
		m.Stop()

		if err := m.Start(context.Background()); err != nil {
			t.Fatalf("restart failed: %v", err)
		}
		if !m.Running() {
			t.Error("monitor should be running after restart")
		}
		m.Stop()
	})

	t.Run("parent context cancel stops", func(t *testing.T) {
		lister := listerFunc(func(context.Context, models.Session, services.ItemQuery) ([]models.Item, error) { return nil, nil })
		m := NewInventoryMonitor(lister, testSession(), MonitorOpts{Interval: time.Hour})

		ctx, cancel := context.WithCancel(context.Background())
		if err := m.Start(ctx); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		cancel()
		waitDone(t, m)

		if m.Running() {
			t.Error("monitor should be stopped")
		}
	})
}

func TestDiffItems(t *testing.T) {
	prev := indexItems([]models.Item{{ID: "A", Name: "a"}, {ID: "B"}, {ID: "D"}})
	c := diffItems(prev, []models.Item{{ID: "A", Name: "renamed"}, {ID: "C"}})

	if len(c.Added) != 1 || len(c.Updated) != 1 || len(c.Removed) != 2 {
		t.Fatalf("unexpected changes %s", c)
	}
	if c.Removed[0].ID != "B" || c.Removed[1].ID != "D" {
		t.Errorf("removed items should be sorted, got %+v", c.Removed)
	}
	if c.String() != "+1 -2 ~1" {
		t.Errorf("unexpected summary %q", c.String())
	}
	if !diffItems(prev, []models.Item{{ID: "A", Name: "a"}, {ID: "B"}, {ID: "D"}}).Empty() {
		t.Error("identical polls should be empty")
	}
}
