package tasks

import (
	"cmp"
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/butter/internal/models"
	"github.com/desertthunder/butter/internal/services"
	"github.com/desertthunder/butter/internal/shared"
)

const (
	DefaultMonitorInterval = 30 * time.Second
	DefaultMonitorLimit    = 100
)

// ItemLister is the part of [services.Service] the monitor polls.
type ItemLister interface {
	Items(ctx context.Context, sess models.Session, q services.ItemQuery) ([]models.Item, error)
}

// MonitorOpts configures an [InventoryMonitor].
type MonitorOpts struct {
	Interval time.Duration // Time between polls (default: 30s)
	Limit    int           // Items requested per poll (default: 100)
	Buffer   int           // Capacity of the updates channel (default: 16)
	Logger   *log.Logger
}

// InventoryMonitor polls a merchant's items on a fixed interval until stopped.
//
// At most one poll is in flight at a time. A tick that fires while a poll is still running is dropped, not queued.
// Stop cancels the in-flight poll. An expired token stops the monitor; it is never retried.
type InventoryMonitor struct {
	lister ItemLister
	sess   models.Session
	opts   MonitorOpts
	logger *log.Logger

	updates  chan MonitorUpdate
	refresh  chan struct{}
	inFlight atomic.Bool
	skipped  rate.Sometimes

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// owned by the in-flight poll
	seq    int
	primed bool
	last   map[string]models.Item
}

// NewInventoryMonitor creates a stopped monitor for the session's merchant.
func NewInventoryMonitor(lister ItemLister, sess models.Session, opts MonitorOpts) *InventoryMonitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultMonitorInterval
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultMonitorLimit
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &InventoryMonitor{
		lister:  lister,
		sess:    sess,
		opts:    opts,
		logger:  shared.WithLogger(logger, "component", "monitor"),
		updates: make(chan MonitorUpdate, opts.Buffer),
		refresh: make(chan struct{}, 1),
		skipped: rate.Sometimes{First: 1, Interval: time.Minute},
	}
}

// Start begins polling immediately and then on every interval. It returns [shared.ErrMonitorRunning] if the monitor
// is already started.
func (m *InventoryMonitor) Start(ctx context.Context) error {
	if !m.sess.Valid() {
		return shared.ErrNotAuthenticated
	}
	if m.sess.MerchantID == "" {
		return shared.ErrMerchantUnresolved
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return shared.ErrMonitorRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	m.logger.Info("monitor started", "merchant_id", m.sess.MerchantID, "interval", m.opts.Interval)
	go m.run(ctx, cancel, done)
	return nil
}

// Stop cancels polling, including a poll in flight, and waits for it to finish. Safe to call when stopped.
func (m *InventoryMonitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the monitor is started.
func (m *InventoryMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Done returns a channel closed once the current run has fully stopped, or nil before the first Start.
func (m *InventoryMonitor) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Updates delivers one [MonitorUpdate] per completed poll. Updates are dropped when the reader falls behind.
func (m *InventoryMonitor) Updates() <-chan MonitorUpdate {
	return m.updates
}

// Refresh asks for a poll now. It is skipped like a tick if a poll is already in flight.
func (m *InventoryMonitor) Refresh() {
	select {
	case m.refresh <- struct{}{}:
	default:
	}
}

func (m *InventoryMonitor) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	var polls sync.WaitGroup
	defer func() {
		polls.Wait()
		m.mu.Lock()
		if m.done == done {
			m.cancel = nil
		}
		m.mu.Unlock()
		cancel()
		m.logger.Info("monitor stopped")
		close(done)
	}()

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.trigger(ctx, cancel, &polls)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.trigger(ctx, cancel, &polls)
		case <-m.refresh:
			m.trigger(ctx, cancel, &polls)
		}
	}
}

func (m *InventoryMonitor) trigger(ctx context.Context, stop context.CancelFunc, polls *sync.WaitGroup) bool {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.skipped.Do(func() {
			m.logger.Warn("poll skipped, previous poll still in flight")
		})
		return false
	}
	// a poll that stopped the monitor cancels ctx before releasing the flag
	if ctx.Err() != nil {
		m.inFlight.Store(false)
		return false
	}

	polls.Add(1)
	go func() {
		defer polls.Done()
		defer m.inFlight.Store(false)
		m.poll(ctx, stop)
	}()
	return true
}

func (m *InventoryMonitor) poll(ctx context.Context, stop context.CancelFunc) {
	m.seq++
	start := time.Now()
	items, err := m.lister.Items(ctx, m.sess, services.ItemQuery{Limit: m.opts.Limit})
	u := MonitorUpdate{Seq: m.seq, FetchedAt: start, Duration: time.Since(start)}

	switch {
	case errors.Is(err, shared.ErrTokenExpired):
		m.logger.Error("access token expired, stopping monitor", "token", shared.MaskToken(m.sess.AccessToken))
		u.Err = err
		u.Stopped = true
		m.send(u)
		stop()
		return
	case err != nil && ctx.Err() != nil:
		return
	case err != nil:
		m.logger.Warn("poll failed", "seq", u.Seq, "error", err)
		u.Err = err
	default:
		u.Items = items
		if m.primed {
			u.Changes = diffItems(m.last, items)
		}
		m.last = indexItems(items)
		m.primed = true
		m.logger.Debug("poll complete", "seq", u.Seq, "items", len(items), "changes", u.Changes.String())
	}
	m.send(u)
}

func (m *InventoryMonitor) send(u MonitorUpdate) {
	select {
	case m.updates <- u:
	default:
	}
}

func indexItems(items []models.Item) map[string]models.Item {
	idx := make(map[string]models.Item, len(items))
	for _, item := range items {
		idx[item.ID] = item
	}
	return idx
}

func diffItems(prev map[string]models.Item, items []models.Item) Changes {
	var c Changes
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		seen[item.ID] = true
		old, ok := prev[item.ID]
		switch {
		case !ok:
			c.Added = append(c.Added, item)
		case old != item:
			c.Updated = append(c.Updated, item)
		}
	}
	for id, item := range prev {
		if !seen[id] {
			c.Removed = append(c.Removed, item)
		}
	}
	slices.SortFunc(c.Removed, func(a, b models.Item) int { return cmp.Compare(a.ID, b.ID) })
	return c
}
