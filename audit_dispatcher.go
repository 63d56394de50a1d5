package hsgate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// auditDrainTimeout bounds how long Close waits for a stuck sink before
// cancelling the delivery context.
const auditDrainTimeout = 5 * time.Second

// auditDispatcher forwards events to the sink from a single goroutine so a
// slow sink never sits on the login or validate path.
type auditDispatcher struct {
	cfg       AuditConfig
	sink      AuditSink
	ch        chan AuditEvent
	done      chan struct{}
	stop      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	delivered atomic.Uint64
	closeOnce sync.Once

	// mu guards closed. Emit holds the read lock for the whole send so
	// Close can wait out in-flight sends before the final drain.
	mu     sync.RWMutex
	closed bool

	drainTimeout time.Duration
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &auditDispatcher{
		cfg:          cfg,
		sink:         sink,
		ch:           make(chan AuditEvent, cfg.BufferSize),
		done:         make(chan struct{}),
		stop:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		drainTimeout: auditDrainTimeout,
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.deliver(event)
		case <-d.stop:
			for {
				select {
				case event := <-d.ch:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver hands event to the sink. Once Close has given up waiting, the
// remaining events are counted as dropped instead.
func (d *auditDispatcher) deliver(event AuditEvent) {
	if d.ctx.Err() != nil {
		d.dropped.Add(1)
		return
	}
	d.sink.Emit(d.ctx, event)
	if d.ctx.Err() != nil {
		d.dropped.Add(1)
		return
	}
	d.delivered.Add(1)
}

// Emit queues event, filling in ID and Timestamp when unset. With DropIfFull
// the call never blocks and counts drops; otherwise it waits for buffer
// space, ctx, or Close. Events emitted after Close are counted as dropped.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.done:
		d.dropped.Add(1)
	}
}

// Close stops accepting events and drains the buffer before returning. A
// sink that is still blocked after the drain timeout has its context
// cancelled and the undelivered events are counted as dropped.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		// Wake blocked emitters first so the write lock can be taken.
		close(d.done)
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		close(d.stop)

		finished := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(finished)
		}()

		timer := time.NewTimer(d.drainTimeout)
		defer timer.Stop()
		select {
		case <-finished:
		case <-timer.C:
			d.cancel()
			<-finished
		}
		d.cancel()
	})
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *auditDispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
