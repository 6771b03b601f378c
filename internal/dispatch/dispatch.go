// Package dispatch runs generation work on a bounded worker pool and hands the
// results back to a single control goroutine.
//
// Work functions run on pool workers. Their completions are queued and only run
// when the control goroutine calls Drain, so completion callbacks may touch
// control-owned state without locking.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("dispatcher closed")

// Config sizes the worker pool.
type Config struct {
	Workers int `json:"workers" yaml:"workers"` // <= 0 means runtime.NumCPU()
}

// Dispatcher owns the pool and the completion queue.
type Dispatcher struct {
	log  *slog.Logger
	pool pond.Pool

	mu     sync.Mutex
	queue  []func()
	closed bool

	inFlight atomic.Int64
	panics   atomic.Int64
	wg       sync.WaitGroup
}

// New starts a dispatcher with cfg.Workers pool workers.
func New(cfg Config, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log.Debug("dispatcher started", "workers", workers)
	return &Dispatcher{
		log:  log,
		pool: pond.NewPool(workers),
	}
}

// Submit runs work on the pool. When work returns, onComplete(result) is queued
// for the next Drain. If work panics the panic is logged and onComplete never runs.
func Submit[T any](d *Dispatcher, work func() T, onComplete func(T)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.log.Warn("submit after close rejected")
		return ErrClosed
	}

	d.inFlight.Add(1)
	d.wg.Add(1)
	d.pool.Submit(func() {
		defer d.wg.Done()
		defer d.inFlight.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				d.panics.Add(1)
				d.log.Error("work panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			}
		}()

		result := work()
		d.enqueue(func() { onComplete(result) })
	})
	return nil
}

func (d *Dispatcher) enqueue(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
}

// Drain runs every queued completion in enqueue order and returns how many ran.
// Completions queued while draining wait for the next call. Control goroutine only.
func (d *Dispatcher) Drain() int {
	d.mu.Lock()
	batch := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Flush waits for all submitted work and drains until no work or completions
// remain, including work submitted by completions. Control goroutine only.
func (d *Dispatcher) Flush() int {
	total := 0
	for {
		d.wg.Wait()
		n := d.Drain()
		total += n
		if n == 0 && d.inFlight.Load() == 0 {
			return total
		}
	}
}

// InFlight returns the number of work functions submitted but not yet finished.
func (d *Dispatcher) InFlight() int { return int(d.inFlight.Load()) }

// Queued returns the number of completions waiting for Drain.
func (d *Dispatcher) Queued() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Panics returns how many work functions have panicked.
func (d *Dispatcher) Panics() int { return int(d.panics.Load()) }

// Close rejects further submits and waits for running work. Completions still
// queued are left for a final Drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.pool.StopAndWait()
	d.log.Debug("dispatcher stopped", "queued", d.Queued())
}
