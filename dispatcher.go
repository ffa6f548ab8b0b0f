package panoptes

import (
	"time"

	"github.com/neXenio/panoptes/internal/logging"
)

// dispatcher drains a collector on a latency timer, coalesces the drained
// events by path, and invokes the user callback synchronously with no locks
// held (spec.md §4.5). It runs entirely on its own goroutine; Close blocks
// until a final drain-and-dispatch has completed.
type dispatcher struct {
	collector *collector
	latency   time.Duration
	callback  func(Batch)
	logger    *logging.Logger

	done chan struct{}
	stop chan struct{}
}

func newDispatcher(c *collector, latency time.Duration, callback func(Batch), logger *logging.Logger) *dispatcher {
	return &dispatcher{
		collector: c,
		latency:   latency,
		callback:  callback,
		logger:    logger,
		done:      make(chan struct{}),
		stop:      make(chan struct{}),
	}
}

// run is the dispatcher's goroutine body. It wakes every latency interval,
// takes whatever is pending without blocking, coalesces it, and — if
// anything survived coalescing — calls the user callback. On stop it
// performs one last non-blocking drain so that events pushed just before
// shutdown are not silently lost.
func (d *dispatcher) run() {
	defer close(d.done)

	ticker := time.NewTicker(d.latency)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.dispatchPending()
		case <-d.stop:
			d.dispatchPending()
			return
		}
	}
}

func (d *dispatcher) dispatchPending() {
	raw := d.collector.tryDrain()
	if len(raw) == 0 {
		return
	}
	batch := coalesce(raw)
	if len(batch) == 0 {
		return
	}
	d.logger.Debugf("dispatching batch of %d event(s)", len(batch))
	d.callback(batch)
}

// Close signals the dispatcher's loop to perform a final drain and exit,
// and waits for that to complete.
func (d *dispatcher) Close() {
	close(d.stop)
	<-d.done
}

// coalesce merges raw events sharing a path into a single Event whose Type
// is the bitwise union of every occurrence (spec.md §4.4), preserving
// first-occurrence arrival order. FAILED and BUFFER_OVERFLOW events are
// never merged into another path's entry — each is delivered as its own
// Event — since their RelativePath carries a diagnostic rather than an
// ordinary path and mixing them with unrelated changes would be misleading.
// Such events keep their own arrival position in the batch.
func coalesce(raw []rawEvent) Batch {
	batch := make(Batch, 0, len(raw))
	index := make(map[string]int, len(raw))

	for _, ev := range raw {
		if ev.typ.Has(Failed) || ev.typ.Has(BufferOverflow) {
			batch = append(batch, Event{RelativePath: ev.path, Type: ev.typ})
			continue
		}
		if i, seen := index[ev.path]; seen {
			batch[i].Type = batch[i].Type.Union(ev.typ)
			continue
		}
		index[ev.path] = len(batch)
		batch = append(batch, Event{RelativePath: ev.path, Type: ev.typ})
	}
	return batch
}
