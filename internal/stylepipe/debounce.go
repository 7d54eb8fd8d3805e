package isp

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 30 * time.Millisecond

// debouncer collects events and hands them to fn as one batch once no new
// event has arrived for duration. After stop returns, fn is not running and
// will not run again.
type debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
	events   []fsnotify.Event
	fn       func([]fsnotify.Event)
	stopped  bool
	inFlight sync.WaitGroup
}

func newDebouncer(duration time.Duration, fn func([]fsnotify.Event)) *debouncer {
	return &debouncer{duration: duration, fn: fn}
}

func (d *debouncer) addEvent(evt fsnotify.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.events = append(d.events, evt)
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

func (d *debouncer) flush() {
	d.mu.Lock()
	if d.stopped || len(d.events) == 0 {
		d.mu.Unlock()
		return
	}
	events := d.events
	d.events = nil
	d.timer = nil
	d.inFlight.Add(1)
	d.mu.Unlock()

	defer d.inFlight.Done()
	d.fn(events)
}

// stop drops pending events and waits for a running fn to return.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.events = nil
	d.mu.Unlock()

	d.inFlight.Wait()
}
