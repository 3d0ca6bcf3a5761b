package events

import "sync"

// Sink receives events. Publish must not block the caller for long.
type Sink interface {
	Publish(Event)
}

// Observer is a function-shaped consumer, wrapped by Dispatcher.
type Observer func(Event)

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Publish(Event) {}

type multiSink []Sink

// Multi fans every event out to sinks in order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return out
}

func (m multiSink) Publish(evt Event) {
	for _, sink := range m {
		sink.Publish(evt)
	}
}

// Dispatcher is an unbounded ordered queue drained by its own goroutine, so
// Publish never waits on the observer.
type Dispatcher struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Event
	closed   bool
	done     chan struct{}
	observer Observer
}

// NewDispatcher starts a dispatcher delivering to observer.
func NewDispatcher(observer Observer) *Dispatcher {
	if observer == nil {
		observer = func(Event) {}
	}
	d := &Dispatcher{observer: observer, done: make(chan struct{})}
	d.cond = sync.NewCond(&d.mu)
	go d.loop()
	return d
}

// Publish enqueues evt. Events published after Close are dropped.
func (d *Dispatcher) Publish(evt Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queue = append(d.queue, evt)
	d.cond.Signal()
}

// Close delivers everything already queued, then stops the goroutine.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		d.cond.Broadcast()
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, evt := range batch {
			d.observer(evt)
		}
	}
}
