package events

import "sync"

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records evt.
func (r *Recorder) Publish(evt Event) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Stages returns the stage names in emission order.
func (r *Recorder) Stages() []string {
	var out []string
	for _, evt := range r.Events() {
		if evt.Kind == KindStage {
			out = append(out, evt.Stage)
		}
	}
	return out
}

// Logs returns the log lines in emission order.
func (r *Recorder) Logs() []string {
	var out []string
	for _, evt := range r.Events() {
		if evt.Kind == KindLog {
			out = append(out, evt.Text)
		}
	}
	return out
}

// Results returns every terminal result recorded.
func (r *Recorder) Results() []Result {
	var out []Result
	for _, evt := range r.Events() {
		if evt.Kind == KindResult && evt.Result != nil {
			out = append(out, *evt.Result)
		}
	}
	return out
}
