package emit

// Emitter receives observability events.
//
// Implementations should be:
//   - Non-blocking: Execute runs on the simulation thread
//   - Thread-safe: sandboxes may emit from reviewer goroutines
//   - Resilient: a failing backend must not break evaluation
//
// Emit should not panic. Errors should be handled internally.
type Emitter interface {
	Emit(event Event)
}

// MultiEmitter fans every event out to several emitters in order.
type MultiEmitter []Emitter

// Emit implements Emitter. Nil entries are skipped.
func (m MultiEmitter) Emit(event Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(event)
		}
	}
}
