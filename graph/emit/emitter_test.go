package emit

import "testing"

func TestEmitterImplementations(t *testing.T) {
	var _ Emitter = (*LogEmitter)(nil)
	var _ Emitter = (*NullEmitter)(nil)
	var _ Emitter = (*BufferedEmitter)(nil)
	var _ Emitter = (*OTelEmitter)(nil)
	var _ Emitter = MultiEmitter(nil)
}

func TestMultiEmitter(t *testing.T) {
	a := NewBufferedEmitter()
	b := NewBufferedEmitter()
	multi := MultiEmitter{a, nil, b, NewNullEmitter()}

	multi.Emit(Event{GraphID: 3, Msg: "graph_compiled"})

	for name, buf := range map[string]*BufferedEmitter{"a": a, "b": b} {
		if got := buf.Messages(3); len(got) != 1 || got[0] != "graph_compiled" {
			t.Errorf("emitter %s: expected [graph_compiled], got %v", name, got)
		}
	}
}
