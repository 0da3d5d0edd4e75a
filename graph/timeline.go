package graph

// Frame is one recorded point of a Timeline.
type Frame struct {
	Tick     uint64   `json:"tick" msgpack:"tick"`
	Snapshot Snapshot `json:"snapshot" msgpack:"snapshot"`
	Label    string   `json:"label,omitempty" msgpack:"label,omitempty"`
}

func (f Frame) clone() Frame {
	f.Snapshot = f.Snapshot.Clone()
	return f
}

// Timeline is an append-only sequence of snapshots with a movable scrubber,
// used by editors to step through how a graph evolved.
//
// The scrubber index is -1 while the timeline is empty. Every navigation
// method is bounded: at either end it returns false and leaves the index
// where it was.
//
// Timeline is not safe for concurrent use.
type Timeline struct {
	frames []Frame
	index  int
}

// NewTimeline creates an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{index: -1}
}

// Record appends a frame and moves the scrubber onto it. The snapshot is
// copied. Returns the new frame's index.
func (t *Timeline) Record(tick uint64, snap Snapshot, label string) int {
	t.frames = append(t.frames, Frame{Tick: tick, Snapshot: snap, Label: label}.clone())
	t.index = len(t.frames) - 1
	return t.index
}

// Load replaces the timeline's frames, e.g. after reading them from a store,
// and places the scrubber on the last frame.
func (t *Timeline) Load(frames []Frame) {
	t.frames = make([]Frame, len(frames))
	for i, f := range frames {
		t.frames[i] = f.clone()
	}
	t.index = len(t.frames) - 1
}

// Len returns the number of frames.
func (t *Timeline) Len() int {
	return len(t.frames)
}

// Index returns the scrubber position, or -1 when empty.
func (t *Timeline) Index() int {
	return t.index
}

// Current returns the frame under the scrubber.
func (t *Timeline) Current() (Frame, bool) {
	return t.Frame(t.index)
}

// Frame returns a copy of frame i.
func (t *Timeline) Frame(i int) (Frame, bool) {
	if i < 0 || i >= len(t.frames) {
		return Frame{}, false
	}
	return t.frames[i].clone(), true
}

// Frames returns a copy of all frames.
func (t *Timeline) Frames() []Frame {
	out := make([]Frame, len(t.frames))
	for i, f := range t.frames {
		out[i] = f.clone()
	}
	return out
}

// SeekTo moves the scrubber to i.
func (t *Timeline) SeekTo(i int) bool {
	if i < 0 || i >= len(t.frames) {
		return false
	}
	t.index = i
	return true
}

// StepForward advances the scrubber by one frame.
func (t *Timeline) StepForward() bool {
	return t.SeekTo(t.index + 1)
}

// StepBackward moves the scrubber back by one frame.
func (t *Timeline) StepBackward() bool {
	if t.index <= 0 {
		return false
	}
	return t.SeekTo(t.index - 1)
}

// SeekToBeginning moves the scrubber to the first frame.
func (t *Timeline) SeekToBeginning() bool {
	return t.SeekTo(0)
}

// SeekToEnd moves the scrubber to the last frame.
func (t *Timeline) SeekToEnd() bool {
	return t.SeekTo(len(t.frames) - 1)
}

// DiffToNext diffs the current frame against the following one. At the last
// frame, or on an empty timeline, the diff is empty.
func (t *Timeline) DiffToNext() GraphDiff {
	cur, ok := t.Current()
	if !ok {
		return GraphDiff{}
	}
	next, ok := t.Frame(t.index + 1)
	if !ok {
		return GraphDiff{}
	}
	return ComputeGraphDiff(cur.Snapshot, next.Snapshot)
}

// DiffFromPrevious diffs the preceding frame against the current one. At the
// first frame, or on an empty timeline, the diff is empty.
func (t *Timeline) DiffFromPrevious() GraphDiff {
	cur, ok := t.Current()
	if !ok {
		return GraphDiff{}
	}
	prev, ok := t.Frame(t.index - 1)
	if !ok {
		return GraphDiff{}
	}
	return ComputeGraphDiff(prev.Snapshot, cur.Snapshot)
}

// Clear removes every frame.
func (t *Timeline) Clear() {
	t.frames = nil
	t.index = -1
}
