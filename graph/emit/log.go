package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// LogEmitter writes one line per event.
//
// Text lines are logfmt-style: the message, then graph and step, then node
// when non-zero, then the meta keys in sorted order:
//
//	tick_executed graph=7 step=3 nodes=6
//	proposal_rejected graph=2 step=40 graph_type=anim proposal_id=3 reason="too noisy" reviewer=alice
//
// JSON lines carry the same fields:
//
//	{"msg":"tick_executed","graph":7,"step":3,"meta":{"nodes":6}}
//
// Identical events always produce identical lines.
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter. A nil writer means os.Stdout.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit implements Emitter.
func (l *LogEmitter) Emit(event Event) {
	var line string
	if l.jsonMode {
		line = formatJSON(event)
	} else {
		line = formatText(event)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, line+"\n")
}

type jsonLine struct {
	Msg   string                 `json:"msg"`
	Graph uint64                 `json:"graph"`
	Step  int                    `json:"step"`
	Node  uint64                 `json:"node,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

func formatJSON(event Event) string {
	data, err := json.Marshal(jsonLine{
		Msg:   event.Msg,
		Graph: event.GraphID,
		Step:  event.Step,
		Node:  event.NodeID,
		Meta:  event.Meta,
	})
	if err != nil {
		return fmt.Sprintf(`{"msg":%q,"error":%q}`, event.Msg, err.Error())
	}
	return string(data)
}

func formatText(event Event) string {
	var b strings.Builder
	b.WriteString(event.Msg)
	fmt.Fprintf(&b, " graph=%d step=%d", event.GraphID, event.Step)
	if event.NodeID != 0 {
		fmt.Fprintf(&b, " node=%d", event.NodeID)
	}

	keys := make([]string, 0, len(event.Meta))
	for k := range event.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(textValue(event.Meta[k]))
	}
	return b.String()
}

// textValue renders a meta value; strings are quoted only when they contain
// spaces, quotes or '='.
func textValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		if x == "" || strings.ContainsAny(x, " \t\"=") {
			return strconv.Quote(x)
		}
		return x
	case fmt.Stringer:
		return textValue(x.String())
	case error:
		return textValue(x.Error())
	default:
		return fmt.Sprint(x)
	}
}
