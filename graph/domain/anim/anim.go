// Package anim is the animation domain: pose and weight pins, pose sources
// and a blend tree evaluated once per tick.
package anim

import (
	"fmt"

	"github.com/dshills/graphvm/graph"
)

// PortType enumerates the animation pin types.
type PortType int

const (
	// Float is a single scalar, usually a blend weight.
	Float PortType = iota + 1

	// Pose is a flat list of joint channels.
	Pose
)

func (p PortType) String() string {
	switch p {
	case Float:
		return "Float"
	case Pose:
		return "Pose"
	default:
		return fmt.Sprintf("PortType(%d)", int(p))
	}
}

// Context is passed to every node on Execute.
type Context struct {
	Tick uint64

	// Signals is read only by SignalWeight. It may be nil.
	Signals graph.SignalTable
}

// Graph is an animation graph.
type Graph = graph.Graph[PortType, Context]

// Value is a value on an animation pin.
type Value = graph.Value[PortType]

// NewGraph creates an empty animation graph.
func NewGraph(opts ...graph.Option) *Graph {
	return graph.New[PortType, Context](opts...)
}

// PoseValue wraps channels as a Pose value. channels is copied.
func PoseValue(channels ...float64) Value {
	return Value{Type: Pose, Data: append([]float64(nil), channels...)}
}
