package graph

import "fmt"

// PortType is the constraint satisfied by a domain's closed pin-type
// enumeration (e.g. Float, Pose, Texture, AudioBuffer).
//
// String must return a stable name; it is used in error messages and logs.
type PortType interface {
	comparable
	fmt.Stringer
}

// Port is a typed input or output slot declared by a node.
type Port[T PortType] struct {
	Name string
	Type T
}

// In is shorthand for declaring a port.
func In[T PortType](name string, typ T) Port[T] {
	return Port[T]{Name: name, Type: typ}
}

// Out is shorthand for declaring an output port. It is identical to In and
// exists so node declarations read naturally.
func Out[T PortType](name string, typ T) Port[T] {
	return Port[T]{Name: name, Type: typ}
}

// Value is the tagged datum flowing along edges.
//
// The zero value of a port is Value{Type: port.Type} with an empty payload;
// unconnected inputs receive exactly that.
type Value[T PortType] struct {
	// Type is the port type tag this value was produced for.
	Type T

	// Data is the numeric payload (a scalar, a pose, a sample buffer, ...).
	Data []float64

	// Text is an optional string payload.
	Text string

	// Meta is optional string-keyed metadata.
	Meta map[string]string
}

// ZeroValue returns the zero value for a port type.
func ZeroValue[T PortType](typ T) Value[T] {
	return Value[T]{Type: typ}
}

// Scalar builds a single-element value.
func Scalar[T PortType](typ T, v float64) Value[T] {
	return Value[T]{Type: typ, Data: []float64{v}}
}

// IsEmpty reports whether the value carries no numeric or text payload.
func (v Value[T]) IsEmpty() bool {
	return len(v.Data) == 0 && v.Text == ""
}

// Float returns Data[0], or def when the payload is empty.
func (v Value[T]) Float(def float64) float64 {
	if len(v.Data) == 0 {
		return def
	}
	return v.Data[0]
}

// Clone returns a deep copy so cached outputs cannot be mutated through a
// value handed to a downstream node.
func (v Value[T]) Clone() Value[T] {
	out := Value[T]{Type: v.Type, Text: v.Text}
	if v.Data != nil {
		out.Data = make([]float64, len(v.Data))
		copy(out.Data, v.Data)
	}
	if v.Meta != nil {
		out.Meta = make(map[string]string, len(v.Meta))
		for k, val := range v.Meta {
			out.Meta[k] = val
		}
	}
	return out
}
