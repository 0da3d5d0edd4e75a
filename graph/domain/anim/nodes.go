package anim

import "github.com/dshills/graphvm/graph"

// DefaultBlendWeight is used by Blend when its weight pin is unconnected.
const DefaultBlendWeight = 0.5

// PoseSource outputs a fixed pose, e.g. a sampled clip frame.
type PoseSource struct {
	Channels []float64
}

// Kind implements graph.Node.
func (n *PoseSource) Kind() string { return "PoseSource" }

// Inputs implements graph.Node. A pose source has no inputs.
func (n *PoseSource) Inputs() []graph.Port[PortType] { return nil }

// Outputs implements graph.Node.
func (n *PoseSource) Outputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.Out("pose", Pose)}
}

// Evaluate implements graph.Node by copying Channels onto the pose pin.
func (n *PoseSource) Evaluate(_ Context, _ []Value, out []Value) {
	out[0] = PoseValue(n.Channels...)
}

// FloatConstant outputs a fixed scalar.
type FloatConstant struct {
	Value float64
}

// Kind implements graph.Node.
func (n *FloatConstant) Kind() string { return "FloatConstant" }

// Inputs implements graph.Node. A constant has no inputs.
func (n *FloatConstant) Inputs() []graph.Port[PortType] { return nil }

// Outputs implements graph.Node.
func (n *FloatConstant) Outputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.Out("value", Float)}
}

// Evaluate implements graph.Node.
func (n *FloatConstant) Evaluate(_ Context, _ []Value, out []Value) {
	out[0] = graph.Scalar(Float, n.Value)
}

// Blend interpolates two poses channel by channel:
//
//	out = a + (b - a) * weight
//
// The weight is clamped to [0, 1] and defaults to DefaultBlendWeight when
// the pin is unconnected. When one pose is empty the other passes through;
// otherwise the output has as many channels as the shorter pose.
type Blend struct{}

// Kind implements graph.Node.
func (Blend) Kind() string { return "Blend" }

// Inputs implements graph.Node.
func (Blend) Inputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{
		graph.In("a", Pose),
		graph.In("b", Pose),
		graph.In("weight", Float),
	}
}

// Outputs implements graph.Node.
func (Blend) Outputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.Out("pose", Pose)}
}

// Evaluate implements graph.Node.
func (Blend) Evaluate(_ Context, in []Value, out []Value) {
	a, b := in[0].Data, in[1].Data
	w := clamp01(in[2].Float(DefaultBlendWeight))

	switch {
	case len(a) == 0:
		out[0] = PoseValue(b...)
		return
	case len(b) == 0:
		out[0] = PoseValue(a...)
		return
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	channels := make([]float64, n)
	for i := range channels {
		channels[i] = a[i] + (b[i]-a[i])*w
	}
	out[0] = Value{Type: Pose, Data: channels}
}

// SignalWeight is the one animation node that reads the signal table. It
// outputs the named signal clamped to [0, 1], or Default when the signal
// is unset or the context carries no table.
type SignalWeight struct {
	Signal  string
	Default float64
}

// Kind implements graph.Node.
func (n *SignalWeight) Kind() string { return "SignalWeight" }

// Inputs implements graph.Node. The weight comes from the signal table, not a pin.
func (n *SignalWeight) Inputs() []graph.Port[PortType] { return nil }

// Outputs implements graph.Node.
func (n *SignalWeight) Outputs() []graph.Port[PortType] {
	return []graph.Port[PortType]{graph.Out("weight", Float)}
}

// Evaluate implements graph.Node by reading Signal from ec.Signals.
func (n *SignalWeight) Evaluate(ec Context, _ []Value, out []Value) {
	v := n.Default
	if ec.Signals != nil {
		if s, ok := ec.Signals.Signal(n.Signal); ok {
			v = s
		}
	}
	out[0] = graph.Scalar(Float, clamp01(v))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
