package graph

import "fmt"

// Edge connects output port FromPort of node FromNode to input port ToPort of
// node ToNode.
//
// Fan-out (one output feeding many inputs) is the normal case. Two distinct
// edges into the same input port are accepted by AddEdge; how Compile treats
// them is governed by FanInPolicy.
//
// Edges are plain comparable values: two edges are the same edge exactly when
// all four fields match.
type Edge struct {
	FromNode NodeID `json:"fromNode" msgpack:"fromNode"`
	FromPort int    `json:"fromPort" msgpack:"fromPort"`
	ToNode   NodeID `json:"toNode" msgpack:"toNode"`
	ToPort   int    `json:"toPort" msgpack:"toPort"`
}

// Connect is shorthand for building an Edge.
func Connect(from NodeID, fromPort int, to NodeID, toPort int) Edge {
	return Edge{FromNode: from, FromPort: fromPort, ToNode: to, ToPort: toPort}
}

func (e Edge) String() string {
	return fmt.Sprintf("(%d:%d)->(%d:%d)", e.FromNode, e.FromPort, e.ToNode, e.ToPort)
}

// less orders edges by (FromNode, FromPort, ToNode, ToPort).
func (e Edge) less(o Edge) bool {
	if e.FromNode != o.FromNode {
		return e.FromNode < o.FromNode
	}
	if e.FromPort != o.FromPort {
		return e.FromPort < o.FromPort
	}
	if e.ToNode != o.ToNode {
		return e.ToNode < o.ToNode
	}
	return e.ToPort < o.ToPort
}

// OutputKey addresses one output slot in the executor's output cache.
type OutputKey struct {
	Node NodeID
	Port int
}

// inputKey addresses one input slot during input resolution.
type inputKey struct {
	node NodeID
	port int
}
