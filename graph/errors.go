// Package graph provides the GraphVM core: a generic, typed, acyclic dataflow
// graph that is compiled once and evaluated deterministically once per tick.
package graph

import "errors"

// ErrNotCompiled is returned by Execute when the graph has not been compiled
// since its last structural mutation.
var ErrNotCompiled = errors.New("graph not compiled")

// ErrCycle indicates that the edge set contains a directed cycle.
var ErrCycle = errors.New("graph contains a cycle")

// ErrInvalidEdge indicates an edge whose endpoints do not exist or whose port
// indices are out of range.
var ErrInvalidEdge = errors.New("invalid edge")

// ErrTypeMismatch indicates an edge connecting ports of different types.
var ErrTypeMismatch = errors.New("port type mismatch")

// ErrInputConflict is returned when more than one distinct edge targets the
// same input port and the graph is configured with FanInReject.
var ErrInputConflict = errors.New("input port connected more than once")

// ErrProposalNotFound is returned by the sandbox for unknown proposal ids.
var ErrProposalNotFound = errors.New("proposal not found")

// ErrProposalResolved is returned when approving or rejecting a proposal that
// has already been resolved. The proposal is left unchanged.
var ErrProposalResolved = errors.New("proposal already resolved")

// Error codes carried by GraphError.
const (
	CodeCycle          = "CYCLE"
	CodeDanglingEdge   = "DANGLING_EDGE"
	CodePortOutOfRange = "PORT_OUT_OF_RANGE"
	CodeTypeMismatch   = "TYPE_MISMATCH"
	CodeInputConflict  = "INPUT_CONFLICT"
	CodeNotCompiled    = "NOT_COMPILED"
)

// GraphError represents a structural or precondition failure reported by
// Compile or Execute.
//
// Err holds the sentinel the failure belongs to, so callers can use
// errors.Is(err, ErrCycle) without parsing messages.
type GraphError struct {
	Message string
	Code    string
	Edge    *Edge
	Err     error
}

func (e *GraphError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the sentinel error.
func (e *GraphError) Unwrap() error {
	return e.Err
}
