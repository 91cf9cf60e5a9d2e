package errors

import "fmt"

// WarningCode identifies a non-fatal conversion condition.
type WarningCode string

// Warning codes. Each corresponds to a condition that degrades a single
// node or connection without invalidating the overall document.
const (
	// WarnUnresolvedConnection is recorded when an input references a node
	// outside the traversal boundary. The target input is left at its default.
	WarnUnresolvedConnection WarningCode = "UNRESOLVED_CONNECTION"

	// WarnCycleDetected is recorded when traversal reaches a node already on
	// the active path. The edge closing the cycle is dropped as unresolved.
	WarnCycleDetected WarningCode = "CYCLE_DETECTED"

	// WarnUnmappedNodeType is recorded when no mapping rule exists for a
	// node's type tag. The node is passed through or dropped per policy.
	WarnUnmappedNodeType WarningCode = "UNMAPPED_NODE_TYPE"

	// WarnInvalidAttributeValue is recorded when a source attribute value
	// cannot be transformed (wrong value kind, out-of-range enum index).
	// The target attribute keeps the target schema's default.
	WarnInvalidAttributeValue WarningCode = "INVALID_ATTRIBUTE_VALUE"
)

// Warning describes a non-fatal condition encountered during conversion.
// Warnings are collected and returned alongside the successful document.
type Warning struct {
	Code    WarningCode `json:"code"`
	Node    string      `json:"node,omitempty"` // source node identifier, if applicable
	Message string      `json:"message"`
}

// String formats the warning for log output.
func (w Warning) String() string {
	if w.Node != "" {
		return fmt.Sprintf("%s [%s]: %s", w.Code, w.Node, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Warningf constructs a Warning with a formatted message.
func Warningf(code WarningCode, node, format string, args ...any) Warning {
	return Warning{
		Code:    code,
		Node:    node,
		Message: fmt.Sprintf(format, args...),
	}
}
