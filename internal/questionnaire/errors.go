package questionnaire

import "errors"

// Tree operations never panic on stale input. They return the tree they were
// given together with one of these errors, so callers can treat the edit as a no-op.
var (
	// ErrPathNotFound means a path no longer resolves against the tree.
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidMove means a move crosses incompatible sibling lists.
	ErrInvalidMove = errors.New("invalid move")
	// ErrMalformedPath means a wire path could not be decoded.
	ErrMalformedPath = errors.New("malformed path")
	// ErrUnknownField means SetField was asked for a field the node lacks.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue means a field value has the wrong type or an unsupported value.
	ErrInvalidValue = errors.New("invalid value")
	// ErrDuplicateID means two nodes of a tree share an id.
	ErrDuplicateID = errors.New("duplicate node id")
	// ErrInvalidNode means a node is missing its id or has an unknown type.
	ErrInvalidNode = errors.New("invalid node")
)
