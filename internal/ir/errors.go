package ir

import (
	"errors"
	"fmt"

	"myst/internal/ast"
	"myst/internal/token"
)

var (
	ErrUnresolvedSymbol         = errors.New("unresolved symbol")
	ErrInvalidAssignmentTarget  = errors.New("invalid assignment target")
	ErrInvalidDeclarationTarget = errors.New("invalid declaration target")
	ErrUnsupportedConstruct     = errors.New("unsupported construct")
	ErrMalformedCallee          = errors.New("malformed callee")
	ErrDuplicateDeclaration     = errors.New("duplicate declaration")
)

// CompileError reports the node that could not be lowered. Kind is one of
// the Err* sentinels above; errors.Is matches it, and the underlying cause
// when there is one.
type CompileError struct {
	Kind  error
	Node  ast.Node
	Pos   token.Position
	Msg   string
	Cause error
}

func (e *CompileError) Error() string {
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, msg)
}

func (e *CompileError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func newError(kind error, n ast.Node, format string, args ...interface{}) *CompileError {
	e := &CompileError{Kind: kind, Node: n, Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Pos = n.Pos()
	}
	return e
}

func wrapError(kind error, n ast.Node, cause error) *CompileError {
	e := newError(kind, n, "%v", cause)
	e.Cause = cause
	return e
}
