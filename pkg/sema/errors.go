// Package sema implements the semantic analysis passes: jump
// resolution, local reference resolution, type resolution,
// dereference checking and type checking.
package sema

import (
	"fmt"

	"github.com/lifes/cbc-ubuntu-64bit/pkg/ast"
)

// ErrorHandler collects diagnostics with positions across the
// semantic passes. A pass reports as many errors as it can find; the
// phase as a whole fails if any were recorded.
type ErrorHandler struct {
	errors   []string
	warnings []string
}

// NewErrorHandler creates an empty handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// Errorf records an error at a position
func (h *ErrorHandler) Errorf(pos ast.Pos, format string, args ...interface{}) {
	h.errors = append(h.errors, fmt.Sprintf("%s: error: %s", pos, fmt.Sprintf(format, args...)))
}

// ErrorMsg records an already formatted diagnostic
func (h *ErrorHandler) ErrorMsg(msg string) {
	h.errors = append(h.errors, msg)
}

// Warnf records a warning at a position
func (h *ErrorHandler) Warnf(pos ast.Pos, format string, args ...interface{}) {
	h.warnings = append(h.warnings, fmt.Sprintf("%s: warning: %s", pos, fmt.Sprintf(format, args...)))
}

// Errors returns the recorded errors in order
func (h *ErrorHandler) Errors() []string { return h.errors }

// Warnings returns the recorded warnings in order
func (h *ErrorHandler) Warnings() []string { return h.warnings }

// HasErrors reports whether any error was recorded
func (h *ErrorHandler) HasErrors() bool { return len(h.errors) > 0 }
