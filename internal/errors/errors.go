package errors

import (
	"fmt"
	"runtime"
)

// Warning categories for the reclamation sub-steps
type WarningType string

const (
	WarningTypeAccelerator WarningType = "accelerator"
	WarningTypeCommand     WarningType = "command"
	WarningTypeTimeout     WarningType = "timeout"
	WarningTypePrivilege   WarningType = "privilege"
	WarningTypeModels      WarningType = "models"
	WarningTypeUnsupported WarningType = "unsupported"
)

// Warning carries the context of a failed or skipped sub-step. Warnings are
// recorded on the report and logged; they are never returned to the host.
type Warning struct {
	Type      WarningType
	Operation string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Stack     []uintptr
}

// Error implements the error interface
func (w *Warning) Error() string {
	if w.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", w.Type, w.Operation, w.Message, w.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Type, w.Operation, w.Message)
}

// Unwrap returns the underlying cause
func (w *Warning) Unwrap() error {
	return w.Cause
}

// New creates a new warning
func New(wType WarningType, operation, message string) *Warning {
	return &Warning{
		Type:      wType,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// Wrap attaches a warning category and operation to an underlying error.
// Returns nil when err is nil.
func Wrap(err error, wType WarningType, operation, message string) *Warning {
	if err == nil {
		return nil
	}

	return &Warning{
		Type:      wType,
		Operation: operation,
		Message:   message,
		Cause:     err,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// WithContext adds context information to a warning
func (w *Warning) WithContext(key string, value interface{}) *Warning {
	if w.Context == nil {
		w.Context = make(map[string]interface{})
	}
	w.Context[key] = value
	return w
}

// captureStack captures the current stack trace
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(2, pcs[:]) // Skip this function and caller
	return pcs[:n]
}

// Constructors for the warning taxonomy

// NewAcceleratorWarning reports an unavailable or failing accelerator step
func NewAcceleratorWarning(operation, message string) *Warning {
	return New(WarningTypeAccelerator, operation, message)
}

// NewCommandWarning reports a missing or failed external command
func NewCommandWarning(operation, message string) *Warning {
	return New(WarningTypeCommand, operation, message)
}

// NewTimeoutWarning reports an external command exceeding its deadline
func NewTimeoutWarning(operation, message string) *Warning {
	return New(WarningTypeTimeout, operation, message)
}

// NewPrivilegeWarning reports insufficient privilege for a cache-drop step
func NewPrivilegeWarning(operation, message string) *Warning {
	return New(WarningTypePrivilege, operation, message)
}

// NewUnsupportedWarning reports a step with no implementation on this OS
func NewUnsupportedWarning(operation, message string) *Warning {
	return New(WarningTypeUnsupported, operation, message)
}

// WrapCommandWarning wraps a command execution failure
func WrapCommandWarning(err error, operation, message string) *Warning {
	return Wrap(err, WarningTypeCommand, operation, message)
}

// WrapTimeoutWarning wraps a deadline-exceeded failure
func WrapTimeoutWarning(err error, operation, message string) *Warning {
	return Wrap(err, WarningTypeTimeout, operation, message)
}

// WrapModelsWarning wraps a failure from the host's model manager
func WrapModelsWarning(err error, operation, message string) *Warning {
	return Wrap(err, WarningTypeModels, operation, message)
}

// WrapAcceleratorWarning wraps an accelerator runtime failure
func WrapAcceleratorWarning(err error, operation, message string) *Warning {
	return Wrap(err, WarningTypeAccelerator, operation, message)
}
