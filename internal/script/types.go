package script

import (
	"time"
)

// ErrorType categorizes script failures.
type ErrorType string

const (
	ErrorTypeCompilation ErrorType = "compilation"
	ErrorTypeExecution   ErrorType = "execution"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeInvalid     ErrorType = "invalid_result"
)

// SecurityLimits defines resource constraints for script execution.
type SecurityLimits struct {
	MaxExecutionTime time.Duration
	// MaxAllocs bounds the objects a single run may allocate.
	MaxAllocs       int64
	AllowedPackages []string
}

// ScriptError represents script-related errors with context.
type ScriptError struct {
	Type       ErrorType
	ScriptName string
	Message    string
	Cause      error
	Timestamp  time.Time
}

func (e *ScriptError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// NewScriptError creates a new ScriptError with the given parameters.
func NewScriptError(errorType ErrorType, scriptName, message string, cause error) *ScriptError {
	return &ScriptError{
		Type:       errorType,
		ScriptName: scriptName,
		Message:    message,
		Cause:      cause,
		Timestamp:  time.Now(),
	}
}
