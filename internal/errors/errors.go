// Package errors provides the structured error taxonomy for Pagewright
// document operations. Every rejected mutation carries a typed error so
// callers can distinguish recoverable conditions (unknown component types,
// stale AI proposals) from hard rejections (validation and cycle failures,
// which leave the document unchanged).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	// ErrorTypeValidation rejects a slot/type pairing on insert or move
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeCycle rejects a move into the node's own subtree
	ErrorTypeCycle ErrorType = "cycle"
	// ErrorTypeUnknownType marks a registry miss; rendering degrades to a placeholder
	ErrorTypeUnknownType ErrorType = "unknown_type"
	// ErrorTypeStaleProposal rejects an AI patch built against an outdated version
	ErrorTypeStaleProposal ErrorType = "stale_proposal"
	// ErrorTypeSerialization marks a corrupt or unsupported-schema document
	ErrorTypeSerialization ErrorType = "serialization"
	// ErrorTypeConflict marks a persistence version mismatch on save
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeNotFound marks a missing node, page, or symbol
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeInternal marks an invariant violation inside the engine
	ErrorTypeInternal ErrorType = "internal"
)

// PagewrightError is a structured error type with context.
type PagewrightError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]any
	NodeID      string
	Recoverable bool
}

// Error implements the error interface.
func (e *PagewrightError) Error() string {
	var parts []string
	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.NodeID != "" {
		parts = append(parts, "node:"+e.NodeID)
	}
	parts = append(parts, e.Message)
	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *PagewrightError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *PagewrightError) Is(target error) bool {
	var t *PagewrightError
	if errors.As(target, &t) {
		return e.Type == t.Type && (t.Code == "" || e.Code == t.Code)
	}
	return false
}

// WithContext adds context information to the error.
func (e *PagewrightError) WithContext(key string, value any) *PagewrightError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithNode adds node context.
func (e *PagewrightError) WithNode(nodeID string) *PagewrightError {
	e.NodeID = nodeID
	return e
}

// Common error codes.
const (
	ErrCodeSlotRejected      = "ERR_SLOT_REJECTED"
	ErrCodeTypeRejected      = "ERR_TYPE_REJECTED"
	ErrCodeFieldType         = "ERR_FIELD_TYPE"
	ErrCodeRootImmutable     = "ERR_ROOT_IMMUTABLE"
	ErrCodeCycle             = "ERR_CYCLE"
	ErrCodeNodeNotFound      = "ERR_NODE_NOT_FOUND"
	ErrCodePageNotFound      = "ERR_PAGE_NOT_FOUND"
	ErrCodeSymbolNotFound    = "ERR_SYMBOL_NOT_FOUND"
	ErrCodeUnknownType       = "ERR_UNKNOWN_TYPE"
	ErrCodeStaleProposal     = "ERR_STALE_PROPOSAL"
	ErrCodeCorruptDocument   = "ERR_CORRUPT_DOCUMENT"
	ErrCodeUnsupportedSchema = "ERR_UNSUPPORTED_SCHEMA"
	ErrCodeSaveConflict      = "ERR_SAVE_CONFLICT"
	ErrCodeInternal          = "ERR_INTERNAL"
)

// NewValidationError creates a validation error. Validation failures are
// all-or-nothing: the document is left unchanged.
func NewValidationError(code, message string) *PagewrightError {
	return &PagewrightError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewCycleError creates a cycle error for a move into the node's own subtree.
func NewCycleError(nodeID string) *PagewrightError {
	return &PagewrightError{
		Type:        ErrorTypeCycle,
		Code:        ErrCodeCycle,
		Message:     "move would create a cycle",
		NodeID:      nodeID,
		Recoverable: true,
	}
}

// NewUnknownTypeError creates a registry-miss error. Non-fatal: rendering
// degrades to a placeholder.
func NewUnknownTypeError(componentType string) *PagewrightError {
	return &PagewrightError{
		Type:        ErrorTypeUnknownType,
		Code:        ErrCodeUnknownType,
		Message:     "unknown component type: " + componentType,
		Recoverable: true,
	}
}

// NewStaleProposalError creates a stale-proposal error carrying the version
// the proposal was built against and the current document version.
func NewStaleProposalError(proposalVersion, currentVersion uint64) *PagewrightError {
	return (&PagewrightError{
		Type:        ErrorTypeStaleProposal,
		Code:        ErrCodeStaleProposal,
		Message:     "proposal built against an outdated document version",
		Recoverable: true,
	}).WithContext("proposal_version", proposalVersion).
		WithContext("current_version", currentVersion)
}

// NewSerializationError creates a serialization error for corrupt or
// unsupported-schema documents on load.
func NewSerializationError(code, message string, cause error) *PagewrightError {
	return &PagewrightError{
		Type:    ErrorTypeSerialization,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConflictError creates a save-conflict error.
func NewConflictError(message string) *PagewrightError {
	return &PagewrightError{
		Type:        ErrorTypeConflict,
		Code:        ErrCodeSaveConflict,
		Message:     message,
		Recoverable: true,
	}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(code, message string) *PagewrightError {
	return &PagewrightError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *PagewrightError {
	return &PagewrightError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternal,
		Message: message,
		Cause:   cause,
	}
}

// isType reports whether err is a PagewrightError of the given type.
func isType(err error, t ErrorType) bool {
	var pe *PagewrightError
	if errors.As(err, &pe) {
		return pe.Type == t
	}
	return false
}

// IsValidationError checks if an error is a validation rejection.
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsCycleError checks if an error is a cycle rejection.
func IsCycleError(err error) bool { return isType(err, ErrorTypeCycle) }

// IsUnknownTypeError checks if an error is a registry miss.
func IsUnknownTypeError(err error) bool { return isType(err, ErrorTypeUnknownType) }

// IsStaleProposalError checks if an error is a stale-proposal rejection.
func IsStaleProposalError(err error) bool { return isType(err, ErrorTypeStaleProposal) }

// IsSerializationError checks if an error is a serialization failure.
func IsSerializationError(err error) bool { return isType(err, ErrorTypeSerialization) }

// IsConflictError checks if an error is a save conflict.
func IsConflictError(err error) bool { return isType(err, ErrorTypeConflict) }

// IsNotFoundError checks if an error is a not-found miss.
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsRecoverable checks if an error is recoverable with a non-blocking notice.
func IsRecoverable(err error) bool {
	var pe *PagewrightError
	if errors.As(err, &pe) {
		return pe.Recoverable
	}
	return false
}
