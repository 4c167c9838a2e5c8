package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewValidationError(ErrCodeSlotRejected, "type Button not accepted").WithNode("n1")
	assert.Equal(t, "[ERR_SLOT_REJECTED] node:n1 type Button not accepted", err.Error())

	wrapped := NewInternalError("write failed", stderrors.New("disk full"))
	assert.Equal(t, "[ERR_INTERNAL] write failed: disk full", wrapped.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("underlying")
	err := NewSerializationError(ErrCodeCorruptDocument, "bad body", cause)
	assert.ErrorIs(t, err, cause)

	var pe *PagewrightError
	require.ErrorAs(t, fmt.Errorf("loading page: %w", err), &pe)
	assert.Equal(t, ErrCodeCorruptDocument, pe.Code)
}

func TestErrorIsMatchesTypeAndCode(t *testing.T) {
	err := NewValidationError(ErrCodeSlotRejected, "rejected")

	assert.ErrorIs(t, err, &PagewrightError{Type: ErrorTypeValidation, Code: ErrCodeSlotRejected})
	// An empty target code matches any code of the same type
	assert.ErrorIs(t, err, &PagewrightError{Type: ErrorTypeValidation})
	assert.NotErrorIs(t, err, &PagewrightError{Type: ErrorTypeValidation, Code: ErrCodeFieldType})
	assert.NotErrorIs(t, err, &PagewrightError{Type: ErrorTypeCycle})
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"validation", NewValidationError(ErrCodeSlotRejected, "x"), IsValidationError},
		{"cycle", NewCycleError("n1"), IsCycleError},
		{"unknown type", NewUnknownTypeError("Carousel"), IsUnknownTypeError},
		{"stale proposal", NewStaleProposalError(1, 2), IsStaleProposalError},
		{"serialization", NewSerializationError(ErrCodeCorruptDocument, "x", nil), IsSerializationError},
		{"conflict", NewConflictError("x"), IsConflictError},
		{"not found", NewNotFoundError(ErrCodeNodeNotFound, "x"), IsNotFoundError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			// Wrapped errors still match
			assert.True(t, tt.pred(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.pred(stderrors.New("plain")))
		})
	}
}

func TestRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(NewValidationError(ErrCodeSlotRejected, "x")))
	assert.True(t, IsRecoverable(NewStaleProposalError(1, 2)))
	assert.False(t, IsRecoverable(NewInternalError("x", nil)))
	assert.False(t, IsRecoverable(stderrors.New("plain")))
}

func TestStaleProposalContext(t *testing.T) {
	err := NewStaleProposalError(3, 7)
	assert.Equal(t, uint64(3), err.Context["proposal_version"])
	assert.Equal(t, uint64(7), err.Context["current_version"])
}
