package compose

import (
	"errors"
	"fmt"

	"github.com/roach88/recompose/internal/hooks"
	"github.com/roach88/recompose/internal/slot"
)

// ErrorCode categorizes contract violations.
type ErrorCode string

const (
	// ErrCodeMissingContext indicates MustUseContext found no provider.
	ErrCodeMissingContext ErrorCode = "MISSING_CONTEXT"

	// ErrCodeHookOrder indicates hooks were called in a different order,
	// type or count than the previous execution of the scope.
	ErrCodeHookOrder ErrorCode = "HOOK_ORDER"

	// ErrCodeSlotKind indicates a slot did not hold the kind or payload type
	// the caller expected.
	ErrCodeSlotKind ErrorCode = "SLOT_KIND"

	// ErrCodeSlotBounds indicates an out-of-range slot table access.
	ErrCodeSlotBounds ErrorCode = "SLOT_BOUNDS"

	// ErrCodeReentrant indicates a pass was started while another pass was
	// running on the same composer.
	ErrCodeReentrant ErrorCode = "REENTRANT"

	// ErrCodeNotComposing indicates a composer operation outside a pass.
	ErrCodeNotComposing ErrorCode = "NOT_COMPOSING"

	// ErrCodeStaleScope indicates a scope's recorded slot index no longer
	// points at its group.
	ErrCodeStaleScope ErrorCode = "STALE_SCOPE"

	// ErrCodeQuotaExceeded indicates one pass recomposed more scopes than
	// the configured limit, typically a write cycle between scopes.
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"
)

// ErrAborted is returned by every pass after a pass was aborted, until Reset.
var ErrAborted = errors.New("composer aborted by a previous pass; call Reset")

// ContractError reports a programmer-contract violation. It aborts the pass
// and is not recoverable without Reset: the tree shape is undefined.
type ContractError struct {
	// Code identifies the violation category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Index is the slot index the violation was detected at, or -1.
	Index int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s (slot=%d)", msg, e.Index)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// ApplyError reports a failed applier operation. The pass that issued it is
// aborted and the error is returned to the driver.
type ApplyError struct {
	Op    string
	Index int
	Node  NodeID
	Err   error
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	return fmt.Sprintf("applier %s (index=%d, node=%d): %v", e.Op, e.Index, e.Node, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// IsContractError returns true if err is a contract violation.
// Uses errors.As to handle wrapped errors.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}

// IsApplyError returns true if err is an applier failure.
func IsApplyError(err error) bool {
	var ae *ApplyError
	return errors.As(err, &ae)
}

// CodeOf returns the contract error code of err, or "".
func CodeOf(err error) ErrorCode {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func contractf(code ErrorCode, index int, format string, args ...any) *ContractError {
	return &ContractError{Code: code, Message: fmt.Sprintf(format, args...), Index: index}
}

// fail aborts the current pass.
func fail(err error) {
	panic(err)
}

// asPassError converts a recovered panic value into a pass error. Values that
// are not part of the taxonomy are returned as nil so the caller re-panics.
func asPassError(r any) error {
	switch e := r.(type) {
	case *ContractError:
		return e
	case *ApplyError:
		return e
	case *slot.BoundsError:
		return &ContractError{Code: ErrCodeSlotBounds, Message: "slot table access out of range", Index: e.Index, Err: e}
	case *slot.KindError:
		return &ContractError{Code: ErrCodeSlotKind, Message: "slot payload mismatch", Index: -1, Err: e}
	case *hooks.OrderError:
		return &ContractError{Code: ErrCodeHookOrder, Message: "hook call order changed between executions", Index: -1, Err: e}
	default:
		return nil
	}
}
