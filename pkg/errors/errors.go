package errors

import (
	"errors"
	"fmt"
)

// Common application errors with proper types for error handling

var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates missing or invalid authentication
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a conflict with existing data
	ErrConflict = errors.New("conflict")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")
)

// Kind names a ledger failure. Kinds are surfaced verbatim to API callers.
type Kind string

const (
	KindAlreadyRegistered        Kind = "AlreadyRegistered"
	KindNotRegistered            Kind = "NotRegistered"
	KindMentorUnavailable        Kind = "MentorUnavailable"
	KindSessionAlreadyActive     Kind = "SessionAlreadyActive"
	KindSessionNotActive         Kind = "SessionNotActive"
	KindSessionNotCompleted      Kind = "SessionNotCompleted"
	KindInsufficientBalance      Kind = "InsufficientBalance"
	KindInsufficientAllowance    Kind = "InsufficientAllowance"
	KindFeeExceedsCap            Kind = "FeeExceedsCap"
	KindUnauthorized             Kind = "Unauthorized"
	KindNFTContractNotSet        Kind = "NFTContractNotSet"
	KindAchievementAlreadyMinted Kind = "AchievementAlreadyMinted"
	KindInvalidRating            Kind = "InvalidRating"
	KindNotFound                 Kind = "NotFound"
	KindInvalidInput             Kind = "InvalidInput"
)

// Error is a ledger failure carrying its Kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same Kind, so wrapped values compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Unwrap maps kinds onto the generic categories used by the HTTP layer
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindNotRegistered, KindNotFound:
		return ErrNotFound
	case KindUnauthorized:
		return ErrUnauthorized
	case KindInvalidRating, KindFeeExceedsCap, KindInvalidInput:
		return ErrInvalidInput
	default:
		return ErrConflict
	}
}

// New creates a ledger error of the given kind
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrAlreadyRegistered        = &Error{Kind: KindAlreadyRegistered, Message: "already registered"}
	ErrNotRegistered            = &Error{Kind: KindNotRegistered, Message: "not registered"}
	ErrMentorUnavailable        = &Error{Kind: KindMentorUnavailable, Message: "mentor is not available"}
	ErrSessionAlreadyActive     = &Error{Kind: KindSessionAlreadyActive, Message: "student already has an active session"}
	ErrSessionNotActive         = &Error{Kind: KindSessionNotActive, Message: "no active session"}
	ErrSessionNotCompleted      = &Error{Kind: KindSessionNotCompleted, Message: "session is not completed"}
	ErrInsufficientBalance      = &Error{Kind: KindInsufficientBalance, Message: "insufficient EDU token balance"}
	ErrInsufficientAllowance    = &Error{Kind: KindInsufficientAllowance, Message: "insufficient EDU token allowance"}
	ErrFeeExceedsCap            = &Error{Kind: KindFeeExceedsCap, Message: "fee cannot exceed 20%"}
	ErrLedgerUnauthorized       = &Error{Kind: KindUnauthorized, Message: "caller lacks the required role"}
	ErrNFTContractNotSet        = &Error{Kind: KindNFTContractNotSet, Message: "NFT contract not set"}
	ErrAchievementAlreadyMinted = &Error{Kind: KindAchievementAlreadyMinted, Message: "achievement already minted for session"}
	ErrInvalidRating            = &Error{Kind: KindInvalidRating, Message: "rating must be between 1 and 5"}
)

// KindOf returns the ledger kind of err, or "" when err carries none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// NotFoundError creates a not found error with context
func NotFoundError(resource string) error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// InvalidInputError creates an invalid input error with context
func InvalidInputError(field, reason string) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("%s: %s", field, reason)}
}

// InternalError creates an internal error with context
func InternalError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInternal)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
