package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a command was rejected or only partly completed
type ErrorKind int

const (
	// KindInputValidation covers non-positive amounts, negative NAVs and unknown investors
	KindInputValidation ErrorKind = iota + 1
	// KindStateInvariant covers requests the current ledger state cannot honour
	KindStateInvariant
	// KindReversalSafety covers undo/delete requests that cannot be reversed safely
	KindReversalSafety
	// KindPersistence means the in-memory commit succeeded but the save did not
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindInputValidation:
		return "input validation"
	case KindStateInvariant:
		return "state invariant violation"
	case KindReversalSafety:
		return "reversal safety violation"
	case KindPersistence:
		return "persistence failure"
	default:
		return "unknown"
	}
}

// Sentinel errors, matched with errors.Is
var (
	ErrNonPositiveAmount  = errors.New("amount must be positive")
	ErrNegativeNAV        = errors.New("nav must not be negative")
	ErrUnknownInvestor    = errors.New("investor not found")
	ErrDuplicateInvestor  = errors.New("investor already exists")
	ErrMissingOperator    = errors.New("fund operator not found")
	ErrNoPosition         = errors.New("investor holds no units")
	ErrUnpriceable        = errors.New("fund cannot be priced at this nav")
	ErrInsufficientUnits  = errors.New("insufficient units")
	ErrFeeExceedsBalance  = errors.New("fee exceeds balance")
	ErrTransactionMissing = errors.New("transaction not found")
	ErrOutsideWindow      = errors.New("transaction is outside the reversal window")
	ErrAmbiguousTarget    = errors.New("reversal target is ambiguous")
	ErrFeesPaid           = errors.New("tranche has already paid fees")
	ErrCorrelatedRecord   = errors.New("transaction has a correlated fee record")
	ErrNotReversible      = errors.New("transaction kind cannot be reversed directly")
	ErrSaveFailed         = errors.New("failed to save fund data")
)

// Error is the typed error returned by every command of the engine
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and the operation that produced it
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Invalid is shorthand for an input validation error with extra context
func Invalid(op string, err error, format string, args ...any) *Error {
	return NewError(KindInputValidation, op, fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
}

// Violation is shorthand for a state invariant error with extra context
func Violation(op string, err error, format string, args ...any) *Error {
	return NewError(KindStateInvariant, op, fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
}

// Unsafe is shorthand for a reversal safety error with extra context
func Unsafe(op string, err error, format string, args ...any) *Error {
	return NewError(KindReversalSafety, op, fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
}

// KindOf returns the kind of the first *Error in err's chain, or 0
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
