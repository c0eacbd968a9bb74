package loyalty

import "fmt"

// Kind identifies the class of failure a ProtocolError reports. Every
// kind named in the specification's error handling section has a
// corresponding value here so that callers can distinguish failures
// with errors.Is/errors.As instead of string matching.
type Kind int

const (
	_ Kind = iota
	ErrInvalidKey
	ErrInvalidCiphertext
	ErrInvalidProofEq
	ErrInvalidProofDec
	ErrInvalidProofMerkle
	ErrBadCommitment
	ErrUnknownTx
	ErrDuplicateTx
	ErrProtocolOrder
	ErrEmptyRegistry
	ErrUserNotFound
	ErrPointsOutOfRange
	ErrBalanceOutOfRange
	ErrRngFailure
	ErrSerialization
	ErrPointsRequired
)

func (k Kind) String() string {
	switch k {
	case ErrInvalidKey:
		return "InvalidKey"
	case ErrInvalidCiphertext:
		return "InvalidCiphertext"
	case ErrInvalidProofEq:
		return "InvalidProofEq"
	case ErrInvalidProofDec:
		return "InvalidProofDec"
	case ErrInvalidProofMerkle:
		return "InvalidProofMerkle"
	case ErrBadCommitment:
		return "BadCommitment"
	case ErrUnknownTx:
		return "UnknownTx"
	case ErrDuplicateTx:
		return "DuplicateTx"
	case ErrProtocolOrder:
		return "ProtocolOrder"
	case ErrEmptyRegistry:
		return "EmptyRegistry"
	case ErrUserNotFound:
		return "UserNotFound"
	case ErrPointsOutOfRange:
		return "PointsOutOfRange"
	case ErrBalanceOutOfRange:
		return "BalanceOutOfRange"
	case ErrRngFailure:
		return "RngFailure"
	case ErrSerialization:
		return "SerializationError"
	case ErrPointsRequired:
		return "PointsRequired"
	default:
		return "Unknown"
	}
}

// ProtocolError is the error type returned by every exported operation
// in this module. A verification failure is always fatal to the
// current transaction; there is no local retry.
type ProtocolError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Is reports whether target is a ProtocolError with the same Kind,
// so that callers can do errors.Is(err, loyalty.Sentinel(loyalty.ErrUnknownTx))
// style checks against a sentinel-shaped value, in addition to errors.As.
func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(k Kind, msg string) error {
	return &ProtocolError{Kind: k, Msg: msg}
}

func wrapErr(k Kind, msg string, err error) error {
	return &ProtocolError{Kind: k, Msg: msg, Err: err}
}

// Sentinel constructs a bare ProtocolError of the given kind, usable
// as an errors.Is target: errors.Is(err, loyalty.Sentinel(loyalty.ErrUnknownTx)).
func Sentinel(k Kind) error {
	return &ProtocolError{Kind: k}
}
