package core

import "fmt"

// ErrorKind classifies a ChainError. It replaces the deep C++ exception
// hierarchy of the source project with a flat tagged sum: callers switch on
// Kind instead of catching concrete exception types.
type ErrorKind int

const (
	// Structural
	ErrDecode ErrorKind = iota
	ErrEncode
	ErrInvalidType
	ErrRecursionLimit
	ErrDeadlineExceeded

	// TDB
	ErrDupKey
	ErrUnknownKey
	ErrNoSavepoint
	ErrCacheMisuse
	ErrSnapshotFailure

	// Authorization
	ErrUnsatisfiedAuthorization
	ErrDuplicateSignature
	ErrIrrelevantSignature
	ErrInvalidScriptResult

	// Domain/Token/Group/Fungible/Suspend/Lock/Bonus/Staking
	ErrDomainExists
	ErrUnknownDomain
	ErrTokenExists
	ErrUnknownToken
	ErrTokenDestroyed
	ErrInvalidGroupStructure
	ErrUnknownGroup
	ErrGroupExists
	ErrFungibleExists
	ErrUnknownFungible
	ErrFungibleSupply
	ErrInsufficientBalance
	ErrInvalidPermission
	ErrSuspendExists
	ErrUnknownSuspend
	ErrSuspendNotProposed
	ErrAddressBlacked

	// Staking
	ErrStakePoolExists
	ErrUnknownStakePool
	ErrValidatorExists
	ErrUnknownValidator
	ErrUnknownStakeRequest
	ErrStakeNotMature
	ErrInvalidStakeType

	// Charge/Payer
	ErrChargeExceeded
	ErrMaxChargeExceeded
	ErrInvalidPayer

	// Link
	ErrInvalidLinkVersion
	ErrInvalidLinkType
	ErrExpiredLink
	ErrDuplicateLink

	// Execution
	ErrUnknownAction
	ErrInvalidActionVersion
)

var errKindNames = map[ErrorKind]string{
	ErrDecode:                   "DecodeError",
	ErrEncode:                   "EncodeError",
	ErrInvalidType:              "InvalidType",
	ErrRecursionLimit:           "RecursionLimit",
	ErrDeadlineExceeded:         "DeadlineExceeded",
	ErrDupKey:                   "DupKey",
	ErrUnknownKey:               "UnknownKey",
	ErrNoSavepoint:              "NoSavepoint",
	ErrCacheMisuse:              "CacheMisuse",
	ErrSnapshotFailure:          "SnapshotFailure",
	ErrUnsatisfiedAuthorization: "UnsatisfiedAuthorization",
	ErrDuplicateSignature:       "DuplicateSignature",
	ErrIrrelevantSignature:      "IrrelevantSignature",
	ErrInvalidScriptResult:      "InvalidScriptResult",
	ErrDomainExists:             "DomainExists",
	ErrUnknownDomain:            "UnknownDomain",
	ErrTokenExists:              "TokenExists",
	ErrUnknownToken:             "UnknownToken",
	ErrTokenDestroyed:           "TokenDestroyed",
	ErrInvalidGroupStructure:    "InvalidGroupStructure",
	ErrUnknownGroup:             "UnknownGroup",
	ErrGroupExists:              "GroupExists",
	ErrFungibleExists:           "FungibleExists",
	ErrUnknownFungible:          "UnknownFungible",
	ErrFungibleSupply:           "FungibleSupply",
	ErrInsufficientBalance:      "InsufficientBalance",
	ErrInvalidPermission:        "InvalidPermission",
	ErrSuspendExists:            "SuspendExists",
	ErrUnknownSuspend:           "UnknownSuspend",
	ErrSuspendNotProposed:       "SuspendNotProposed",
	ErrAddressBlacked:           "AddressBlacked",
	ErrStakePoolExists:          "StakePoolExists",
	ErrUnknownStakePool:         "UnknownStakePool",
	ErrValidatorExists:          "ValidatorExists",
	ErrUnknownValidator:         "UnknownValidator",
	ErrUnknownStakeRequest:      "UnknownStakeRequest",
	ErrStakeNotMature:           "StakeNotMature",
	ErrInvalidStakeType:         "InvalidStakeType",
	ErrChargeExceeded:           "ChargeExceeded",
	ErrMaxChargeExceeded:        "MaxChargeExceeded",
	ErrInvalidPayer:             "InvalidPayer",
	ErrInvalidLinkVersion:       "InvalidLinkVersion",
	ErrInvalidLinkType:          "InvalidLinkType",
	ErrExpiredLink:              "ExpiredLink",
	ErrDuplicateLink:            "DuplicateLink",
	ErrUnknownAction:            "UnknownAction",
	ErrInvalidActionVersion:     "InvalidActionVersion",
}

func (k ErrorKind) String() string {
	if s, ok := errKindNames[k]; ok {
		return s
	}
	return "UnknownError"
}

// ChainError is the single error type returned across the TDB, authority
// checker, execution context and action handlers. The transaction context
// is the only place that needs to catch it: on any ChainError it rolls the
// transaction's TDB session back and attaches {Kind, Message, Path} to the
// receipt, per spec.md §7.
type ChainError struct {
	Kind    ErrorKind
	Message string
	// Path is the dotted structural path for decode errors, empty otherwise.
	Path    string
	Context map[string]any
}

func (e *ChainError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// newChainError builds a ChainError from alternating key/value context pairs.
func newChainError(kind ErrorKind, message string, kv ...any) *ChainError {
	ctx := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			ctx[key] = kv[i+1]
		}
	}
	return &ChainError{Kind: kind, Message: message, Context: ctx}
}

// withPath attaches a dotted decode path to a ChainError, used by the codec.
func (e *ChainError) withPath(path string) *ChainError {
	e.Path = path
	return e
}

// Is implements error classification against a sentinel ErrorKind wrapped in
// a ChainError, so callers can do `errors.Is(err, &core.ChainError{Kind: core.ErrTokenDestroyed})`.
func (e *ChainError) Is(target error) bool {
	ce, ok := target.(*ChainError)
	if !ok {
		return false
	}
	return e.Kind == ce.Kind
}

// KindOf extracts the ErrorKind from err if it is a *ChainError.
func KindOf(err error) (ErrorKind, bool) {
	ce, ok := err.(*ChainError)
	if !ok {
		return 0, false
	}
	return ce.Kind, true
}
