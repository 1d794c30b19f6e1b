package custodian

import (
	"errors"
	"fmt"
)

// Kind groups failures by what went wrong.
type Kind uint8

const (
	KindAuthorization Kind = iota + 1
	KindState
	KindArithmetic
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindArithmetic:
		return "arithmetic"
	case KindValidation:
		return "validation"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is a gateway rejection. Code is stable and is what clients see.
type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Code
}

// Is matches on Code so that wrapped copies compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

var (
	ErrNotAuthority        = newError(KindAuthorization, "NotAuthority")
	ErrNotPendingAuthority = newError(KindAuthorization, "NotPendingAuthority")

	ErrNoPendingChange    = newError(KindState, "NoPendingChange")
	ErrAlreadyPaused      = newError(KindState, "AlreadyPaused")
	ErrIsNotPaused        = newError(KindState, "IsNotPaused")
	ErrIsPaused           = newError(KindState, "IsPaused")
	ErrAlreadyInitialized = newError(KindState, "AlreadyInitialized")
	ErrNotInitialized     = newError(KindState, "NotInitialized")

	ErrMintedAmountUnderflow = newError(KindArithmetic, "MintedAmountUnderflow")
	ErrMintedAmountOverflow  = newError(KindArithmetic, "MintedAmountOverflow")
	ErrMintingLimitExceeded  = newError(KindArithmetic, "MintingLimitExceeded")

	ErrTransferAlreadyRedeemed = newError(KindValidation, "TransferAlreadyRedeemed")
	ErrInvalidSourceAsset      = newError(KindValidation, "InvalidSourceAsset")
	ErrNoAmountTransferred     = newError(KindValidation, "NoAmountTransferred")
	ErrRecipientZeroAddress    = newError(KindValidation, "RecipientZeroAddress")
	ErrInvalidTransferPayload  = newError(KindValidation, "InvalidTransferPayload")
	ErrZeroRecipient           = newError(KindValidation, "ZeroRecipient")
	ErrZeroAmount              = newError(KindValidation, "ZeroAmount")
	ErrNotEnoughWrappedAsset   = newError(KindValidation, "NotEnoughWrappedAsset")
	ErrUnknownGateway          = newError(KindValidation, "UnknownGateway")
)

// AsError extracts the gateway rejection from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
