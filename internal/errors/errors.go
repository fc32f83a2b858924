package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrValidation reports invalid input on a single field. The operation that
// raised it performed no mutation.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

// ErrNotFound reports a missing entity from a repository lookup.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ErrInsufficientFunds reports a cash debit larger than the available balance.
type ErrInsufficientFunds struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds: requested %s, available %s",
		e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// ErrInsufficientShares reports a sell larger than the held quantity.
type ErrInsufficientShares struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *ErrInsufficientShares) Error() string {
	return fmt.Sprintf("insufficient shares: requested %s, available %s",
		e.Requested.String(), e.Available.String())
}

// ErrInvalidTransition reports a transaction status change out of a terminal
// state. Callers should treat it as a logic error, not retry.
type ErrInvalidTransition struct {
	From string
	To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

func IsValidation(err error) bool {
	var ve *ErrValidation
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

func IsInsufficientFunds(err error) bool {
	var ie *ErrInsufficientFunds
	return errors.As(err, &ie)
}

func IsInsufficientShares(err error) bool {
	var ie *ErrInsufficientShares
	return errors.As(err, &ie)
}

func IsInvalidTransition(err error) bool {
	var it *ErrInvalidTransition
	return errors.As(err, &it)
}
