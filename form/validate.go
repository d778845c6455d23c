package form

import (
	"errors"
	"math/big"
	"time"
)

// Validation errors. Only one is reported at a time.
var (
	ErrInvalidFee              = errors.New("invalid fee percentage")
	ErrInvalidPenalty          = errors.New("invalid penalty percentage")
	ErrInvalidFeeRecipient     = errors.New("invalid fee recipient address")
	ErrInvalidLockingWindow    = errors.New("invalid expiry and locking window")
	ErrNoToken                 = errors.New("no token selected")
	ErrInvalidShareCoefficient = errors.New("invalid share coefficient")
	ErrInvalidLockingPeriod    = errors.New("invalid locking period")
)

// AddressValidator checks the syntax of an account address.
type AddressValidator interface {
	IsAddress(s string) bool
}

// Validate returns the first failing check, or nil. The order is fixed: fee,
// penalty, recipient, locking window, then token, share coefficient and
// locking period.
func Validate(d Draft, v AddressValidator, now time.Time) error {
	if !inPercentRange(d.FeePercent) {
		return ErrInvalidFee
	}
	if !inPercentRange(d.PenaltyPercent) {
		return ErrInvalidPenalty
	}
	if !v.IsAddress(d.FeeRecipient) {
		return ErrInvalidFeeRecipient
	}
	// the window has to open strictly after now
	if d.LockingWindowStart().Cmp(big.NewInt(now.Unix())) <= 0 {
		return ErrInvalidLockingWindow
	}
	if !d.HasToken() {
		return ErrNoToken
	}
	if d.ShareCoefficientN < 1 {
		return ErrInvalidShareCoefficient
	}
	if d.LockingPeriodDays < 0 {
		return ErrInvalidLockingPeriod
	}
	return nil
}

// inPercentRange is false for NaN as well.
func inPercentRange(p float64) bool {
	return p >= 0 && p <= 100
}

// IsValidationError reports whether err is one of the draft validation errors.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidFee,
		ErrInvalidPenalty,
		ErrInvalidFeeRecipient,
		ErrInvalidLockingWindow,
		ErrNoToken,
		ErrInvalidShareCoefficient,
		ErrInvalidLockingPeriod,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
