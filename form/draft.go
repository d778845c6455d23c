// Package form holds the barrel creation draft and the controller that turns
// it into a factory create call.
package form

import (
	"math/big"
	"time"

	"github.com/defistate/barrel-client-go/factory"
	"github.com/defistate/barrel-client-go/protocols/token"
	"github.com/ethereum/go-ethereum/common"
)

// Draft defaults.
const (
	DefaultLockingPeriodDays = 30
	DefaultPenaltyPercent    = 20
	DefaultFeePercent        = 20
	DefaultShareCoefficient  = 1

	secondsPerDay = 86400
)

// Draft is the transient set of parameters for a new barrel. It lives as long
// as the creation dialog and is never persisted.
//
// Token and bonus token are kept as addresses, not list positions, so a
// changing token list cannot silently shift the selection.
type Draft struct {
	Token             common.Address
	BonusToken        common.Address // zero address means none
	ExpiryUnix        int64
	LockingPeriodDays int64
	FeeRecipient      string
	PenaltyPercent    float64
	FeePercent        float64
	ShareCoefficientN int64
}

// NewDraft returns a draft with the dialog defaults: first token, no bonus,
// expiry one year from now, fee recipient set to the connected user.
func NewDraft(user string, tokens []token.TokenView, now time.Time) Draft {
	d := Draft{
		BonusToken:        factory.ZeroAddress,
		ExpiryUnix:        now.AddDate(1, 0, 0).Unix(),
		LockingPeriodDays: DefaultLockingPeriodDays,
		FeeRecipient:      user,
		PenaltyPercent:    DefaultPenaltyPercent,
		FeePercent:        DefaultFeePercent,
		ShareCoefficientN: DefaultShareCoefficient,
	}
	if len(tokens) > 0 {
		d.Token = tokens[0].Address
	}
	return d
}

// HasToken reports whether a token is selected.
func (d Draft) HasToken() bool {
	return d.Token != (common.Address{})
}

// HasBonusToken reports whether a bonus token is selected.
func (d Draft) HasBonusToken() bool {
	return d.BonusToken != factory.ZeroAddress
}

// TokenIndex returns the position of the selected token in tokens, or -1.
func (d Draft) TokenIndex(tokens []token.TokenView) int {
	if !d.HasToken() {
		return -1
	}
	return token.IndexOf(tokens, d.Token)
}

// BonusIndex returns the position of the bonus token in candidates, or -1
// for none.
func (d Draft) BonusIndex(candidates []token.TokenView) int {
	if !d.HasBonusToken() {
		return -1
	}
	return token.IndexOf(candidates, d.BonusToken)
}

// LockingWindowStart is the unix time after which deposits are refused. It is
// computed in big.Int so large locking periods cannot wrap around.
func (d Draft) LockingWindowStart() *big.Int {
	start := new(big.Int).Mul(big.NewInt(d.LockingPeriodDays), big.NewInt(secondsPerDay))
	return start.Sub(big.NewInt(d.ExpiryUnix), start)
}

// BonusCandidates returns the tokens eligible as bonus token, i.e. the network
// list without the selected token.
func BonusCandidates(tokens []token.TokenView, selectedIndex int) []token.TokenView {
	return token.BonusCandidates(tokens, selectedIndex)
}
