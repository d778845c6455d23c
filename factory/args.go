package factory

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the bonus token sentinel meaning "no bonus token".
var ZeroAddress = common.Address{}

// CreateArgs are the normalized arguments of the factory create call.
type CreateArgs struct {
	Token                common.Address
	PenaltyBps           *big.Int
	LockingPeriodSeconds *big.Int
	Expiry               *big.Int
	FeeBps               *big.Int
	ShareCoefficient     *big.Int
	FeeRecipient         common.Address
	BonusToken           common.Address
}

// HasBonusToken reports whether a bonus token was chosen.
func (a CreateArgs) HasBonusToken() bool {
	return a.BonusToken != ZeroAddress
}

// Strings renders the arguments in call order as the decimal and hex strings
// the contract receives.
func (a CreateArgs) Strings() []string {
	return []string{
		a.Token.Hex(),
		a.PenaltyBps.String(),
		a.LockingPeriodSeconds.String(),
		a.Expiry.String(),
		a.FeeBps.String(),
		a.ShareCoefficient.String(),
		a.FeeRecipient.Hex(),
		a.BonusToken.Hex(),
	}
}

// params returns the arguments in ABI order.
func (a CreateArgs) params() []any {
	return []any{
		a.Token,
		a.PenaltyBps,
		a.LockingPeriodSeconds,
		a.Expiry,
		a.FeeBps,
		a.ShareCoefficient,
		a.FeeRecipient,
		a.BonusToken,
	}
}
