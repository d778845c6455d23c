package form

import (
	"math/big"

	"github.com/defistate/barrel-client-go/factory"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var percentToBps = decimal.NewFromInt(10)

// ToBasisPoints converts a percentage to the factory's integer unit,
// round(percent * 10), rounding halves away from zero.
func ToBasisPoints(percent float64) *big.Int {
	return decimal.NewFromFloat(percent).Mul(percentToBps).Round(0).BigInt()
}

// DeriveArgs converts a validated draft into factory call arguments.
func DeriveArgs(d Draft) factory.CreateArgs {
	bonus := factory.ZeroAddress
	if d.HasBonusToken() {
		bonus = d.BonusToken
	}

	return factory.CreateArgs{
		Token:                d.Token,
		PenaltyBps:           ToBasisPoints(d.PenaltyPercent),
		LockingPeriodSeconds: new(big.Int).Mul(big.NewInt(d.LockingPeriodDays), big.NewInt(secondsPerDay)),
		Expiry:               big.NewInt(d.ExpiryUnix),
		FeeBps:               ToBasisPoints(d.FeePercent),
		ShareCoefficient:     big.NewInt(d.ShareCoefficientN),
		FeeRecipient:         common.HexToAddress(d.FeeRecipient),
		BonusToken:           bonus,
	}
}
