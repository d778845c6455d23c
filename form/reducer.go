package form

import (
	"github.com/defistate/barrel-client-go/factory"
	"github.com/defistate/barrel-client-go/protocols/token"
	"github.com/ethereum/go-ethereum/common"
)

// Action is a single user or wallet event applied to a Draft.
type Action interface {
	apply(d Draft, tokens []token.TokenView) Draft
}

// Reduce applies a to d against the current network's token list and returns
// the new draft. It has no side effects.
func Reduce(d Draft, tokens []token.TokenView, a Action) Draft {
	if a == nil {
		return d
	}
	return a.apply(d, tokens)
}

// SelectToken selects the token at Index in the network list.
type SelectToken struct{ Index int }

func (a SelectToken) apply(d Draft, tokens []token.TokenView) Draft {
	if a.Index < 0 || a.Index >= len(tokens) {
		return d
	}
	return selectToken(d, tokens[a.Index].Address)
}

// SelectTokenByAddress selects a token by its contract address.
type SelectTokenByAddress struct{ Address common.Address }

func (a SelectTokenByAddress) apply(d Draft, tokens []token.TokenView) Draft {
	if token.IndexOf(tokens, a.Address) < 0 {
		return d
	}
	return selectToken(d, a.Address)
}

func selectToken(d Draft, addr common.Address) Draft {
	d.Token = addr
	if d.BonusToken == addr {
		d.BonusToken = factory.ZeroAddress
	}
	return d
}

// SelectBonusToken selects the bonus token at Index among the bonus
// candidates. -1 clears the selection.
type SelectBonusToken struct{ Index int }

func (a SelectBonusToken) apply(d Draft, tokens []token.TokenView) Draft {
	if a.Index == -1 {
		d.BonusToken = factory.ZeroAddress
		return d
	}
	candidates := BonusCandidates(tokens, d.TokenIndex(tokens))
	if a.Index < 0 || a.Index >= len(candidates) {
		return d
	}
	d.BonusToken = candidates[a.Index].Address
	return d
}

// SetExpiry sets the expiry as unix seconds.
type SetExpiry struct{ Unix int64 }

func (a SetExpiry) apply(d Draft, _ []token.TokenView) Draft {
	d.ExpiryUnix = a.Unix
	return d
}

// SetLockingPeriodDays sets the locking window length.
type SetLockingPeriodDays struct{ Days int64 }

func (a SetLockingPeriodDays) apply(d Draft, _ []token.TokenView) Draft {
	d.LockingPeriodDays = a.Days
	return d
}

// SetFeeRecipient stores the recipient text as typed; it is validated later.
type SetFeeRecipient struct{ Address string }

func (a SetFeeRecipient) apply(d Draft, _ []token.TokenView) Draft {
	d.FeeRecipient = a.Address
	return d
}

// SetPenaltyPercent sets the early-exit penalty.
type SetPenaltyPercent struct{ Percent float64 }

func (a SetPenaltyPercent) apply(d Draft, _ []token.TokenView) Draft {
	d.PenaltyPercent = a.Percent
	return d
}

// SetFeePercent sets the share of the penalty kept as fee.
type SetFeePercent struct{ Percent float64 }

func (a SetFeePercent) apply(d Draft, _ []token.TokenView) Draft {
	d.FeePercent = a.Percent
	return d
}

// SetShareCoefficient sets N.
type SetShareCoefficient struct{ N int64 }

func (a SetShareCoefficient) apply(d Draft, _ []token.TokenView) Draft {
	d.ShareCoefficientN = a.N
	return d
}

// WalletChanged reports a new connected account. A non-empty address always
// overwrites the fee recipient, including one the user edited by hand.
type WalletChanged struct{ User string }

func (a WalletChanged) apply(d Draft, _ []token.TokenView) Draft {
	if a.User != "" {
		d.FeeRecipient = a.User
	}
	return d
}

// NetworkChanged reports a switch of network; tokens is the new network's list.
// Selection falls back to the first token and the bonus is cleared.
type NetworkChanged struct{}

func (a NetworkChanged) apply(d Draft, tokens []token.TokenView) Draft {
	d.Token = common.Address{}
	if len(tokens) > 0 {
		d.Token = tokens[0].Address
	}
	d.BonusToken = factory.ZeroAddress
	return d
}
