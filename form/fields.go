package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/defistate/barrel-client-go/protocols/token"
	"github.com/ethereum/go-ethereum/common"
)

// Field names an editable draft attribute.
type Field string

const (
	FieldToken             Field = "token"
	FieldBonusToken        Field = "bonus-token"
	FieldExpiry            Field = "expiry"
	FieldLockingPeriodDays Field = "locking-days"
	FieldFeeRecipient      Field = "fee-recipient"
	FieldPenaltyPercent    Field = "penalty"
	FieldFeePercent        Field = "fee"
	FieldShareCoefficient  Field = "share-coefficient"
)

// Fields lists the editable fields in dialog order.
var Fields = []Field{
	FieldToken,
	FieldExpiry,
	FieldLockingPeriodDays,
	FieldFeeRecipient,
	FieldPenaltyPercent,
	FieldFeePercent,
	FieldShareCoefficient,
	FieldBonusToken,
}

// expiryHourUTC is the time of day a picked expiry date resolves to.
const expiryHourUTC = 8

// ParseExpiryDate turns a YYYY-MM-DD date into unix seconds at 08:00 UTC.
func ParseExpiryDate(s string) (int64, error) {
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid expiry date %q: %w", s, err)
	}
	return day.Add(expiryHourUTC * time.Hour).Unix(), nil
}

// FormatExpiryDate renders unix seconds as the UTC date shown in the dialog.
func FormatExpiryDate(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.DateOnly)
}

// parseAction maps a textual value for field to an Action.
//
// Token fields accept a list position, a symbol or an address. The bonus token
// field also accepts "none" or "-1".
func parseAction(field Field, value string, index *token.IndexableTokenSystem, d Draft) (Action, error) {
	value = strings.TrimSpace(value)
	tokens := index.All()

	switch field {
	case FieldToken:
		if i, err := strconv.Atoi(value); err == nil {
			if i < 0 || i >= len(tokens) {
				return nil, fmt.Errorf("token index %d out of range", i)
			}
			return SelectToken{Index: i}, nil
		}
		t, ok := index.Resolve(value)
		if !ok {
			return nil, fmt.Errorf("unknown token %q", value)
		}
		return SelectTokenByAddress{Address: t.Address}, nil

	case FieldBonusToken:
		if value == "" || strings.EqualFold(value, "none") {
			return SelectBonusToken{Index: -1}, nil
		}
		candidates := BonusCandidates(tokens, d.TokenIndex(tokens))
		if i, err := strconv.Atoi(value); err == nil {
			if i < -1 || i >= len(candidates) {
				return nil, fmt.Errorf("bonus token index %d out of range", i)
			}
			return SelectBonusToken{Index: i}, nil
		}
		t, ok := token.NewIndexableTokenSystem(candidates).Resolve(value)
		if !ok {
			return nil, fmt.Errorf("%q is not a bonus token candidate", value)
		}
		return SelectBonusToken{Index: token.IndexOf(candidates, t.Address)}, nil

	case FieldExpiry:
		if unix, err := strconv.ParseInt(value, 10, 64); err == nil {
			return SetExpiry{Unix: unix}, nil
		}
		unix, err := ParseExpiryDate(value)
		if err != nil {
			return nil, err
		}
		return SetExpiry{Unix: unix}, nil

	case FieldLockingPeriodDays:
		days, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid locking days %q: %w", value, err)
		}
		return SetLockingPeriodDays{Days: days}, nil

	case FieldFeeRecipient:
		return SetFeeRecipient{Address: value}, nil

	case FieldPenaltyPercent:
		p, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid penalty %q: %w", value, err)
		}
		return SetPenaltyPercent{Percent: p}, nil

	case FieldFeePercent:
		p, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid fee %q: %w", value, err)
		}
		return SetFeePercent{Percent: p}, nil

	case FieldShareCoefficient:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid share coefficient %q: %w", value, err)
		}
		return SetShareCoefficient{N: n}, nil
	}

	return nil, fmt.Errorf("unknown field %q", field)
}

// addressOrZero is used for display of optional addresses.
func addressOrZero(a common.Address) string {
	if a == (common.Address{}) {
		return "none"
	}
	return a.Hex()
}
