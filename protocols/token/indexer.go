package token

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IndexableTokenSystem provides fast, indexed access to a network's token list.
type IndexableTokenSystem struct {
	byAddress map[common.Address]TokenView
	bySymbol  map[string]TokenView
	all       []TokenView
}

// NewIndexableTokenSystem creates a new indexed token system from a raw slice.
// Symbols are matched case-insensitively; the first token wins on a clash.
func NewIndexableTokenSystem(tokens []TokenView) *IndexableTokenSystem {
	byAddress := make(map[common.Address]TokenView, len(tokens))
	bySymbol := make(map[string]TokenView, len(tokens))

	for _, t := range tokens {
		byAddress[t.Address] = t
		key := strings.ToUpper(t.Symbol)
		if _, exists := bySymbol[key]; !exists {
			bySymbol[key] = t
		}
	}

	return &IndexableTokenSystem{
		byAddress: byAddress,
		bySymbol:  bySymbol,
		all:       tokens,
	}
}

// GetByAddress retrieves a token by its contract address.
func (its *IndexableTokenSystem) GetByAddress(address common.Address) (TokenView, bool) {
	t, ok := its.byAddress[address]
	return t, ok
}

// GetBySymbol retrieves a token by its ticker symbol.
func (its *IndexableTokenSystem) GetBySymbol(symbol string) (TokenView, bool) {
	t, ok := its.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

// Resolve accepts either a hex address or a symbol.
func (its *IndexableTokenSystem) Resolve(ref string) (TokenView, bool) {
	if common.IsHexAddress(ref) {
		return its.GetByAddress(common.HexToAddress(ref))
	}
	return its.GetBySymbol(ref)
}

// All returns a defensive copy of the slice of all tokens in the system.
func (its *IndexableTokenSystem) All() []TokenView {
	allCopy := make([]TokenView, len(its.all))
	copy(allCopy, its.all)
	return allCopy
}
