package token

import (
	"github.com/defistate/barrel-client-go/pkg/chains"
	"github.com/ethereum/go-ethereum/common"
)

// TokenView is a token a barrel can be brewed with.
type TokenView struct {
	Address  common.Address `json:"address" yaml:"address"`
	Symbol   string         `json:"symbol" yaml:"symbol"`
	Decimals uint8          `json:"decimals" yaml:"decimals"`
}

// DefaultTokens is the built-in registry used when the configuration does not
// list tokens for a network.
var DefaultTokens = map[uint64][]TokenView{
	chains.Mainnet: {
		{Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Symbol: "WETH", Decimals: 18},
		{Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Symbol: "USDC", Decimals: 6},
		{Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Symbol: "DAI", Decimals: 18},
	},
}

// BonusCandidates returns tokens with the entry at selected removed, keeping
// the input order. The input slice is never modified. An out-of-range
// index yields a plain copy.
func BonusCandidates(tokens []TokenView, selected int) []TokenView {
	if selected < 0 || selected >= len(tokens) {
		out := make([]TokenView, len(tokens))
		copy(out, tokens)
		return out
	}

	out := make([]TokenView, 0, len(tokens)-1)
	out = append(out, tokens[:selected]...)
	out = append(out, tokens[selected+1:]...)
	return out
}

// IndexOf returns the position of addr in tokens, or -1.
func IndexOf(tokens []TokenView, addr common.Address) int {
	for i, t := range tokens {
		if t.Address == addr {
			return i
		}
	}
	return -1
}
