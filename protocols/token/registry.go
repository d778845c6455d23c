package token

// Registry maps a network id to the ordered list of supported tokens. It is
// read-only once built.
type Registry struct {
	networks map[uint64][]TokenView
}

// NewRegistry creates a registry seeded with DefaultTokens and then the given
// overrides. An override replaces the whole list for its network.
func NewRegistry(overrides map[uint64][]TokenView) *Registry {
	networks := make(map[uint64][]TokenView, len(DefaultTokens)+len(overrides))
	for id, tokens := range DefaultTokens {
		networks[id] = tokens
	}
	for id, tokens := range overrides {
		networks[id] = tokens
	}
	return &Registry{networks: networks}
}

// Tokens returns a defensive copy of the token list for networkID. Unknown
// networks yield an empty list.
func (r *Registry) Tokens(networkID uint64) []TokenView {
	tokens := r.networks[networkID]
	out := make([]TokenView, len(tokens))
	copy(out, tokens)
	return out
}

// Index returns an indexed view of the network's tokens.
func (r *Registry) Index(networkID uint64) *IndexableTokenSystem {
	return NewIndexableTokenSystem(r.Tokens(networkID))
}
