package chains

// Network ids the barrel factory is deployed on.
const (
	Mainnet uint64 = 1
	Ropsten uint64 = 3
	Kovan   uint64 = 42
)

var names = map[uint64]string{
	Mainnet: "mainnet",
	Ropsten: "ropsten",
	Kovan:   "kovan",
}

// Name returns a human readable network name, or "unknown".
func Name(networkID uint64) string {
	if n, ok := names[networkID]; ok {
		return n
	}
	return "unknown"
}

// Supported reports whether the factory is deployed on the network.
func Supported(networkID uint64) bool {
	_, ok := names[networkID]
	return ok
}
