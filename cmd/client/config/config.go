package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/defistate/barrel-client-go/protocols/token"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// DefaultPrivateKeyEnv is read when private_key_env is not set.
const DefaultPrivateKeyEnv = "BARREL_PRIVATE_KEY"

type ClientConfig struct {
	// ChainID, when set, must match the node's chain id.
	ChainID        uint64 `yaml:"chain_id"`
	RPCURL         string `yaml:"rpc_url"`
	FactoryAddress string `yaml:"factory_address"`
	PrivateKeyEnv  string `yaml:"private_key_env"`
	MetricsAddr    string `yaml:"metrics_addr"`
	// Networks overrides the built-in token lists, keyed by network id.
	Networks map[uint64]NetworkConfig `yaml:"networks"`
}

type NetworkConfig struct {
	Tokens []TokenConfig `yaml:"tokens"`
}

type TokenConfig struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

// LoadConfig reads a configuration file from the given path and unmarshals it
// into a ClientConfig struct.
func LoadConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse unmarshals and validates YAML configuration.
func Parse(data []byte) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and address syntax.
func (c *ClientConfig) Validate() error {
	if c.RPCURL == "" {
		return errors.New("config: rpc_url is required")
	}
	if c.FactoryAddress == "" {
		return errors.New("config: factory_address is required")
	}
	if !common.IsHexAddress(c.FactoryAddress) {
		return fmt.Errorf("config: factory_address %q is not an address", c.FactoryAddress)
	}
	for id, n := range c.Networks {
		for i, t := range n.Tokens {
			if !common.IsHexAddress(t.Address) {
				return fmt.Errorf("config: networks.%d.tokens[%d].address %q is not an address", id, i, t.Address)
			}
			if t.Symbol == "" {
				return fmt.Errorf("config: networks.%d.tokens[%d].symbol is required", id, i)
			}
		}
	}
	return nil
}

// Factory returns the factory contract address.
func (c *ClientConfig) Factory() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// TokenOverrides converts the configured networks into registry overrides.
func (c *ClientConfig) TokenOverrides() map[uint64][]token.TokenView {
	out := make(map[uint64][]token.TokenView, len(c.Networks))
	for id, n := range c.Networks {
		tokens := make([]token.TokenView, 0, len(n.Tokens))
		for _, t := range n.Tokens {
			tokens = append(tokens, token.TokenView{
				Address:  common.HexToAddress(t.Address),
				Symbol:   t.Symbol,
				Decimals: t.Decimals,
			})
		}
		out[id] = tokens
	}
	return out
}

// PrivateKey reads the signing key from the configured environment variable.
// An empty result means the client runs read-only.
func (c *ClientConfig) PrivateKey() string {
	env := c.PrivateKeyEnv
	if env == "" {
		env = DefaultPrivateKeyEnv
	}
	return strings.TrimSpace(os.Getenv(env))
}
