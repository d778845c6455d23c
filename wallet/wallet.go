package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Constants for dial retry logic
const (
	initialDialDelay   = 1 * time.Second
	maxDialDelay       = 30 * time.Second
	defaultDialAttempt = 5
)

var (
	// ErrReadOnly is returned when signing is requested from a wallet without a key.
	ErrReadOnly = errors.New("wallet: no signing key loaded")
	// ErrChainMismatch is returned when the node serves a different chain than configured.
	ErrChainMismatch = errors.New("wallet: chain id mismatch")
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client is what the form controller needs from a connected wallet.
type Client interface {
	NetworkID() uint64
	User() string
	IsAddress(s string) bool
}

// Backend is the node connection a Wallet drives. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// DialFunc opens a Backend for url.
type DialFunc func(ctx context.Context, url string) (Backend, error)

// Config holds the configuration for Connect.
type Config struct {
	URL string
	// PrivateKey is a hex encoded secp256k1 key. Empty means read-only.
	PrivateKey string
	// ChainID, when non-zero, must match the chain id reported by the node.
	ChainID      uint64
	Logger       Logger
	MaxAttempts  int
	InitialDelay time.Duration
	Dial         DialFunc
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.URL == "" {
		return errors.New("config: URL is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// Wallet is a node connection plus an optional signing key.
type Wallet struct {
	backend Backend
	chainID *big.Int
	key     *ecdsa.PrivateKey
	user    common.Address
	logger  Logger
}

// Connect dials the node, retrying with exponential backoff, and loads the key.
func Connect(ctx context.Context, cfg Config) (*Wallet, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var key *ecdsa.PrivateKey
	if cfg.PrivateKey != "" {
		k, err := ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		key = k
	}

	dial := cfg.Dial
	if dial == nil {
		dial = dialEthclient
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultDialAttempt
	}
	delay := cfg.InitialDelay
	if delay <= 0 {
		delay = initialDialDelay
	}

	var (
		backend Backend
		err     error
	)
	for attempt := 1; ; attempt++ {
		cfg.Logger.Info("Attempting to connect to RPC node", "url", cfg.URL, "attempt", attempt)
		backend, err = dial(ctx, cfg.URL)
		if err == nil {
			break
		}
		if attempt >= attempts {
			return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", cfg.URL, attempt, err)
		}
		cfg.Logger.Error("Failed to connect to RPC node, will retry...", "error", err, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		delay = min(delay*2, maxDialDelay)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	if cfg.ChainID != 0 && chainID.Uint64() != cfg.ChainID {
		backend.Close()
		return nil, fmt.Errorf("%w: node reports %s, expected %d", ErrChainMismatch, chainID, cfg.ChainID)
	}

	w := New(backend, chainID, key, cfg.Logger)
	cfg.Logger.Info("Connected to RPC node.", "chain_id", chainID, "user", w.User())
	return w, nil
}

// New wraps an already connected backend.
func New(backend Backend, chainID *big.Int, key *ecdsa.PrivateKey, logger Logger) *Wallet {
	w := &Wallet{
		backend: backend,
		chainID: new(big.Int).Set(chainID),
		key:     key,
		logger:  logger,
	}
	if key != nil {
		w.user = crypto.PubkeyToAddress(key.PublicKey)
	}
	return w
}

func dialEthclient(ctx context.Context, url string) (Backend, error) {
	return ethclient.DialContext(ctx, url)
}

// ParsePrivateKey decodes a hex key with or without the 0x prefix.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// NetworkID returns the chain id reported by the node.
func (w *Wallet) NetworkID() uint64 {
	return w.chainID.Uint64()
}

// User returns the checksummed signer address, or "" for a read-only wallet.
func (w *Wallet) User() string {
	if w.key == nil {
		return ""
	}
	return w.user.Hex()
}

// IsAddress validates an address string.
func (w *Wallet) IsAddress(s string) bool {
	return IsAddress(s)
}

// Backend exposes the node connection, e.g. for binding contracts.
func (w *Wallet) Backend() Backend {
	return w.backend
}

// TransactOpts returns signing options bound to ctx.
func (w *Wallet) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if w.key == nil {
		return nil, ErrReadOnly
	}

	opts, err := bind.NewKeyedTransactorWithChainID(w.key, w.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// WaitMined blocks until tx is mined or ctx is done.
func (w *Wallet) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	w.logger.Info("Waiting for transaction to be mined", "tx", tx.Hash().Hex())
	receipt, err := bind.WaitMined(ctx, w.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		w.logger.Warn("Transaction reverted", "tx", tx.Hash().Hex(), "block", receipt.BlockNumber)
	}
	return receipt, nil
}

// Close releases the node connection.
func (w *Wallet) Close() {
	w.backend.Close()
}
