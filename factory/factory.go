package factory

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/defistate/barrel-client-go/pkg/chains"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Signer hands out transaction options for the current account.
type Signer interface {
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// Transactor sends a contract method call. *bind.BoundContract satisfies it.
type Transactor interface {
	Transact(opts *bind.TransactOpts, method string, params ...any) (*types.Transaction, error)
}

// Config holds the configuration for the factory client.
type Config struct {
	Address   common.Address
	NetworkID uint64
	// Backend is used to bind the contract when Transactor is nil.
	Backend    bind.ContractBackend
	Transactor Transactor
	Signer     Signer
	Logger     Logger
	Registry   prometheus.Registerer
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.Address == (common.Address{}) {
		return errors.New("config: Address is required")
	}
	if c.Backend == nil && c.Transactor == nil {
		return errors.New("config: Backend or Transactor is required")
	}
	if c.Signer == nil {
		return errors.New("config: Signer is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	if c.Registry == nil {
		return errors.New("config: Registry is required")
	}
	return nil
}

// Factory is the client of the on-chain barrel factory.
type Factory struct {
	address    common.Address
	network    string
	abi        abi.ABI
	transactor Transactor
	signer     Signer
	logger     Logger
	metrics    *Metrics
}

// New creates a factory client.
func New(cfg Config) (*Factory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(BarrelFactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}

	transactor := cfg.Transactor
	if transactor == nil {
		transactor = bind.NewBoundContract(cfg.Address, parsed, cfg.Backend, cfg.Backend, cfg.Backend)
	}

	return &Factory{
		address:    cfg.Address,
		network:    chains.Name(cfg.NetworkID),
		abi:        parsed,
		transactor: transactor,
		signer:     cfg.Signer,
		logger:     cfg.Logger,
		metrics:    NewMetrics(cfg.Registry),
	}, nil
}

// Address returns the factory contract address.
func (f *Factory) Address() common.Address {
	return f.address
}

// Pack returns the calldata of a create call without sending it.
func (f *Factory) Pack(args CreateArgs) ([]byte, error) {
	if err := args.check(); err != nil {
		return nil, err
	}
	return f.abi.Pack(CreateMethod, args.params()...)
}

// Create signs and sends the create transaction. The returned error wraps
// whatever the signer or node reported.
func (f *Factory) Create(ctx context.Context, args CreateArgs) (*types.Transaction, error) {
	if err := args.check(); err != nil {
		return nil, err
	}

	start := time.Now()
	tx, err := f.create(ctx, args)
	f.metrics.createDuration.WithLabelValues(f.network).Observe(time.Since(start).Seconds())

	if err != nil {
		f.metrics.createsTotal.WithLabelValues(f.network, "error").Inc()
		f.logger.Error("Create transaction failed", "factory", f.address.Hex(), "error", err)
		return nil, err
	}

	f.metrics.createsTotal.WithLabelValues(f.network, "success").Inc()
	f.logger.Info("Create transaction sent",
		"factory", f.address.Hex(),
		"tx", tx.Hash().Hex(),
		"token", args.Token.Hex(),
		"bonus_token", args.BonusToken.Hex(),
	)
	return tx, nil
}

func (f *Factory) create(ctx context.Context, args CreateArgs) (*types.Transaction, error) {
	opts, err := f.signer.TransactOpts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction options: %w", err)
	}

	tx, err := f.transactor.Transact(opts, CreateMethod, args.params()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create barrel: %w", err)
	}
	return tx, nil
}

// check rejects argument sets the ABI encoder would choke on.
func (a CreateArgs) check() error {
	for name, v := range map[string]*big.Int{
		"penalty":           a.PenaltyBps,
		"locking period":    a.LockingPeriodSeconds,
		"expiry":            a.Expiry,
		"fee":               a.FeeBps,
		"share coefficient": a.ShareCoefficient,
	} {
		if v == nil {
			return fmt.Errorf("create args: %s is missing", name)
		}
		if v.Sign() < 0 {
			return fmt.Errorf("create args: %s is negative", name)
		}
	}
	return nil
}
