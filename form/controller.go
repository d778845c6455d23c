package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/defistate/barrel-client-go/factory"
	"github.com/defistate/barrel-client-go/protocols/token"
	"github.com/defistate/barrel-client-go/wallet"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

// ErrSubmitInProgress is returned by Submit while an earlier call is pending.
var ErrSubmitInProgress = errors.New("a create submission is already in flight")

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Factory is the create operation of the barrel factory.
type Factory interface {
	Create(ctx context.Context, args factory.CreateArgs) (*types.Transaction, error)
}

// TokenSource returns the ordered token list of a network and an index over it
// for symbol and address lookups.
type TokenSource interface {
	Tokens(networkID uint64) []token.TokenView
	Index(networkID uint64) *token.IndexableTokenSystem
}

// View is the derived state observers receive after each change.
type View struct {
	Draft           Draft
	Tokens          []token.TokenView
	BonusCandidates []token.TokenView
	Err             error
	Submitting      bool
}

// Config holds the configuration for a Controller.
type Config struct {
	Wallet  wallet.Client
	Tokens  TokenSource
	Factory Factory
	Logger  Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.Wallet == nil {
		return errors.New("config: Wallet is required")
	}
	if c.Tokens == nil {
		return errors.New("config: Tokens is required")
	}
	if c.Factory == nil {
		return errors.New("config: Factory is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// Controller owns one creation dialog: its draft, the derived bonus
// candidates and validation error, and the submitting flag.
type Controller struct {
	id      string
	wallet  wallet.Client
	tokens  TokenSource
	factory Factory
	logger  Logger
	now     func() time.Time

	mu         sync.Mutex
	draft      Draft
	submitting bool
	user       string
	networkID  uint64
	observers  []func(View)
}

// NewController opens a dialog with a default draft for the wallet's current
// account and network.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	id := uuid.NewString()
	user := cfg.Wallet.User()
	networkID := cfg.Wallet.NetworkID()

	c := &Controller{
		id:        id,
		wallet:    cfg.Wallet,
		tokens:    cfg.Tokens,
		factory:   cfg.Factory,
		logger:    cfg.Logger,
		now:       now,
		draft:     NewDraft(user, cfg.Tokens.Tokens(networkID), now()),
		user:      user,
		networkID: networkID,
	}
	c.logger.Debug("Opened creation draft", "session", id, "network", networkID, "user", user)
	return c, nil
}

// ID identifies the dialog session in logs.
func (c *Controller) ID() string {
	return c.id
}

// Subscribe registers fn to be called with the new View after every change.
func (c *Controller) Subscribe(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// View returns the current derived state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	tokens := c.tokens.Tokens(c.networkID)
	return View{
		Draft:           c.draft,
		Tokens:          tokens,
		BonusCandidates: BonusCandidates(tokens, c.draft.TokenIndex(tokens)),
		Err:             Validate(c.draft, c.wallet, c.now()),
		Submitting:      c.submitting,
	}
}

// Dispatch applies a to the draft and notifies observers.
func (c *Controller) Dispatch(a Action) {
	c.mu.Lock()
	c.draft = Reduce(c.draft, c.tokens.Tokens(c.networkID), a)
	c.mu.Unlock()
	c.notify()
}

// SetField parses value for field and applies it. On a parse error the draft
// is left untouched.
func (c *Controller) SetField(field Field, value string) error {
	c.mu.Lock()
	index := c.tokens.Index(c.networkID)
	a, err := parseAction(field, value, index, c.draft)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.draft = Reduce(c.draft, index.All(), a)
	c.mu.Unlock()

	c.logger.Debug("Draft field updated", "session", c.id, "field", string(field), "value", value)
	c.notify()
	return nil
}

// SyncWallet picks up account or network changes from the wallet.
func (c *Controller) SyncWallet() {
	user := c.wallet.User()
	networkID := c.wallet.NetworkID()

	c.mu.Lock()
	changed := false
	if networkID != c.networkID {
		c.networkID = networkID
		c.draft = Reduce(c.draft, c.tokens.Tokens(networkID), NetworkChanged{})
		changed = true
	}
	if user != c.user {
		c.user = user
		c.draft = Reduce(c.draft, c.tokens.Tokens(networkID), WalletChanged{User: user})
		changed = true
	}
	c.mu.Unlock()

	if changed {
		c.logger.Info("Wallet changed", "session", c.id, "network", networkID, "user", user)
		c.notify()
	}
}

// Submitting reports whether a create call is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Submit validates the draft and sends the create transaction. The submitting
// flag is cleared whether the factory succeeds or fails; the factory's error
// is returned as is and the draft is left unchanged for a manual retry.
func (c *Controller) Submit(ctx context.Context) (*types.Transaction, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	d := c.draft
	if err := Validate(d, c.wallet, c.now()); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.submitting = true
	c.mu.Unlock()
	c.notify()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
		c.notify()
	}()

	args := DeriveArgs(d)
	c.logger.Info("Submitting create", "session", c.id, "args", args.Strings())

	tx, err := c.factory.Create(ctx, args)
	if err != nil {
		c.logger.Warn("Create submission failed", "session", c.id, "error", err)
		return nil, err
	}
	return tx, nil
}

func (c *Controller) notify() {
	c.mu.Lock()
	v := c.viewLocked()
	observers := make([]func(View), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, fn := range observers {
		fn(v)
	}
}

// Summary renders the draft as label/value pairs in dialog order.
func (v View) Summary() [][2]string {
	d := v.Draft
	tokenLabel := "none"
	if i := d.TokenIndex(v.Tokens); i >= 0 {
		tokenLabel = fmt.Sprintf("%s (%s)", v.Tokens[i].Symbol, v.Tokens[i].Address.Hex())
	}
	bonusLabel := addressOrZero(d.BonusToken)
	if i := d.BonusIndex(v.BonusCandidates); i >= 0 {
		bonusLabel = fmt.Sprintf("%s (%s)", v.BonusCandidates[i].Symbol, v.BonusCandidates[i].Address.Hex())
	}

	return [][2]string{
		{"Token", tokenLabel},
		{"Expiry", fmt.Sprintf("%s (%d)", FormatExpiryDate(d.ExpiryUnix), d.ExpiryUnix)},
		{"Locking Window", fmt.Sprintf("%d days", d.LockingPeriodDays)},
		{"Fee Recipient", d.FeeRecipient},
		{"Penalty", fmt.Sprintf("%g %%", d.PenaltyPercent)},
		{"Fee", fmt.Sprintf("%g %%", d.FeePercent)},
		{"Share Coefficient (N)", fmt.Sprintf("%d", d.ShareCoefficientN)},
		{"Bonus Token", bonusLabel},
	}
}
