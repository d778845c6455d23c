// Package app wires the wallet, token registry and factory client shared by
// the console and barrelctl.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/defistate/barrel-client-go/cmd/client/config"
	"github.com/defistate/barrel-client-go/factory"
	"github.com/defistate/barrel-client-go/form"
	"github.com/defistate/barrel-client-go/protocols/token"
	"github.com/defistate/barrel-client-go/wallet"
	"github.com/prometheus/client_golang/prometheus"
)

// App is a connected client.
type App struct {
	Wallet  *wallet.Wallet
	Tokens  *token.Registry
	Factory *factory.Factory
	logger  *slog.Logger
}

// Options tweak how New connects. The zero value is fine for production.
type Options struct {
	Dial wallet.DialFunc
}

// New connects the wallet and binds the factory contract.
func New(ctx context.Context, cfg *config.ClientConfig, logger *slog.Logger, reg prometheus.Registerer, opts Options) (*App, error) {
	w, err := wallet.Connect(ctx, wallet.Config{
		URL:        cfg.RPCURL,
		PrivateKey: cfg.PrivateKey(),
		ChainID:    cfg.ChainID,
		Logger:     logger.With("component", "wallet"),
		Dial:       opts.Dial,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect wallet: %w", err)
	}

	f, err := factory.New(factory.Config{
		Address:   cfg.Factory(),
		NetworkID: w.NetworkID(),
		Backend:   w.Backend(),
		Signer:    w,
		Logger:    logger.With("component", "factory"),
		Registry:  reg,
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to bind factory: %w", err)
	}

	return &App{
		Wallet:  w,
		Tokens:  token.NewRegistry(cfg.TokenOverrides()),
		Factory: f,
		logger:  logger,
	}, nil
}

// NewController opens a fresh creation dialog.
func (a *App) NewController() (*form.Controller, error) {
	return form.NewController(form.Config{
		Wallet:  a.Wallet,
		Tokens:  a.Tokens,
		Factory: a.Factory,
		Logger:  a.logger.With("component", "form"),
	})
}

// Close releases the node connection.
func (a *App) Close() {
	a.Wallet.Close()
}
