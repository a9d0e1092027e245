package cli

import (
	"context"
	"fmt"
	"time"

	"rezzy/internal/bootstrap"
	"rezzy/internal/config"
	"rezzy/internal/errors"
	"rezzy/internal/gateway"
	"rezzy/internal/identity"
	"rezzy/internal/observability"
	"rezzy/internal/plangate"
	"rezzy/internal/statestore"
	"rezzy/internal/types"
	"rezzy/internal/wizard"

	"github.com/spf13/cobra"
)

// app wires the client components one command needs: gateway, state store,
// identity, bootstrap machine, plan gate, and observability.
type app struct {
	cfg      *config.Config
	logger   *errors.Logger
	api      *gateway.Client
	store    *statestore.Store
	watcher  *statestore.Watcher
	provider identity.Provider
	machine  *bootstrap.Machine
	gate     *plangate.Gate
	obs      *observability.Manager
	session  types.Session
}

// newApp builds the component graph for a command invocation.
func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()

	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return nil, err
	}
	logger, err := getLoggerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Vault.Enabled {
		if err := cfg.ApplyVaultSecrets(logger); err != nil {
			return nil, fmt.Errorf("failed to load secrets from vault: %w", err)
		}
	}

	obs, err := observability.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	api, err := gateway.New(&cfg.API, obs.GetMetrics(), logger)
	if err != nil {
		return nil, err
	}

	store, err := statestore.New(cfg.StateFilePath(), logger)
	if err != nil {
		return nil, err
	}

	provider, err := identity.NewProvider(cfg.Identity, logger)
	if err != nil {
		return nil, err
	}

	session, err := provider.Session(ctx)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		api:      api,
		store:    store,
		provider: provider,
		gate:     plangate.New(cfg.Quota.FreeScansPerMonth),
		obs:      obs,
		session:  session,
	}

	a.machine = bootstrap.New(api, store, provider, cfg.Bootstrap, obs.GetMetrics(), logger)

	if cfg.State.Watch {
		a.watcher = statestore.NewWatcher(store, cfg.State.DebounceDelay, nil, logger)
		if err := a.watcher.Start(); err != nil {
			logger.Warn("State watcher failed to start", "error", err.Error())
			a.watcher = nil
		}
	}

	return a, nil
}

// Close releases app resources. Called via defer from every command.
func (a *app) Close() {
	a.machine.WaitForProfileSync()
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn("State watcher shutdown failed", "error", err.Error())
		}
	}
	a.api.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.obs.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("Observability shutdown failed", "error", err.Error())
	}
}

// ensureReady drives the bootstrap machine to a terminal phase, retrying
// failed attempts up to the configured bound. The machine degrades itself
// when attempts run out, so this always lands on ready or degraded.
func (a *app) ensureReady(ctx context.Context) (bootstrap.Snapshot, error) {
	snap, err := a.machine.Run(ctx)
	for err != nil && !snap.Phase.Terminal() {
		a.logger.Warn("Bootstrap attempt failed, retrying",
			"attempt", snap.Attempts,
			"error", err.Error())
		snap, err = a.machine.Retry(ctx)
	}

	if snap.Degraded {
		fmt.Println("Warning: backend unreachable, running in degraded mode (free plan, cached data).")
		if snap.LastErr != nil {
			a.logger.Warn("Degraded mode cause", "error", snap.LastErr.Error())
		}
	}
	return snap, nil
}

// planFunc exposes the bootstrapped plan and usage to wizard flows.
func (a *app) planFunc() wizard.PlanFunc {
	return func() (types.Plan, types.UsageSnapshot) {
		snap := a.machine.Snapshot()
		plan := types.PlanFree
		usage := types.UsageSnapshot{}
		if snap.Account != nil {
			plan = snap.Account.Plan
		}
		if snap.Usage != nil {
			usage = *snap.Usage
		}
		return plan, usage
	}
}

// requireOnboarded blocks feature commands until onboarding has run.
func (a *app) requireOnboarded(snap bootstrap.Snapshot) error {
	if snap.Onboarding.Required {
		return fmt.Errorf("onboarding has not been completed; run 'rezzy onboard' first")
	}
	return nil
}
