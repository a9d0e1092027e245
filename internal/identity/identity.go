// Package identity resolves the signed-in user session from a configured
// identity provider. The gateway and bootstrap layers consume the session
// but never talk to the provider directly.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"rezzy/internal/config"
	"rezzy/internal/errors"
	"rezzy/internal/types"
)

// Provider yields the current user session. Implementations must be safe
// for concurrent use.
type Provider interface {
	// Session returns the current session. Ready is false until the
	// provider has finished resolving the user.
	Session(ctx context.Context) (types.Session, error)
	// Name identifies the provider for logging.
	Name() string
}

// NewProvider creates the provider named in configuration.
func NewProvider(cfg config.IdentityConfig, logger *errors.Logger) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "static", "":
		return newStaticProvider(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown identity provider: %s", cfg.Provider), nil)
	}
}

// staticProvider serves a fixed session from configuration. It stands in
// for a hosted identity service in single-user and test deployments.
type staticProvider struct {
	mu      sync.RWMutex
	session types.Session
	logger  *errors.Logger
}

func newStaticProvider(cfg config.IdentityConfig, logger *errors.Logger) (*staticProvider, error) {
	if cfg.UserID == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"identity.userId is required for the static provider", nil)
	}
	if cfg.Email == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"identity.email is required for the static provider", nil)
	}

	p := &staticProvider{
		session: types.Session{
			UserID:    cfg.UserID,
			Email:     cfg.Email,
			FirstName: cfg.FirstName,
			LastName:  cfg.LastName,
			Ready:     true,
		},
		logger: logger,
	}

	if logger != nil {
		logger.Debug("Static identity provider initialized", "userId", cfg.UserID)
	}
	return p, nil
}

func (p *staticProvider) Session(ctx context.Context) (types.Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session, nil
}

func (p *staticProvider) Name() string { return "static" }
