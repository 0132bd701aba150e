// Package oracle resolves a user identity to its wallet records and
// returns raw per-wallet balances. Live balance reads fail soft: a
// transient backend failure degrades to zero balances instead of
// blocking rendering.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
	"github.com/stackfolio/stackfolio_service/internal/infrastructure/cache"
	"github.com/stackfolio/stackfolio_service/pkg/logger"
	"github.com/stackfolio/stackfolio_service/pkg/metrics"
)

// BalanceSource fetches live per-address balances
type BalanceSource interface {
	FetchNativeBalance(ctx context.Context, address string) (decimal.Decimal, error)
	FetchSecondaryBalance(ctx context.Context, address string) (decimal.Decimal, error)
}

// Config captures runtime configuration for the oracle adapter
type Config struct {
	// CacheTTL bounds staleness of cached reads; zero disables caching
	CacheTTL time.Duration
	// RequestTimeout bounds each live balance call before the
	// zero-balance fallback applies
	RequestTimeout time.Duration
}

// Service is the balance oracle adapter
type Service struct {
	resolver IdentityResolver
	source   BalanceSource
	cache    cache.Cache
	config   Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// NewService creates a balance oracle adapter
func NewService(
	resolver IdentityResolver,
	source BalanceSource,
	c cache.Cache,
	cfg Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Service{
		resolver: resolver,
		source:   source,
		cache:    c,
		config:   cfg,
		logger:   log,
		metrics:  m,
	}
}

func cacheKey(identity string) string {
	return "oracle/wallets/" + identity
}

// ResolveWallets returns the wallet balances for an identity. Results
// are cached per identity with a short TTL; forceRefresh bypasses the
// cache and repopulates it.
func (s *Service) ResolveWallets(ctx context.Context, identity string, forceRefresh bool) ([]entities.WalletBalance, error) {
	if identity == "" {
		return nil, fmt.Errorf("identity is required")
	}

	if s.cache != nil && !forceRefresh {
		var cached []entities.WalletBalance
		if err := s.cache.Get(ctx, cacheKey(identity), &cached); err == nil {
			s.metrics.OracleCacheHit()
			return cached, nil
		}
		s.metrics.OracleCacheMiss()
	}

	resolution := s.resolver.Resolve(identity)

	var wallets []entities.WalletBalance
	switch resolution.Class {
	case entities.IdentityClassLegacy, entities.IdentityClassPreset:
		// Fixed sets, never fail
		wallets = resolution.Wallets
	default:
		wallets = []entities.WalletBalance{s.fetchDerived(ctx, resolution.Address)}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(identity), wallets, s.config.CacheTTL); err != nil {
			s.logger.Warn("Failed to cache oracle result", "identity", identity, "error", err)
		}
	}
	return wallets, nil
}

// Invalidate drops the cached wallets for an identity
func (s *Service) Invalidate(ctx context.Context, identity string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cacheKey(identity))
}

// fetchDerived reads live balances for a derived address. Any backend
// failure yields a zero-balance wallet with a warning, never an error.
func (s *Service) fetchDerived(ctx context.Context, address string) entities.WalletBalance {
	wallet := entities.WalletBalance{
		WalletLabel:      "My Wallet",
		ChainAddress:     address,
		NativeBalance:    decimal.Zero,
		SecondaryBalance: decimal.Zero,
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	native, err := s.source.FetchNativeBalance(fetchCtx, address)
	if err != nil {
		s.metrics.OracleFallback()
		s.logger.Warn("Native balance fetch failed, using zero balance",
			"address", address, "error", err)
		return wallet
	}

	secondary, err := s.source.FetchSecondaryBalance(fetchCtx, address)
	if err != nil {
		s.metrics.OracleFallback()
		s.logger.Warn("Secondary balance fetch failed, using zero balance",
			"address", address, "error", err)
		return wallet
	}

	wallet.NativeBalance = native
	wallet.SecondaryBalance = secondary
	return wallet
}
