// Package consolidation merges per-wallet balances into a single
// reporting view with aggregate totals and fiat-equivalent valuation.
package consolidation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
)

// Fixed exchange-rate constants for fiat valuation. These are an
// explicit approximation for reporting, not a live price feed.
var (
	NativeFiatRate    = decimal.RequireFromString("12.50")
	SecondaryFiatRate = decimal.RequireFromString("0.05")
)

// Service computes consolidated balance views
type Service struct {
	nativeRate    decimal.Decimal
	secondaryRate decimal.Decimal
	clock         func() time.Time
}

// NewService creates a consolidation engine with the fixed default rates
func NewService() *Service {
	return NewServiceWithRates(NativeFiatRate, SecondaryFiatRate, time.Now)
}

// NewServiceWithRates creates a consolidation engine with explicit rates
// and clock, for tests
func NewServiceWithRates(nativeRate, secondaryRate decimal.Decimal, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		nativeRate:    nativeRate,
		secondaryRate: secondaryRate,
		clock:         clock,
	}
}

// Consolidate merges wallet balances into one view. It never fails; an
// empty wallet list yields all-zero totals.
func (s *Service) Consolidate(wallets []entities.WalletBalance) entities.ConsolidatedView {
	view := entities.ConsolidatedView{
		Wallets: make([]entities.WalletHolding, 0, len(wallets)),
		Totals: entities.ConsolidatedTotals{
			Native:    decimal.Zero,
			Secondary: decimal.Zero,
			Fiat:      decimal.Zero,
		},
		AsOf: s.clock().UTC(),
	}

	for _, w := range wallets {
		fiat := w.SecondaryBalance.Mul(s.secondaryRate).Add(w.NativeBalance.Mul(s.nativeRate))
		view.Wallets = append(view.Wallets, entities.WalletHolding{
			WalletBalance: w,
			FiatValue:     fiat,
		})
		view.Totals.Native = view.Totals.Native.Add(w.NativeBalance)
		view.Totals.Secondary = view.Totals.Secondary.Add(w.SecondaryBalance)
		view.Totals.Fiat = view.Totals.Fiat.Add(fiat)
	}
	return view
}
