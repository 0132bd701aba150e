package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletBalance is a raw per-wallet balance read from the balance oracle
type WalletBalance struct {
	WalletLabel      string          `json:"wallet_label"`
	ChainAddress     string          `json:"chain_address"`
	NativeBalance    decimal.Decimal `json:"native_balance"`
	SecondaryBalance decimal.Decimal `json:"secondary_balance"`
}

// WalletHolding is a wallet balance enriched with its fiat-equivalent valuation
type WalletHolding struct {
	WalletBalance
	FiatValue decimal.Decimal `json:"fiat_value"`
}

// ConsolidatedTotals aggregates balances across all wallets
type ConsolidatedTotals struct {
	Native    decimal.Decimal `json:"native"`
	Secondary decimal.Decimal `json:"secondary"`
	Fiat      decimal.Decimal `json:"fiat"`
}

// ConsolidatedView is the merged reporting view over a user's wallets.
// It is derived on every read and never persisted.
type ConsolidatedView struct {
	Wallets []WalletHolding    `json:"wallets"`
	Totals  ConsolidatedTotals `json:"totals"`
	AsOf    time.Time          `json:"as_of"`
}

// IdentityClass tags how a user identity was resolved to wallets
type IdentityClass string

const (
	IdentityClassLegacy  IdentityClass = "legacy"
	IdentityClassPreset  IdentityClass = "preset"
	IdentityClassDerived IdentityClass = "derived"
)

// WalletResolution is the tagged result of identity resolution.
// Legacy and preset resolutions carry a fixed wallet set; derived
// resolutions carry only the address to query live.
type WalletResolution struct {
	Class   IdentityClass
	Wallets []WalletBalance // populated for legacy/preset
	Address string          // populated for derived
}
