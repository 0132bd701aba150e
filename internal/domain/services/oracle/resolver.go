package oracle

import (
	"github.com/shopspring/decimal"

	"github.com/stackfolio/stackfolio_service/internal/domain/entities"
)

// IdentityResolver maps a user identity onto a wallet resolution.
// Resolution is deterministic and inexpensive; the expensive part is the
// live balance fetch for derived resolutions.
type IdentityResolver interface {
	Resolve(identity string) entities.WalletResolution
}

// FixtureSets holds the fixed demo wallet sets for the legacy and preset
// identity classes. They are injected as table-driven fixtures rather
// than compiled-in key material.
type FixtureSets struct {
	LegacyIdentities []string
	LegacyWallets    []entities.WalletBalance
	PresetIdentities []string
	PresetWallets    []entities.WalletBalance

	// DeriveAddress maps an identity to its on-chain address for the
	// general case. When nil the identity is used as the address.
	DeriveAddress func(identity string) string
}

// fixtureResolver resolves identities in priority order: legacy class,
// then preset class, then derived
type fixtureResolver struct {
	legacy map[string]bool
	preset map[string]bool
	cfg    FixtureSets
}

// NewResolver creates an identity resolver over the given fixture sets
func NewResolver(cfg FixtureSets) IdentityResolver {
	r := &fixtureResolver{
		legacy: make(map[string]bool, len(cfg.LegacyIdentities)),
		preset: make(map[string]bool, len(cfg.PresetIdentities)),
		cfg:    cfg,
	}
	for _, id := range cfg.LegacyIdentities {
		r.legacy[id] = true
	}
	for _, id := range cfg.PresetIdentities {
		r.preset[id] = true
	}
	return r
}

// Resolve implements IdentityResolver
func (r *fixtureResolver) Resolve(identity string) entities.WalletResolution {
	switch {
	case r.legacy[identity]:
		return entities.WalletResolution{
			Class:   entities.IdentityClassLegacy,
			Wallets: copyWallets(r.cfg.LegacyWallets),
		}
	case r.preset[identity]:
		return entities.WalletResolution{
			Class:   entities.IdentityClassPreset,
			Wallets: copyWallets(r.cfg.PresetWallets),
		}
	default:
		address := identity
		if r.cfg.DeriveAddress != nil {
			address = r.cfg.DeriveAddress(identity)
		}
		return entities.WalletResolution{
			Class:   entities.IdentityClassDerived,
			Address: address,
		}
	}
}

func copyWallets(ws []entities.WalletBalance) []entities.WalletBalance {
	out := make([]entities.WalletBalance, len(ws))
	copy(out, ws)
	return out
}

// DefaultFixtureSets returns demo wallet sets for the given identity
// lists. Balances are fixed sample data for the demo wallet classes.
func DefaultFixtureSets(legacyIdentities, presetIdentities []string) FixtureSets {
	return FixtureSets{
		LegacyIdentities: legacyIdentities,
		LegacyWallets: []entities.WalletBalance{
			{
				WalletLabel:      "Legacy Wallet A",
				ChainAddress:     "NLegacyA7kR2pCmYxq9tTuVbd4nHe8wFzQ",
				NativeBalance:    decimal.RequireFromString("2.5"),
				SecondaryBalance: decimal.RequireFromString("140"),
			},
			{
				WalletLabel:      "Legacy Wallet B",
				ChainAddress:     "NLegacyB3mJ6sWvKcq2tXuYbd9nHe1wFzQ",
				NativeBalance:    decimal.RequireFromString("1.8"),
				SecondaryBalance: decimal.RequireFromString("65"),
			},
		},
		PresetIdentities: presetIdentities,
		PresetWallets: []entities.WalletBalance{
			{
				WalletLabel:      "Preset Wallet A",
				ChainAddress:     "NPresetA5qT8nRmZxc4vYuWbd7kJe2sFzQ",
				NativeBalance:    decimal.RequireFromString("12"),
				SecondaryBalance: decimal.RequireFromString("300"),
			},
			{
				WalletLabel:      "Preset Wallet B",
				ChainAddress:     "NPresetB9wK4pLmQxc1vYuTbd6nJe8sFzQ",
				NativeBalance:    decimal.RequireFromString("0.75"),
				SecondaryBalance: decimal.RequireFromString("25"),
			},
		},
	}
}
