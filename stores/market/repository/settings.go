package repository

import (
	"math/big"
	"sync"
	"time"

	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/market"
)

type settingsRepo struct {
	mu       sync.RWMutex
	settings market.Settings
}

func NewSettingsRepo(initial market.Settings) market.Repo {
	if initial.OfferCommission == nil {
		initial.OfferCommission = new(big.Int)
	}
	if initial.MaxAuctionDelay == 0 {
		initial.MaxAuctionDelay = 30 * 24 * time.Hour
	}
	return &settingsRepo{settings: initial}
}

func (r *settingsRepo) Get(c bCtx.Ctx) (*market.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	copied := r.settings
	copied.OfferCommission = domain.BigOrZero(r.settings.OfferCommission)
	return &copied, nil
}

func (r *settingsRepo) Patch(c bCtx.Ctx, p market.Patchable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Commission != nil {
		r.settings.Commission = *p.Commission
	}
	if p.OfferCommission != nil {
		r.settings.OfferCommission = new(big.Int).Set(p.OfferCommission)
	}
	if p.Wallet != nil {
		r.settings.Wallet = *p.Wallet
	}
	if p.MaxAuctionDelay != nil {
		r.settings.MaxAuctionDelay = *p.MaxAuctionDelay
	}
	return nil
}
