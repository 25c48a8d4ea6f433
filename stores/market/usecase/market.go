package usecase

import (
	"math/big"
	"time"

	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/log"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/access"
	"github.com/x-xyz/settlement/domain/market"
)

type MarketUseCaseCfg struct {
	SettingsRepo  market.Repo
	AccessControl access.AccessControl
}

type impl struct {
	settingsRepo  market.Repo
	accessControl access.AccessControl
}

func New(cfg *MarketUseCaseCfg) market.UseCase {
	return &impl{
		settingsRepo:  cfg.SettingsRepo,
		accessControl: cfg.AccessControl,
	}
}

func (im *impl) SetCommission(c bCtx.Ctx, caller domain.Address, bps domain.BasisPoints) error {
	if err := im.accessControl.Require(c, caller, access.RoleCommissionAdmin); err != nil {
		return err
	}
	if !bps.Valid() {
		return domain.ErrInvalidParameter
	}
	if err := im.settingsRepo.Patch(c, market.Patchable{Commission: &bps}); err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to settingsRepo.Patch")
		return err
	}
	return nil
}

func (im *impl) SetOfferCommission(c bCtx.Ctx, caller domain.Address, fee *big.Int) error {
	if err := im.accessControl.Require(c, caller, access.RoleOwner); err != nil {
		return err
	}
	if fee == nil || fee.Sign() < 0 {
		return domain.ErrInvalidParameter
	}
	if err := im.settingsRepo.Patch(c, market.Patchable{OfferCommission: fee}); err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to settingsRepo.Patch")
		return err
	}
	return nil
}

func (im *impl) SetWallet(c bCtx.Ctx, caller, wallet domain.Address) error {
	if err := im.accessControl.Require(c, caller, access.RoleOwner); err != nil {
		return err
	}
	if wallet.IsEmpty() || !wallet.IsHex() {
		return domain.ErrInvalidParameter
	}
	lowered := wallet.ToLower()
	if err := im.settingsRepo.Patch(c, market.Patchable{Wallet: &lowered}); err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to settingsRepo.Patch")
		return err
	}
	return nil
}

func (im *impl) SetMaxAuctionDelay(c bCtx.Ctx, caller domain.Address, d time.Duration) error {
	if err := im.accessControl.Require(c, caller, access.RoleOwner); err != nil {
		return err
	}
	if d <= 0 {
		return domain.ErrInvalidParameter
	}
	if err := im.settingsRepo.Patch(c, market.Patchable{MaxAuctionDelay: &d}); err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to settingsRepo.Patch")
		return err
	}
	return nil
}

func (im *impl) Get(c bCtx.Ctx) (*market.Settings, error) {
	return im.settingsRepo.Get(c)
}
