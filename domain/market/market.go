package market

import (
	"math/big"
	"time"

	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
)

// Settings is the market-wide configuration read at every settlement.
type Settings struct {
	Commission      domain.BasisPoints `json:"commission"`
	OfferCommission *big.Int           `json:"offerCommission"`
	Wallet          domain.Address     `json:"wallet"`
	MaxAuctionDelay time.Duration      `json:"maxAuctionDelay"`
}

type Patchable struct {
	Commission      *domain.BasisPoints
	OfferCommission *big.Int
	Wallet          *domain.Address
	MaxAuctionDelay *time.Duration
}

type Repo interface {
	Get(c ctx.Ctx) (*Settings, error)
	Patch(c ctx.Ctx, p Patchable) error
}

type UseCase interface {
	SetCommission(c ctx.Ctx, caller domain.Address, bps domain.BasisPoints) error
	SetOfferCommission(c ctx.Ctx, caller domain.Address, fee *big.Int) error
	SetWallet(c ctx.Ctx, caller, wallet domain.Address) error
	SetMaxAuctionDelay(c ctx.Ctx, caller domain.Address, d time.Duration) error

	Get(c ctx.Ctx) (*Settings, error)
}
