package lot

import (
	"math/big"
	"time"

	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
)

// SaleMode labels the depositor's intent at creation time. It constrains
// which operations are legal but attaches no price terms by itself;
// Sell/StartAuction attach terms later and re-validate.
type SaleMode int

const (
	SaleModeNone SaleMode = iota
	SaleModeFixedPrice
	SaleModeAuction
	SaleModeExchange
)

func (m SaleMode) String() string {
	switch m {
	case SaleModeFixedPrice:
		return "fixedPrice"
	case SaleModeAuction:
		return "auction"
	case SaleModeExchange:
		return "exchange"
	}
	return "none"
}

func (m SaleMode) Valid() bool {
	return m >= SaleModeNone && m <= SaleModeExchange
}

// Price carries the attached sale terms. BuyerPrice is gross; for
// auctions it holds the current high bid. SellerPrice is net of
// commission.
type Price struct {
	PayToken    domain.Address `json:"payToken"`
	BuyerPrice  *big.Int       `json:"buyerPrice"`
	SellerPrice *big.Int       `json:"sellerPrice"`
}

// Auction terms, populated only while the lot is on auction.
type Auction struct {
	Start      time.Time          `json:"start"`
	End        time.Time          `json:"end"`
	StepBps    domain.BasisPoints `json:"stepBps"`
	NextStep   *big.Int           `json:"nextStep"`
	LastBidder domain.Address     `json:"lastBidder"`
	HasBid     bool               `json:"hasBid"`
}

// Lot is a custodied unit of tradable asset. Owner clears and Amount
// zeroes on every terminal disposition; the custody record keeps the
// conservation trail.
type Lot struct {
	Id            domain.LotId     `json:"id"`
	Owner         domain.Address   `json:"owner"`
	Asset         domain.AssetRef  `json:"asset"`
	Amount        *big.Int         `json:"amount"`
	SaleMode      SaleMode         `json:"saleMode"`
	Price         Price            `json:"price"`
	SellStart     time.Time        `json:"sellStart"`
	Selling       bool             `json:"selling"`
	OpenForOffers bool             `json:"openForOffers"`
	Auction       *Auction         `json:"auction,omitempty"`
	CustodyId     domain.CustodyId `json:"custodyId"`

	// EncumberedBy is the id of the active offer holding this lot as an
	// offered item, zero when unencumbered.
	EncumberedBy domain.OfferId `json:"encumberedBy,omitempty"`
}

func (l *Lot) IsEmpty() bool {
	return domain.IsZeroOrNil(l.Amount)
}

func (l *Lot) IsEncumbered() bool {
	return l.EncumberedBy != 0
}

func (l *Lot) OnAuction() bool {
	return l.Auction != nil
}

type FindAllOptions struct {
	Owner *domain.Address
}

type FindAllOptionsFunc func(*FindAllOptions)

func WithOwner(owner domain.Address) FindAllOptionsFunc {
	return func(o *FindAllOptions) {
		lowered := owner.ToLower()
		o.Owner = &lowered
	}
}

type Repo interface {
	FindOne(c ctx.Ctx, id domain.LotId) (*Lot, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Lot, error)
	Create(c ctx.Ctx, l *Lot) (domain.LotId, error)
	// Delete removes a lot record entirely. Used only by rollback paths
	// undoing a Create; the id counter never moves backwards.
	Delete(c ctx.Ctx, id domain.LotId) error
	Update(c ctx.Ctx, l *Lot) error
	Count(c ctx.Ctx) (int64, error)
}

type CreateLotParams struct {
	Asset    domain.AssetRef
	Amount   *big.Int
	SaleMode SaleMode
}

type SellParams struct {
	PayToken      domain.Address
	BuyerPrice    *big.Int
	OpenForOffers bool
	StartDate     time.Time
}

type StartAuctionParams struct {
	Start      time.Time
	End        time.Time
	StepBps    domain.BasisPoints
	PayToken   domain.Address
	StartPrice *big.Int
}

// UseCase is the lot ledger: the central state machine from deposit
// through listing to terminal disposition.
type UseCase interface {
	CreateLot(c ctx.Ctx, caller domain.Address, p CreateLotParams) (domain.LotId, error)
	Sell(c ctx.Ctx, caller domain.Address, id domain.LotId, p SellParams) error
	Buy(c ctx.Ctx, caller domain.Address, id domain.LotId) error
	StartAuction(c ctx.Ctx, caller domain.Address, id domain.LotId, p StartAuctionParams) error
	MakeBid(c ctx.Ctx, caller domain.Address, id domain.LotId, amount *big.Int) error
	EndAuction(c ctx.Ctx, caller domain.Address, id domain.LotId) error
	FinishAuction(c ctx.Ctx, caller domain.Address, id domain.LotId) error
	GetBack(c ctx.Ctx, caller domain.Address, id domain.LotId) error

	GetLot(c ctx.Ctx, id domain.LotId) (*Lot, error)
	GetLotsByOwner(c ctx.Ctx, owner domain.Address) ([]*Lot, error)
	Count(c ctx.Ctx) (int64, error)
}
