package offer

import (
	"math/big"

	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
)

type Status int

const (
	StatusActive Status = iota
	StatusCancelled
	StatusChosen
)

func (s Status) String() string {
	switch s {
	case StatusCancelled:
		return "cancelled"
	case StatusChosen:
		return "chosen"
	}
	return "active"
}

// Offer is a standing proposal against one lot: in-kind item lots plus at
// most one of the two value channels (native or token). The fixed offer
// commission is always native and escrowed alongside, regardless of the
// deal currency.
type Offer struct {
	Id             domain.OfferId `json:"id"`
	LotId          domain.LotId   `json:"lotId"`
	Proposer       domain.Address `json:"proposer"`
	ItemLotIds     []domain.LotId `json:"itemLotIds"`
	PayToken       domain.Address `json:"payToken"`
	TokenAmount    *big.Int       `json:"tokenAmount"`
	NativeAmount   *big.Int       `json:"nativeAmount"`
	CommissionPaid *big.Int       `json:"commissionPaid"`
	Status         Status         `json:"status"`
}

type FindAllOptions struct {
	LotId    *domain.LotId
	Proposer *domain.Address
	Status   *Status
}

type FindAllOptionsFunc func(*FindAllOptions)

func WithLotId(id domain.LotId) FindAllOptionsFunc {
	return func(o *FindAllOptions) {
		o.LotId = &id
	}
}

func WithProposer(proposer domain.Address) FindAllOptionsFunc {
	return func(o *FindAllOptions) {
		lowered := proposer.ToLower()
		o.Proposer = &lowered
	}
}

func WithStatus(s Status) FindAllOptionsFunc {
	return func(o *FindAllOptions) {
		o.Status = &s
	}
}

type Repo interface {
	FindOne(c ctx.Ctx, id domain.OfferId) (*Offer, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Offer, error)
	Create(c ctx.Ctx, o *Offer) (domain.OfferId, error)
	// Delete removes an offer record entirely. Used only by rollback
	// paths undoing a Create.
	Delete(c ctx.Ctx, id domain.OfferId) error
	Update(c ctx.Ctx, o *Offer) error
}

type MakeOfferParams struct {
	LotId        domain.LotId
	ItemLotIds   []domain.LotId
	PayToken     domain.Address
	TokenAmount  *big.Int
	NativeAmount *big.Int
}

type NFTOfferParams struct {
	Assets       []domain.AssetRef
	Amounts      []*big.Int
	LotId        domain.LotId
	PayToken     domain.Address
	TokenAmount  *big.Int
	NativeAmount *big.Int
}

// UseCase records, cancels, and resolves proposals against lots.
type UseCase interface {
	MakeOffer(c ctx.Ctx, caller domain.Address, p MakeOfferParams) (domain.OfferId, error)

	// NFTOffer deposits the listed assets as fresh lots owned by the
	// caller and wraps them into an offer in one atomic step.
	NFTOffer(c ctx.Ctx, caller domain.Address, p NFTOfferParams) (domain.OfferId, error)

	CancelOffer(c ctx.Ctx, caller domain.Address, id domain.OfferId) error
	ChooseOffer(c ctx.Ctx, caller domain.Address, lotId domain.LotId, id domain.OfferId) error

	GetOffer(c ctx.Ctx, id domain.OfferId) (*Offer, error)
	GetOffersByLot(c ctx.Ctx, lotId domain.LotId) ([]*Offer, error)
	GetOffersByProposer(c ctx.Ctx, proposer domain.Address) ([]*Offer, error)
}
