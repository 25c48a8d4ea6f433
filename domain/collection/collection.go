package collection

import (
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
)

// Collection is the per-asset-contract trading configuration.
type Collection struct {
	Address          domain.Address     `json:"address"`
	CanTransferOnAdd bool               `json:"canTransferOnAdd"`
	Commission       domain.BasisPoints `json:"commission"`
	Owner            domain.Address     `json:"owner"`
	PaymentTokens    []domain.Address   `json:"paymentTokens"`
}

func (c *Collection) SupportsPaymentToken(token domain.Address) bool {
	if token.IsNative() {
		return true
	}
	for _, t := range c.PaymentTokens {
		if t.Equals(token) {
			return true
		}
	}
	return false
}

type Patchable struct {
	Commission    *domain.BasisPoints
	Owner         *domain.Address
	PaymentTokens *[]domain.Address
}

type Repo interface {
	FindOne(c ctx.Ctx, address domain.Address) (*Collection, error)
	FindAll(c ctx.Ctx) ([]*Collection, error)
	Create(c ctx.Ctx, col *Collection) error
	Patch(c ctx.Ctx, address domain.Address, p Patchable) error
}

type UseCase interface {
	Register(c ctx.Ctx, caller domain.Address, col *Collection) error
	SetCommission(c ctx.Ctx, caller, address domain.Address, bps domain.BasisPoints) error
	SetOwner(c ctx.Ctx, caller, address, owner domain.Address) error
	AddPaymentToken(c ctx.Ctx, caller, address, token domain.Address) error
	RemovePaymentToken(c ctx.Ctx, caller, address, token domain.Address) error

	Get(c ctx.Ctx, address domain.Address) (*Collection, error)
	GetAll(c ctx.Ctx) ([]*Collection, error)
	IsTradable(c ctx.Ctx, address domain.Address) (bool, error)
	IsPaymentTokenSupported(c ctx.Ctx, address, token domain.Address) (bool, error)
}
