package escrow

import (
	"math/big"

	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/txn"
	"github.com/x-xyz/settlement/domain"
)

// Custody tracks one escrowed asset unit. At all times
// Outstanding + Disbursed == Deposited.
type Custody struct {
	Id          domain.CustodyId `json:"id"`
	Depositor   domain.Address   `json:"depositor"`
	Asset       domain.AssetRef  `json:"asset"`
	Deposited   *big.Int         `json:"deposited"`
	Outstanding *big.Int         `json:"outstanding"`
	Disbursed   *big.Int         `json:"disbursed"`
}

type Repo interface {
	FindOne(c ctx.Ctx, id domain.CustodyId) (*Custody, error)
	Create(c ctx.Ctx, custody *Custody) (domain.CustodyId, error)
	Delete(c ctx.Ctx, id domain.CustodyId) error
	Restore(c ctx.Ctx, custody *Custody) error
	Update(c ctx.Ctx, custody *Custody) error
}

// ValueBook tracks payment-side value held by the engine, per token.
type ValueBook interface {
	Balance(c ctx.Ctx, token domain.Address) *big.Int
	Add(c ctx.Ctx, token domain.Address, amount *big.Int)
	Sub(c ctx.Ctx, token domain.Address, amount *big.Int)
}

// UseCase stages custody mutations into the caller's settlement txn:
// bookkeeping applies inside the txn's internal phase and asset/value
// transfers are deferred to its terminal commit.
type UseCase interface {
	// Deposit takes custody of an asset unit from the depositor. Fails
	// with ErrInvalidDeposit on zero amounts or contracts that are not
	// registered as tradable.
	Deposit(c ctx.Ctx, t *txn.Txn, depositor domain.Address, asset domain.AssetRef, amount *big.Int) (domain.CustodyId, error)

	// Release disburses part of a custody's outstanding amount.
	Release(c ctx.Ctx, t *txn.Txn, id domain.CustodyId, recipient domain.Address, amount *big.Int) error

	// EscrowValue pulls payment-side value from the payer into the
	// engine. Token pulls validate allowance and balance before any
	// state mutation.
	EscrowValue(c ctx.Ctx, t *txn.Txn, payer domain.Address, token domain.Address, amount *big.Int) error

	// ReleaseValue pays escrowed value out to the recipient.
	ReleaseValue(c ctx.Ctx, t *txn.Txn, token domain.Address, recipient domain.Address, amount *big.Int) error

	GetCustody(c ctx.Ctx, id domain.CustodyId) (*Custody, error)
	ValueBalance(c ctx.Ctx, token domain.Address) (*big.Int, error)
}
