package domain

import (
	"math/big"

	"github.com/x-xyz/settlement/base/ctx"
)

// AssetLedger is the consumed ownership-transfer capability of the asset
// contracts. Whole-unit assets carry amount 1; semi-fungible assets move
// by amount.
type AssetLedger interface {
	TransferOwnership(c ctx.Ctx, asset AssetRef, from, to Address, amount *big.Int) error
	BalanceOf(c ctx.Ctx, asset AssetRef, owner Address) (*big.Int, error)
	IsApprovedForAll(c ctx.Ctx, contract, owner, operator Address) (bool, error)
}

// ValueLedger is the consumed payment-side capability. The native-currency
// sentinel bypasses allowance checks; token contracts are pulled through
// transferFrom semantics.
type ValueLedger interface {
	Transfer(c ctx.Ctx, token Address, from, to Address, amount *big.Int) error

	// TransferFrom pulls token value under the spender's allowance,
	// consuming it. The native sentinel carries no allowance semantics
	// and fails here; native value moves with Transfer.
	TransferFrom(c ctx.Ctx, token, from, spender, to Address, amount *big.Int) error

	BalanceOf(c ctx.Ctx, token, owner Address) (*big.Int, error)
	Allowance(c ctx.Ctx, token, owner, spender Address) (*big.Int, error)
}
