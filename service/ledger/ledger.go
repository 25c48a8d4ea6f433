// Package ledger provides in-process implementations of the consumed
// asset and payment-token contract capabilities. The settlement engine
// only sees the domain interfaces; this backing is used by the app
// bootstrap and the test suites.
package ledger

import (
	"math/big"
	"sync"

	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/keys"
)

type assetKey struct {
	contract domain.Address
	tokenId  domain.TokenId
	owner    domain.Address
}

type Asset struct {
	mu        sync.RWMutex
	balances  map[assetKey]*big.Int
	approvals map[string]bool
}

func NewAsset() *Asset {
	return &Asset{
		balances:  map[assetKey]*big.Int{},
		approvals: map[string]bool{},
	}
}

func approvalKey(contract, owner, operator domain.Address) string {
	return keys.CustomKey("/", contract.ToLowerStr(), owner.ToLowerStr(), operator.ToLowerStr())
}

// Mint credits an asset balance, for bootstrap and tests.
func (l *Asset) Mint(c ctx.Ctx, asset domain.AssetRef, owner domain.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := assetKey{asset.ContractAddress.ToLower(), asset.TokenId, owner.ToLower()}
	l.balances[k] = new(big.Int).Add(l.balanceLocked(k), amount)
}

func (l *Asset) SetApprovalForAll(c ctx.Ctx, contract, owner, operator domain.Address, approved bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.approvals[approvalKey(contract, owner, operator)] = approved
}

func (l *Asset) balanceLocked(k assetKey) *big.Int {
	if b, ok := l.balances[k]; ok {
		return b
	}
	return domain.Big0
}

func (l *Asset) TransferOwnership(c ctx.Ctx, asset domain.AssetRef, from, to domain.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fromKey := assetKey{asset.ContractAddress.ToLower(), asset.TokenId, from.ToLower()}
	toKey := assetKey{asset.ContractAddress.ToLower(), asset.TokenId, to.ToLower()}
	if l.balanceLocked(fromKey).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	l.balances[fromKey] = new(big.Int).Sub(l.balanceLocked(fromKey), amount)
	l.balances[toKey] = new(big.Int).Add(l.balanceLocked(toKey), amount)
	return nil
}

func (l *Asset) BalanceOf(c ctx.Ctx, asset domain.AssetRef, owner domain.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	k := assetKey{asset.ContractAddress.ToLower(), asset.TokenId, owner.ToLower()}
	return new(big.Int).Set(l.balanceLocked(k)), nil
}

func (l *Asset) IsApprovedForAll(c ctx.Ctx, contract, owner, operator domain.Address) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.approvals[approvalKey(contract, owner, operator)], nil
}

type valueKey struct {
	token domain.Address
	owner domain.Address
}

type Value struct {
	mu         sync.RWMutex
	balances   map[valueKey]*big.Int
	allowances map[string]*big.Int
}

func NewValue() *Value {
	return &Value{
		balances:   map[valueKey]*big.Int{},
		allowances: map[string]*big.Int{},
	}
}

func allowanceKey(token, owner, spender domain.Address) string {
	return keys.CustomKey("/", token.ToLowerStr(), owner.ToLowerStr(), spender.ToLowerStr())
}

// Mint credits a value balance, for bootstrap and tests. The native
// sentinel address works like any other token here.
func (l *Value) Mint(c ctx.Ctx, token, owner domain.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := valueKey{token.ToLower(), owner.ToLower()}
	l.balances[k] = new(big.Int).Add(l.balanceLocked(k), amount)
}

func (l *Value) Approve(c ctx.Ctx, token, owner, spender domain.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[allowanceKey(token, owner, spender)] = new(big.Int).Set(amount)
}

func (l *Value) balanceLocked(k valueKey) *big.Int {
	if b, ok := l.balances[k]; ok {
		return b
	}
	return domain.Big0
}

func (l *Value) Transfer(c ctx.Ctx, token, from, to domain.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fromKey := valueKey{token.ToLower(), from.ToLower()}
	toKey := valueKey{token.ToLower(), to.ToLower()}
	if l.balanceLocked(fromKey).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	l.balances[fromKey] = new(big.Int).Sub(l.balanceLocked(fromKey), amount)
	l.balances[toKey] = new(big.Int).Add(l.balanceLocked(toKey), amount)
	return nil
}

func (l *Value) TransferFrom(c ctx.Ctx, token, from, spender, to domain.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token.IsNative() {
		return domain.ErrUnsupportedPaymentToken
	}
	ak := allowanceKey(token, from, spender)
	allowance, ok := l.allowances[ak]
	if !ok || allowance.Cmp(amount) < 0 {
		return domain.ErrInsufficientAllowance
	}
	fromKey := valueKey{token.ToLower(), from.ToLower()}
	toKey := valueKey{token.ToLower(), to.ToLower()}
	if l.balanceLocked(fromKey).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	l.allowances[ak] = new(big.Int).Sub(allowance, amount)
	l.balances[fromKey] = new(big.Int).Sub(l.balanceLocked(fromKey), amount)
	l.balances[toKey] = new(big.Int).Add(l.balanceLocked(toKey), amount)
	return nil
}

func (l *Value) BalanceOf(c ctx.Ctx, token, owner domain.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.balanceLocked(valueKey{token.ToLower(), owner.ToLower()})), nil
}

func (l *Value) Allowance(c ctx.Ctx, token, owner, spender domain.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a, ok := l.allowances[allowanceKey(token, owner, spender)]; ok {
		return new(big.Int).Set(a), nil
	}
	return new(big.Int), nil
}
