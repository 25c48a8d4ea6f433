package repository

import (
	"math/big"
	"sync"

	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/escrow"
)

type valueBook struct {
	mu       sync.RWMutex
	balances map[domain.Address]*big.Int
}

func NewValueBook() escrow.ValueBook {
	return &valueBook{balances: map[domain.Address]*big.Int{}}
}

func (b *valueBook) Balance(c bCtx.Ctx, token domain.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.balances[token.ToLower()]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (b *valueBook) Add(c bCtx.Ctx, token domain.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := token.ToLower()
	if v, ok := b.balances[k]; ok {
		b.balances[k] = new(big.Int).Add(v, amount)
	} else {
		b.balances[k] = new(big.Int).Set(amount)
	}
}

func (b *valueBook) Sub(c bCtx.Ctx, token domain.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := token.ToLower()
	if v, ok := b.balances[k]; ok {
		b.balances[k] = new(big.Int).Sub(v, amount)
	} else {
		b.balances[k] = new(big.Int).Neg(amount)
	}
}
