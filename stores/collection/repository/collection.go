package repository

import (
	"sync"

	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/collection"
)

type collectionRepo struct {
	mu          sync.RWMutex
	collections map[domain.Address]*collection.Collection
}

func NewCollectionRepo() collection.Repo {
	return &collectionRepo{collections: map[domain.Address]*collection.Collection{}}
}

func clone(col *collection.Collection) *collection.Collection {
	copied := *col
	copied.PaymentTokens = append([]domain.Address{}, col.PaymentTokens...)
	return &copied
}

func (r *collectionRepo) FindOne(c bCtx.Ctx, address domain.Address) (*collection.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.collections[address.ToLower()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(col), nil
}

func (r *collectionRepo) FindAll(c bCtx.Ctx) ([]*collection.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*collection.Collection, 0, len(r.collections))
	for _, col := range r.collections {
		res = append(res, clone(col))
	}
	return res, nil
}

func (r *collectionRepo) Create(c bCtx.Ctx, col *collection.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	addr := col.Address.ToLower()
	if _, ok := r.collections[addr]; ok {
		return domain.ErrInvalidParameter
	}
	copied := clone(col)
	copied.Address = addr
	r.collections[addr] = copied
	return nil
}

func (r *collectionRepo) Patch(c bCtx.Ctx, address domain.Address, p collection.Patchable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	col, ok := r.collections[address.ToLower()]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Commission != nil {
		col.Commission = *p.Commission
	}
	if p.Owner != nil {
		col.Owner = *p.Owner
	}
	if p.PaymentTokens != nil {
		col.PaymentTokens = append([]domain.Address{}, (*p.PaymentTokens)...)
	}
	return nil
}
