package repository

import (
	"sync"

	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/access"
)

type grantKey struct {
	address domain.Address
	role    access.Role
}

type grantsRepo struct {
	mu     sync.RWMutex
	grants map[grantKey]bool
}

func NewGrantsRepo() access.Repo {
	return &grantsRepo{grants: map[grantKey]bool{}}
}

func (r *grantsRepo) HasRole(c bCtx.Ctx, address domain.Address, role access.Role) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.grants[grantKey{address.ToLower(), role}], nil
}

func (r *grantsRepo) Grant(c bCtx.Ctx, address domain.Address, role access.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[grantKey{address.ToLower(), role}] = true
	return nil
}

func (r *grantsRepo) Revoke(c bCtx.Ctx, address domain.Address, role access.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.grants, grantKey{address.ToLower(), role})
	return nil
}
