package repository

import (
	"sync"

	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/escrow"
)

// custodyRepo is an owned arena store: ids are monotonically assigned and
// never reused, deleted slots stay vacant.
type custodyRepo struct {
	mu        sync.RWMutex
	custodies map[domain.CustodyId]*escrow.Custody
	nextId    domain.CustodyId
}

func NewCustodyRepo() escrow.Repo {
	return &custodyRepo{
		custodies: map[domain.CustodyId]*escrow.Custody{},
		nextId:    1,
	}
}

func clone(cu *escrow.Custody) *escrow.Custody {
	copied := *cu
	copied.Deposited = domain.BigOrZero(cu.Deposited)
	copied.Outstanding = domain.BigOrZero(cu.Outstanding)
	copied.Disbursed = domain.BigOrZero(cu.Disbursed)
	return &copied
}

func (r *custodyRepo) FindOne(c bCtx.Ctx, id domain.CustodyId) (*escrow.Custody, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cu, ok := r.custodies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(cu), nil
}

func (r *custodyRepo) Create(c bCtx.Ctx, cu *escrow.Custody) (domain.CustodyId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextId
	r.nextId++
	copied := clone(cu)
	copied.Id = id
	copied.Depositor = cu.Depositor.ToLower()
	copied.Asset = cu.Asset.ToLower()
	r.custodies[id] = copied
	return id, nil
}

func (r *custodyRepo) Delete(c bCtx.Ctx, id domain.CustodyId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.custodies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.custodies, id)
	return nil
}

// Restore re-inserts a deleted custody under its original id. Used only
// by rollback paths; the id counter never moves backwards.
func (r *custodyRepo) Restore(c bCtx.Ctx, cu *escrow.Custody) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custodies[cu.Id] = clone(cu)
	return nil
}

func (r *custodyRepo) Update(c bCtx.Ctx, cu *escrow.Custody) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.custodies[cu.Id]; !ok {
		return domain.ErrNotFound
	}
	r.custodies[cu.Id] = clone(cu)
	return nil
}
