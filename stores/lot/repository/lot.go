package repository

import (
	"sort"
	"sync"

	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/lot"
)

// lotRepo is an owned arena store keyed by monotonically assigned lot
// ids; ids are never reused and emptied lots remain readable.
type lotRepo struct {
	mu     sync.RWMutex
	lots   map[domain.LotId]*lot.Lot
	nextId domain.LotId
}

func NewLotRepo() lot.Repo {
	return &lotRepo{
		lots:   map[domain.LotId]*lot.Lot{},
		nextId: 1,
	}
}

func clone(l *lot.Lot) *lot.Lot {
	copied := *l
	copied.Amount = domain.BigOrZero(l.Amount)
	copied.Price.BuyerPrice = domain.BigOrZero(l.Price.BuyerPrice)
	copied.Price.SellerPrice = domain.BigOrZero(l.Price.SellerPrice)
	if l.Auction != nil {
		auction := *l.Auction
		auction.NextStep = domain.BigOrZero(l.Auction.NextStep)
		copied.Auction = &auction
	}
	return &copied
}

func (r *lotRepo) FindOne(c bCtx.Ctx, id domain.LotId) (*lot.Lot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(l), nil
}

func (r *lotRepo) FindAll(c bCtx.Ctx, opts ...lot.FindAllOptionsFunc) ([]*lot.Lot, error) {
	options := lot.FindAllOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	res := []*lot.Lot{}
	for _, l := range r.lots {
		if options.Owner != nil && !l.Owner.Equals(*options.Owner) {
			continue
		}
		res = append(res, clone(l))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res, nil
}

func (r *lotRepo) Create(c bCtx.Ctx, l *lot.Lot) (domain.LotId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextId
	r.nextId++
	copied := clone(l)
	copied.Id = id
	copied.Owner = l.Owner.ToLower()
	copied.Asset = l.Asset.ToLower()
	r.lots[id] = copied
	return id, nil
}

func (r *lotRepo) Delete(c bCtx.Ctx, id domain.LotId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lots[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.lots, id)
	return nil
}

func (r *lotRepo) Update(c bCtx.Ctx, l *lot.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lots[l.Id]; !ok {
		return domain.ErrNotFound
	}
	r.lots[l.Id] = clone(l)
	return nil
}

func (r *lotRepo) Count(c bCtx.Ctx) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.lots)), nil
}
