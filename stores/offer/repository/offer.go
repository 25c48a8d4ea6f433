package repository

import (
	"sort"
	"sync"

	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/offer"
)

type offerRepo struct {
	mu     sync.RWMutex
	offers map[domain.OfferId]*offer.Offer
	nextId domain.OfferId
}

func NewOfferRepo() offer.Repo {
	return &offerRepo{
		offers: map[domain.OfferId]*offer.Offer{},
		nextId: 1,
	}
}

func clone(o *offer.Offer) *offer.Offer {
	copied := *o
	copied.ItemLotIds = append([]domain.LotId{}, o.ItemLotIds...)
	copied.TokenAmount = domain.BigOrZero(o.TokenAmount)
	copied.NativeAmount = domain.BigOrZero(o.NativeAmount)
	copied.CommissionPaid = domain.BigOrZero(o.CommissionPaid)
	return &copied
}

func (r *offerRepo) FindOne(c bCtx.Ctx, id domain.OfferId) (*offer.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.offers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(o), nil
}

func (r *offerRepo) FindAll(c bCtx.Ctx, opts ...offer.FindAllOptionsFunc) ([]*offer.Offer, error) {
	options := offer.FindAllOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	res := []*offer.Offer{}
	for _, o := range r.offers {
		if options.LotId != nil && o.LotId != *options.LotId {
			continue
		}
		if options.Proposer != nil && !o.Proposer.Equals(*options.Proposer) {
			continue
		}
		if options.Status != nil && o.Status != *options.Status {
			continue
		}
		res = append(res, clone(o))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res, nil
}

func (r *offerRepo) Create(c bCtx.Ctx, o *offer.Offer) (domain.OfferId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextId
	r.nextId++
	copied := clone(o)
	copied.Id = id
	copied.Proposer = o.Proposer.ToLower()
	r.offers[id] = copied
	return id, nil
}

func (r *offerRepo) Delete(c bCtx.Ctx, id domain.OfferId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.offers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.offers, id)
	return nil
}

func (r *offerRepo) Update(c bCtx.Ctx, o *offer.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.offers[o.Id]; !ok {
		return domain.ErrNotFound
	}
	r.offers[o.Id] = clone(o)
	return nil
}
