package usecase

import (
	"math/big"
	"sync"

	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/clock"
	"github.com/x-xyz/settlement/base/log"
	"github.com/x-xyz/settlement/base/txn"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/collection"
	"github.com/x-xyz/settlement/domain/commission"
	"github.com/x-xyz/settlement/domain/escrow"
	"github.com/x-xyz/settlement/domain/lot"
	"github.com/x-xyz/settlement/domain/market"
	"github.com/x-xyz/settlement/domain/offer"
)

type OfferUseCaseCfg struct {
	OfferRepo      offer.Repo
	LotRepo        lot.Repo
	CollectionRepo collection.Repo
	MarketRepo     market.Repo
	EscrowUC       escrow.UseCase
	Clock          clock.Clock

	// SettleMu is the settlement lock shared with the lot ledger.
	SettleMu *sync.Mutex
}

type impl struct {
	offerRepo      offer.Repo
	lotRepo        lot.Repo
	collectionRepo collection.Repo
	marketRepo     market.Repo
	escrowUC       escrow.UseCase
	clock          clock.Clock
	settleMu       *sync.Mutex
}

func New(cfg *OfferUseCaseCfg) offer.UseCase {
	return &impl{
		offerRepo:      cfg.OfferRepo,
		lotRepo:        cfg.LotRepo,
		collectionRepo: cfg.CollectionRepo,
		marketRepo:     cfg.MarketRepo,
		escrowUC:       cfg.EscrowUC,
		clock:          cfg.Clock,
		settleMu:       cfg.SettleMu,
	}
}

func (im *impl) MakeOffer(c bCtx.Ctx, caller domain.Address, p offer.MakeOfferParams) (domain.OfferId, error) {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	t := txn.New()
	id, err := im.makeOffer(c, t, caller, p)
	if err != nil {
		t.Rollback()
		return 0, err
	}
	if err := t.Commit(); err != nil {
		c.WithFields(log.Fields{"err": err, "lotId": p.LotId}).Error("failed to settle makeOffer")
		return 0, err
	}
	return id, nil
}

func (im *impl) NFTOffer(c bCtx.Ctx, caller domain.Address, p offer.NFTOfferParams) (domain.OfferId, error) {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	if len(p.Assets) == 0 || len(p.Assets) != len(p.Amounts) {
		return 0, domain.ErrInvalidParameter
	}

	// deposits and the offer succeed or fail as one
	t := txn.New()
	itemLotIds := make([]domain.LotId, 0, len(p.Assets))
	for i, asset := range p.Assets {
		custodyId, err := im.escrowUC.Deposit(c, t, caller, asset, p.Amounts[i])
		if err != nil {
			t.Rollback()
			return 0, err
		}
		var lotId domain.LotId
		if err := t.Do(func() error {
			var err error
			lotId, err = im.lotRepo.Create(c, &lot.Lot{
				Owner:     caller,
				Asset:     asset,
				Amount:    p.Amounts[i],
				SaleMode:  lot.SaleModeExchange,
				CustodyId: custodyId,
			})
			return err
		}, func() {
			if err := im.lotRepo.Delete(c, lotId); err != nil {
				c.WithFields(log.Fields{"err": err, "lotId": lotId}).Error("failed to lotRepo.Delete on rollback")
			}
		}); err != nil {
			t.Rollback()
			return 0, err
		}
		itemLotIds = append(itemLotIds, lotId)
	}

	id, err := im.makeOffer(c, t, caller, offer.MakeOfferParams{
		LotId:        p.LotId,
		ItemLotIds:   itemLotIds,
		PayToken:     p.PayToken,
		TokenAmount:  p.TokenAmount,
		NativeAmount: p.NativeAmount,
	})
	if err != nil {
		t.Rollback()
		return 0, err
	}
	if err := t.Commit(); err != nil {
		c.WithFields(log.Fields{"err": err, "lotId": p.LotId}).Error("failed to settle nftOffer")
		return 0, err
	}
	return id, nil
}

func (im *impl) makeOffer(c bCtx.Ctx, t *txn.Txn, caller domain.Address, p offer.MakeOfferParams) (domain.OfferId, error) {
	target, err := im.lotRepo.FindOne(c, p.LotId)
	if err != nil {
		return 0, err
	}
	if target.IsEmpty() {
		return 0, domain.ErrInvalidState
	}
	// a lot pledged to an active offer cannot be targeted until that
	// offer resolves
	if target.IsEncumbered() {
		return 0, domain.ErrItemLotEncumbered
	}

	// exchange-labeled lots accept offers without an explicit listing
	if !target.OpenForOffers && target.SaleMode != lot.SaleModeExchange {
		return 0, domain.ErrLotNotOpenForOffers
	}
	if im.clock.Now().Before(target.SellStart) {
		return 0, domain.ErrNotSellingOrNotStarted
	}

	hasToken := domain.IsPositive(p.TokenAmount)
	hasNative := domain.IsPositive(p.NativeAmount)
	if hasToken && hasNative {
		return 0, domain.ErrMixedOfferValue
	}
	if !hasToken && !hasNative && len(p.ItemLotIds) == 0 {
		return 0, domain.ErrZeroValueOffer
	}
	if hasToken {
		if p.PayToken.IsEmpty() || p.PayToken.IsNative() {
			return 0, domain.ErrUnsupportedPaymentToken
		}
		col, err := im.collectionRepo.FindOne(c, target.Asset.ContractAddress)
		if err != nil {
			return 0, err
		}
		if !col.SupportsPaymentToken(p.PayToken) {
			return 0, domain.ErrUnsupportedPaymentToken
		}
	}

	items := make([]*lot.Lot, 0, len(p.ItemLotIds))
	for _, itemId := range p.ItemLotIds {
		item, err := im.lotRepo.FindOne(c, itemId)
		if err != nil {
			return 0, err
		}
		if itemId == p.LotId || item.IsEmpty() || !item.Owner.Equals(caller) {
			return 0, domain.ErrInvalidParameter
		}
		if item.IsEncumbered() {
			return 0, domain.ErrItemLotEncumbered
		}
		if item.Selling || item.OnAuction() {
			return 0, domain.ErrItemLotEncumbered
		}
		items = append(items, item)
	}

	settings, err := im.marketRepo.Get(c)
	if err != nil {
		return 0, err
	}

	// the fixed offer commission is always native, on top of either
	// value channel
	if err := im.escrowUC.EscrowValue(c, t, caller, domain.NativeToken, settings.OfferCommission); err != nil {
		return 0, err
	}
	if hasToken {
		if err := im.escrowUC.EscrowValue(c, t, caller, p.PayToken, p.TokenAmount); err != nil {
			return 0, err
		}
	}
	if hasNative {
		if err := im.escrowUC.EscrowValue(c, t, caller, domain.NativeToken, p.NativeAmount); err != nil {
			return 0, err
		}
	}

	var id domain.OfferId
	if err := t.Do(func() error {
		var err error
		id, err = im.offerRepo.Create(c, &offer.Offer{
			LotId:          p.LotId,
			Proposer:       caller,
			ItemLotIds:     p.ItemLotIds,
			PayToken:       p.PayToken.ToLower(),
			TokenAmount:    p.TokenAmount,
			NativeAmount:   p.NativeAmount,
			CommissionPaid: settings.OfferCommission,
			Status:         offer.StatusActive,
		})
		return err
	}, func() {
		if err := im.offerRepo.Delete(c, id); err != nil {
			c.WithFields(log.Fields{"err": err, "offerId": id}).Error("failed to offerRepo.Delete on rollback")
		}
	}); err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to offerRepo.Create")
		return 0, err
	}

	for _, item := range items {
		item := item
		encumbered := *item
		encumbered.EncumberedBy = id
		if err := t.Do(func() error {
			return im.lotRepo.Update(c, &encumbered)
		}, func() {
			if err := im.lotRepo.Update(c, item); err != nil {
				c.WithFields(log.Fields{"err": err, "lotId": item.Id}).Error("failed to lotRepo.Update on rollback")
			}
		}); err != nil {
			return 0, err
		}
	}

	return id, nil
}

func (im *impl) CancelOffer(c bCtx.Ctx, caller domain.Address, id domain.OfferId) error {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	o, err := im.offerRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if !o.Proposer.Equals(caller) {
		return domain.ErrNotOwner
	}
	if o.Status != offer.StatusActive {
		return domain.ErrOfferNotActive
	}

	t := txn.New()
	cancelled := *o
	cancelled.Status = offer.StatusCancelled
	if err := t.Do(func() error {
		return im.offerRepo.Update(c, &cancelled)
	}, func() {
		if err := im.offerRepo.Update(c, o); err != nil {
			c.WithFields(log.Fields{"err": err, "offerId": id}).Error("failed to offerRepo.Update on rollback")
		}
	}); err != nil {
		t.Rollback()
		return err
	}

	if err := im.releaseItems(c, t, o.ItemLotIds, ""); err != nil {
		t.Rollback()
		return err
	}

	// everything escrowed at creation goes back: both value channels and
	// the offer commission
	if domain.IsPositive(o.TokenAmount) {
		if err := im.escrowUC.ReleaseValue(c, t, o.PayToken, o.Proposer, o.TokenAmount); err != nil {
			t.Rollback()
			return err
		}
	}
	if domain.IsPositive(o.NativeAmount) {
		if err := im.escrowUC.ReleaseValue(c, t, domain.NativeToken, o.Proposer, o.NativeAmount); err != nil {
			t.Rollback()
			return err
		}
	}
	if domain.IsPositive(o.CommissionPaid) {
		if err := im.escrowUC.ReleaseValue(c, t, domain.NativeToken, o.Proposer, o.CommissionPaid); err != nil {
			t.Rollback()
			return err
		}
	}

	if err := t.Commit(); err != nil {
		c.WithFields(log.Fields{"err": err, "offerId": id}).Error("failed to settle cancelOffer")
		return err
	}
	return nil
}

func (im *impl) ChooseOffer(c bCtx.Ctx, caller domain.Address, lotId domain.LotId, id domain.OfferId) error {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	target, err := im.lotRepo.FindOne(c, lotId)
	if err != nil {
		return err
	}
	if !target.Owner.Equals(caller) {
		return domain.ErrNotOwner
	}
	if target.IsEmpty() {
		return domain.ErrInvalidState
	}
	if target.IsEncumbered() {
		return domain.ErrItemLotEncumbered
	}

	o, err := im.offerRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if o.LotId != lotId {
		return domain.ErrInvalidParameter
	}
	if o.Status != offer.StatusActive {
		return domain.ErrOfferNotActive
	}

	settings, err := im.marketRepo.Get(c)
	if err != nil {
		return err
	}
	col, err := im.collectionRepo.FindOne(c, target.Asset.ContractAddress)
	if err != nil {
		return err
	}

	gross := o.TokenAmount
	token := o.PayToken
	if domain.IsPositive(o.NativeAmount) {
		gross = o.NativeAmount
		token = domain.NativeToken
	}

	sellerNet, marketCut, collectionCut := commission.Split(gross, settings.Commission, col.Commission, !col.Owner.IsEmpty())
	if settings.Wallet.IsEmpty() {
		sellerNet = new(big.Int).Add(sellerNet, marketCut)
		marketCut = new(big.Int)
	}

	seller := target.Owner

	t := txn.New()
	chosen := *o
	chosen.Status = offer.StatusChosen
	if err := t.Do(func() error {
		return im.offerRepo.Update(c, &chosen)
	}, func() {
		if err := im.offerRepo.Update(c, o); err != nil {
			c.WithFields(log.Fields{"err": err, "offerId": id}).Error("failed to offerRepo.Update on rollback")
		}
	}); err != nil {
		t.Rollback()
		return err
	}

	// the offered items change hands to the former lot owner; they stay
	// custodied under their own lots
	if err := im.releaseItems(c, t, o.ItemLotIds, seller); err != nil {
		t.Rollback()
		return err
	}

	consumed := *target
	consumed.Owner = domain.EmptyAddress
	consumed.Amount = new(big.Int)
	consumed.Selling = false
	consumed.OpenForOffers = false
	consumed.Price = lot.Price{PayToken: target.Price.PayToken, BuyerPrice: new(big.Int), SellerPrice: sellerNet}
	if err := t.Do(func() error {
		return im.lotRepo.Update(c, &consumed)
	}, func() {
		if err := im.lotRepo.Update(c, target); err != nil {
			c.WithFields(log.Fields{"err": err, "lotId": lotId}).Error("failed to lotRepo.Update on rollback")
		}
	}); err != nil {
		t.Rollback()
		return err
	}

	if domain.IsPositive(gross) {
		if err := im.escrowUC.ReleaseValue(c, t, token, seller, sellerNet); err != nil {
			t.Rollback()
			return err
		}
		if domain.IsPositive(marketCut) {
			if err := im.escrowUC.ReleaseValue(c, t, token, settings.Wallet, marketCut); err != nil {
				t.Rollback()
				return err
			}
		}
		if domain.IsPositive(collectionCut) {
			if err := im.escrowUC.ReleaseValue(c, t, token, col.Owner, collectionCut); err != nil {
				t.Rollback()
				return err
			}
		}
	}

	// the chosen offer's commission stays with the platform; with no
	// platform wallet configured it folds to the seller like the market cut
	if domain.IsPositive(o.CommissionPaid) {
		commissionTo := settings.Wallet
		if commissionTo.IsEmpty() {
			commissionTo = seller
		}
		if err := im.escrowUC.ReleaseValue(c, t, domain.NativeToken, commissionTo, o.CommissionPaid); err != nil {
			t.Rollback()
			return err
		}
	}

	if err := im.escrowUC.Release(c, t, target.CustodyId, o.Proposer, target.Amount); err != nil {
		t.Rollback()
		return err
	}

	if err := t.Commit(); err != nil {
		c.WithFields(log.Fields{"err": err, "offerId": id, "lotId": lotId}).Error("failed to settle chooseOffer")
		return err
	}

	c.WithFields(log.Fields{
		"lotId":    lotId,
		"offerId":  id,
		"proposer": o.Proposer,
		"seller":   seller,
	}).Info("offer chosen")
	return nil
}

// releaseItems clears the encumbrance on an offer's item lots. A
// non-empty newOwner also hands the lots over, as happens on acceptance.
func (im *impl) releaseItems(c bCtx.Ctx, t *txn.Txn, itemLotIds []domain.LotId, newOwner domain.Address) error {
	for _, itemId := range itemLotIds {
		item, err := im.lotRepo.FindOne(c, itemId)
		if err != nil {
			return err
		}
		released := *item
		released.EncumberedBy = 0
		if !newOwner.IsEmpty() {
			released.Owner = newOwner.ToLower()
		}
		if err := t.Do(func() error {
			return im.lotRepo.Update(c, &released)
		}, func() {
			if err := im.lotRepo.Update(c, item); err != nil {
				c.WithFields(log.Fields{"err": err, "lotId": itemId}).Error("failed to lotRepo.Update on rollback")
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

func (im *impl) GetOffer(c bCtx.Ctx, id domain.OfferId) (*offer.Offer, error) {
	return im.offerRepo.FindOne(c, id)
}

func (im *impl) GetOffersByLot(c bCtx.Ctx, lotId domain.LotId) ([]*offer.Offer, error) {
	return im.offerRepo.FindAll(c, offer.WithLotId(lotId))
}

func (im *impl) GetOffersByProposer(c bCtx.Ctx, proposer domain.Address) ([]*offer.Offer, error) {
	return im.offerRepo.FindAll(c, offer.WithProposer(proposer))
}
