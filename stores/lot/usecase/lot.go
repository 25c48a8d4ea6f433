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
)

type LotUseCaseCfg struct {
	LotRepo        lot.Repo
	CollectionRepo collection.Repo
	MarketRepo     market.Repo
	EscrowUC       escrow.UseCase
	Clock          clock.Clock

	// SettleMu serializes every mutating settlement operation; the lot
	// ledger and the offer engine share one.
	SettleMu *sync.Mutex
}

type impl struct {
	lotRepo        lot.Repo
	collectionRepo collection.Repo
	marketRepo     market.Repo
	escrowUC       escrow.UseCase
	clock          clock.Clock
	settleMu       *sync.Mutex
}

func New(cfg *LotUseCaseCfg) lot.UseCase {
	return &impl{
		lotRepo:        cfg.LotRepo,
		collectionRepo: cfg.CollectionRepo,
		marketRepo:     cfg.MarketRepo,
		escrowUC:       cfg.EscrowUC,
		clock:          cfg.Clock,
		settleMu:       cfg.SettleMu,
	}
}

func (im *impl) CreateLot(c bCtx.Ctx, caller domain.Address, p lot.CreateLotParams) (domain.LotId, error) {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	if !domain.IsPositive(p.Amount) || p.Asset.ContractAddress.IsEmpty() {
		return 0, domain.ErrInvalidParameter
	}
	if !p.SaleMode.Valid() {
		return 0, domain.ErrInvalidParameter
	}

	t := txn.New()
	custodyId, err := im.escrowUC.Deposit(c, t, caller, p.Asset, p.Amount)
	if err != nil {
		t.Rollback()
		return 0, err
	}

	var id domain.LotId
	if err := t.Do(func() error {
		id, err = im.lotRepo.Create(c, &lot.Lot{
			Owner:     caller,
			Asset:     p.Asset,
			Amount:    p.Amount,
			SaleMode:  p.SaleMode,
			CustodyId: custodyId,
		})
		return err
	}, func() {
		if err := im.lotRepo.Delete(c, id); err != nil {
			c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to lotRepo.Delete on rollback")
		}
	}); err != nil {
		t.Rollback()
		c.WithFields(log.Fields{"err": err}).Error("failed to lotRepo.Create")
		return 0, err
	}

	if err := t.Commit(); err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to settle createLot")
		return 0, err
	}
	return id, nil
}

func (im *impl) Sell(c bCtx.Ctx, caller domain.Address, id domain.LotId, p lot.SellParams) error {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	l, err := im.lotRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if !l.Owner.Equals(caller) {
		return domain.ErrNotOwner
	}
	if l.IsEmpty() {
		return domain.ErrInvalidState
	}
	if l.IsEncumbered() {
		return domain.ErrItemLotEncumbered
	}
	if l.OnAuction() {
		return domain.ErrAlreadySelling
	}

	now := im.clock.Now()

	// no re-listing a live sale
	if l.Selling && domain.IsPositive(l.Price.BuyerPrice) && !now.Before(l.SellStart) {
		return domain.ErrAlreadySelling
	}

	if !domain.IsPositive(p.BuyerPrice) {
		return domain.ErrInvalidParameter
	}
	if supported, err := im.supportsPaymentToken(c, l.Asset.ContractAddress, p.PayToken); err != nil {
		return err
	} else if !supported {
		return domain.ErrUnsupportedPaymentToken
	}

	// a start date in the past is clamped to now, not rejected
	start := p.StartDate
	if start.Before(now) {
		start = now
	}

	l.Selling = true
	l.OpenForOffers = p.OpenForOffers
	l.SellStart = start
	l.Price = lot.Price{
		PayToken:    p.PayToken.ToLower(),
		BuyerPrice:  p.BuyerPrice,
		SellerPrice: new(big.Int),
	}
	if err := im.lotRepo.Update(c, l); err != nil {
		c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to lotRepo.Update")
		return err
	}
	return nil
}

func (im *impl) Buy(c bCtx.Ctx, caller domain.Address, id domain.LotId) error {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	l, err := im.lotRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if !l.Selling || l.IsEmpty() || im.clock.Now().Before(l.SellStart) {
		return domain.ErrNotSellingOrNotStarted
	}
	if l.IsEncumbered() {
		return domain.ErrItemLotEncumbered
	}

	settings, err := im.marketRepo.Get(c)
	if err != nil {
		return err
	}
	col, err := im.collectionRepo.FindOne(c, l.Asset.ContractAddress)
	if err != nil {
		return err
	}

	gross := l.Price.BuyerPrice
	sellerNet, marketCut, collectionCut := commission.Split(gross, settings.Commission, col.Commission, !col.Owner.IsEmpty())
	if settings.Wallet.IsEmpty() {
		// unset market wallet folds the cut back to the seller
		sellerNet = new(big.Int).Add(sellerNet, marketCut)
		marketCut = new(big.Int)
	}

	seller := l.Owner
	token := l.Price.PayToken

	t := txn.New()
	if err := im.escrowUC.EscrowValue(c, t, caller, token, gross); err != nil {
		t.Rollback()
		return err
	}

	sold := *l
	sold.Owner = domain.EmptyAddress
	sold.Amount = new(big.Int)
	sold.Selling = false
	sold.OpenForOffers = false
	sold.Price.BuyerPrice = new(big.Int)
	sold.Price.SellerPrice = sellerNet
	if err := t.Do(func() error {
		return im.lotRepo.Update(c, &sold)
	}, func() {
		if err := im.lotRepo.Update(c, l); err != nil {
			c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to lotRepo.Update on rollback")
		}
	}); err != nil {
		t.Rollback()
		return err
	}

	if err := im.disburseValue(c, t, token, seller, sellerNet, settings.Wallet, marketCut, col.Owner, collectionCut); err != nil {
		t.Rollback()
		return err
	}
	if err := im.escrowUC.Release(c, t, l.CustodyId, caller, l.Amount); err != nil {
		t.Rollback()
		return err
	}

	if err := t.Commit(); err != nil {
		c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to settle buy")
		return err
	}

	c.WithFields(log.Fields{
		"lotId":  id,
		"buyer":  caller,
		"seller": seller,
		"gross":  gross.String(),
	}).Info("lot sold")
	return nil
}

func (im *impl) StartAuction(c bCtx.Ctx, caller domain.Address, id domain.LotId, p lot.StartAuctionParams) error {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	l, err := im.lotRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if !l.Owner.Equals(caller) {
		return domain.ErrNotOwner
	}
	if l.IsEmpty() {
		return domain.ErrInvalidState
	}
	if l.IsEncumbered() {
		return domain.ErrItemLotEncumbered
	}
	if l.OnAuction() || l.Selling {
		return domain.ErrAlreadySelling
	}

	now := im.clock.Now()
	settings, err := im.marketRepo.Get(c)
	if err != nil {
		return err
	}

	start := p.Start
	if start.Before(now) {
		start = now
	}
	if !p.End.After(start) {
		return domain.ErrInvalidParameter
	}
	if start.After(now.Add(settings.MaxAuctionDelay)) {
		return domain.ErrInvalidParameter
	}
	if !p.StepBps.Valid() {
		return domain.ErrInvalidParameter
	}
	if !domain.IsPositive(p.StartPrice) {
		return domain.ErrInvalidParameter
	}
	if supported, err := im.supportsPaymentToken(c, l.Asset.ContractAddress, p.PayToken); err != nil {
		return err
	} else if !supported {
		return domain.ErrUnsupportedPaymentToken
	}

	l.Auction = &lot.Auction{
		Start:    start,
		End:      p.End,
		StepBps:  p.StepBps,
		NextStep: p.StartPrice,
	}
	l.Price = lot.Price{
		PayToken:    p.PayToken.ToLower(),
		BuyerPrice:  new(big.Int),
		SellerPrice: new(big.Int),
	}
	if err := im.lotRepo.Update(c, l); err != nil {
		c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to lotRepo.Update")
		return err
	}
	return nil
}

func (im *impl) MakeBid(c bCtx.Ctx, caller domain.Address, id domain.LotId, amount *big.Int) error {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	l, err := im.lotRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	now := im.clock.Now()
	if !l.OnAuction() || l.IsEmpty() || now.Before(l.Auction.Start) || !now.Before(l.Auction.End) {
		return domain.ErrLotNotOnAuction
	}
	if amount == nil || amount.Cmp(l.Auction.NextStep) < 0 {
		return domain.ErrInsufficientPayment
	}

	token := l.Price.PayToken
	prevBid := l.Price.BuyerPrice
	prevBidder := l.Auction.LastBidder
	hadBid := l.Auction.HasBid

	t := txn.New()
	if err := im.escrowUC.EscrowValue(c, t, caller, token, amount); err != nil {
		t.Rollback()
		return err
	}

	updated := *l
	auction := *l.Auction
	auction.LastBidder = caller.ToLower()
	auction.HasBid = true
	auction.NextStep = nextStep(amount, l.Auction.StepBps)
	updated.Auction = &auction
	updated.Price.BuyerPrice = amount
	if err := t.Do(func() error {
		return im.lotRepo.Update(c, &updated)
	}, func() {
		if err := im.lotRepo.Update(c, l); err != nil {
			c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to lotRepo.Update on rollback")
		}
	}); err != nil {
		t.Rollback()
		return err
	}

	// the outbid bidder gets their full prior bid back
	if hadBid {
		if err := im.escrowUC.ReleaseValue(c, t, token, prevBidder, prevBid); err != nil {
			t.Rollback()
			return err
		}
	}

	if err := t.Commit(); err != nil {
		c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to settle bid")
		return err
	}
	return nil
}

func (im *impl) EndAuction(c bCtx.Ctx, caller domain.Address, id domain.LotId) error {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	l, err := im.lotRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if !l.OnAuction() || l.IsEmpty() {
		return domain.ErrLotNotOnAuction
	}
	if im.clock.Now().Before(l.Auction.End) {
		return domain.ErrAuctionNotEnded
	}
	if !l.Auction.HasBid {
		return domain.ErrInvalidState
	}

	settings, err := im.marketRepo.Get(c)
	if err != nil {
		return err
	}
	col, err := im.collectionRepo.FindOne(c, l.Asset.ContractAddress)
	if err != nil {
		return err
	}

	gross := l.Price.BuyerPrice
	sellerNet, marketCut, collectionCut := commission.Split(gross, settings.Commission, col.Commission, !col.Owner.IsEmpty())
	if settings.Wallet.IsEmpty() {
		sellerNet = new(big.Int).Add(sellerNet, marketCut)
		marketCut = new(big.Int)
	}

	seller := l.Owner
	winner := l.Auction.LastBidder
	token := l.Price.PayToken

	t := txn.New()
	settled := *l
	settled.Owner = domain.EmptyAddress
	settled.Amount = new(big.Int)
	settled.Auction = nil
	settled.Price.BuyerPrice = new(big.Int)
	settled.Price.SellerPrice = sellerNet
	if err := t.Do(func() error {
		return im.lotRepo.Update(c, &settled)
	}, func() {
		if err := im.lotRepo.Update(c, l); err != nil {
			c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to lotRepo.Update on rollback")
		}
	}); err != nil {
		t.Rollback()
		return err
	}

	if err := im.disburseValue(c, t, token, seller, sellerNet, settings.Wallet, marketCut, col.Owner, collectionCut); err != nil {
		t.Rollback()
		return err
	}
	if err := im.escrowUC.Release(c, t, l.CustodyId, winner, l.Amount); err != nil {
		t.Rollback()
		return err
	}

	if err := t.Commit(); err != nil {
		c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to settle auction")
		return err
	}

	c.WithFields(log.Fields{
		"lotId":  id,
		"winner": winner,
		"seller": seller,
		"gross":  gross.String(),
	}).Info("auction settled")
	return nil
}

func (im *impl) FinishAuction(c bCtx.Ctx, caller domain.Address, id domain.LotId) error {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	l, err := im.lotRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if !l.Owner.Equals(caller) {
		return domain.ErrNotOwner
	}
	if !l.OnAuction() || l.IsEmpty() {
		return domain.ErrLotNotOnAuction
	}

	// the seller may back out only while nobody has bid
	if l.Auction.HasBid {
		return domain.ErrLotHasBid
	}

	t := txn.New()
	returned := *l
	returned.Owner = domain.EmptyAddress
	returned.Amount = new(big.Int)
	returned.Auction = nil
	returned.Price = lot.Price{BuyerPrice: new(big.Int), SellerPrice: new(big.Int)}
	if err := t.Do(func() error {
		return im.lotRepo.Update(c, &returned)
	}, func() {
		if err := im.lotRepo.Update(c, l); err != nil {
			c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to lotRepo.Update on rollback")
		}
	}); err != nil {
		t.Rollback()
		return err
	}
	if err := im.escrowUC.Release(c, t, l.CustodyId, l.Owner, l.Amount); err != nil {
		t.Rollback()
		return err
	}

	if err := t.Commit(); err != nil {
		c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to settle finishAuction")
		return err
	}
	return nil
}

func (im *impl) GetBack(c bCtx.Ctx, caller domain.Address, id domain.LotId) error {
	im.settleMu.Lock()
	defer im.settleMu.Unlock()

	l, err := im.lotRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if !l.Owner.Equals(caller) {
		return domain.ErrNotOwner
	}
	if l.IsEmpty() || l.OnAuction() {
		return domain.ErrInvalidState
	}
	if l.IsEncumbered() {
		return domain.ErrItemLotEncumbered
	}

	t := txn.New()
	returned := *l
	returned.Owner = domain.EmptyAddress
	returned.Amount = new(big.Int)
	returned.Selling = false
	returned.OpenForOffers = false
	returned.Price = lot.Price{BuyerPrice: new(big.Int), SellerPrice: new(big.Int)}
	if err := t.Do(func() error {
		return im.lotRepo.Update(c, &returned)
	}, func() {
		if err := im.lotRepo.Update(c, l); err != nil {
			c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to lotRepo.Update on rollback")
		}
	}); err != nil {
		t.Rollback()
		return err
	}
	if err := im.escrowUC.Release(c, t, l.CustodyId, l.Owner, l.Amount); err != nil {
		t.Rollback()
		return err
	}

	if err := t.Commit(); err != nil {
		c.WithFields(log.Fields{"err": err, "lotId": id}).Error("failed to settle getBack")
		return err
	}
	return nil
}

func (im *impl) GetLot(c bCtx.Ctx, id domain.LotId) (*lot.Lot, error) {
	return im.lotRepo.FindOne(c, id)
}

func (im *impl) GetLotsByOwner(c bCtx.Ctx, owner domain.Address) ([]*lot.Lot, error) {
	return im.lotRepo.FindAll(c, lot.WithOwner(owner))
}

func (im *impl) Count(c bCtx.Ctx) (int64, error) {
	return im.lotRepo.Count(c)
}

func (im *impl) supportsPaymentToken(c bCtx.Ctx, contract, token domain.Address) (bool, error) {
	if token.IsNative() {
		return true, nil
	}
	col, err := im.collectionRepo.FindOne(c, contract)
	if err != nil {
		return false, err
	}
	return col.SupportsPaymentToken(token), nil
}

// disburseValue pays a settled gross out of escrow: net to the seller,
// cuts to the market wallet and the collection owner.
func (im *impl) disburseValue(c bCtx.Ctx, t *txn.Txn, token, seller domain.Address, sellerNet *big.Int, marketWallet domain.Address, marketCut *big.Int, collectionOwner domain.Address, collectionCut *big.Int) error {
	if err := im.escrowUC.ReleaseValue(c, t, token, seller, sellerNet); err != nil {
		return err
	}
	if domain.IsPositive(marketCut) {
		if err := im.escrowUC.ReleaseValue(c, t, token, marketWallet, marketCut); err != nil {
			return err
		}
	}
	if domain.IsPositive(collectionCut) {
		if err := im.escrowUC.ReleaseValue(c, t, token, collectionOwner, collectionCut); err != nil {
			return err
		}
	}
	return nil
}

// nextStep ratchets the minimum next bid: bid + bid*step/1000, with a
// one-wei floor when the step truncates to zero.
func nextStep(bid *big.Int, stepBps domain.BasisPoints) *big.Int {
	inc := domain.TakeBps(bid, stepBps)
	if inc.Sign() == 0 {
		inc = domain.Big1
	}
	return new(big.Int).Add(bid, inc)
}
