package usecase

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/settlement/base/clock"
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/collection"
	"github.com/x-xyz/settlement/domain/escrow"
	"github.com/x-xyz/settlement/domain/lot"
	"github.com/x-xyz/settlement/domain/market"
	"github.com/x-xyz/settlement/service/ledger"
	collection_repository "github.com/x-xyz/settlement/stores/collection/repository"
	escrow_repository "github.com/x-xyz/settlement/stores/escrow/repository"
	escrow_usecase "github.com/x-xyz/settlement/stores/escrow/usecase"
	lot_repository "github.com/x-xyz/settlement/stores/lot/repository"
	market_repository "github.com/x-xyz/settlement/stores/market/repository"
)

var mockCtx = ctx.Background()

const (
	engine       = domain.Address("0x00000000000000000000000000000000000000e9")
	seller       = domain.Address("0x0000000000000000000000000000000000000a11")
	buyer        = domain.Address("0x0000000000000000000000000000000000000b0b")
	rival        = domain.Address("0x0000000000000000000000000000000000000ca1")
	marketWallet = domain.Address("0x00000000000000000000000000000000000000fe")
	contract     = domain.Address("0x0000000000000000000000000000000000000c01")
)

var e18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func mulE18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), e18)
}

type lotSuite struct {
	suite.Suite

	assetLedger *ledger.Asset
	valueLedger *ledger.Value
	lotRepo     lot.Repo
	escrowUC    escrow.UseCase
	clock       *clock.Fake
	im          lot.UseCase
}

func TestLotSuite(t *testing.T) {
	suite.Run(t, new(lotSuite))
}

func (s *lotSuite) SetupTest() {
	s.assetLedger = ledger.NewAsset()
	s.valueLedger = ledger.NewValue()
	s.lotRepo = lot_repository.NewLotRepo()
	s.clock = clock.NewFake(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	collectionRepo := collection_repository.NewCollectionRepo()
	s.NoError(collectionRepo.Create(mockCtx, &collection.Collection{
		Address:          contract,
		CanTransferOnAdd: true,
	}))

	settingsRepo := market_repository.NewSettingsRepo(market.Settings{
		Commission:      150,
		OfferCommission: new(big.Int),
		Wallet:          marketWallet,
		MaxAuctionDelay: 30 * 24 * time.Hour,
	})

	s.escrowUC = escrow_usecase.New(&escrow_usecase.EscrowUseCaseCfg{
		CustodyRepo:    escrow_repository.NewCustodyRepo(),
		CollectionRepo: collectionRepo,
		ValueBook:      escrow_repository.NewValueBook(),
		AssetLedger:    s.assetLedger,
		ValueLedger:    s.valueLedger,
		Engine:         engine,
	})

	s.im = New(&LotUseCaseCfg{
		LotRepo:        s.lotRepo,
		CollectionRepo: collectionRepo,
		MarketRepo:     settingsRepo,
		EscrowUC:       s.escrowUC,
		Clock:          s.clock,
		SettleMu:       &sync.Mutex{},
	})
}

func (s *lotSuite) asset() domain.AssetRef {
	return domain.AssetRef{ContractAddress: contract, TokenId: "1", IsFungible: true}
}

func (s *lotSuite) createLot(amount int64, mode lot.SaleMode) domain.LotId {
	s.assetLedger.Mint(mockCtx, s.asset(), seller, big.NewInt(amount))
	s.assetLedger.SetApprovalForAll(mockCtx, contract, seller, engine, true)
	id, err := s.im.CreateLot(mockCtx, seller, lot.CreateLotParams{
		Asset:    s.asset(),
		Amount:   big.NewInt(amount),
		SaleMode: mode,
	})
	s.Require().NoError(err)
	return id
}

func (s *lotSuite) TestCreateLotRequiresApproval() {
	s.assetLedger.Mint(mockCtx, s.asset(), seller, big.NewInt(1))

	_, err := s.im.CreateLot(mockCtx, seller, lot.CreateLotParams{
		Asset:    s.asset(),
		Amount:   big.NewInt(1),
		SaleMode: lot.SaleModeFixedPrice,
	})
	s.ErrorIs(err, domain.ErrInsufficientAllowance)

	// nothing was recorded
	count, err := s.im.Count(mockCtx)
	s.NoError(err)
	s.Equal(int64(0), count)
}

func (s *lotSuite) TestSellAndBuy() {
	id := s.createLot(5, lot.SaleModeFixedPrice)

	s.NoError(s.im.Sell(mockCtx, seller, id, lot.SellParams{
		PayToken:   domain.NativeToken,
		BuyerPrice: mulE18(200),
	}))

	s.valueLedger.Mint(mockCtx, domain.NativeToken, buyer, mulE18(200))
	s.NoError(s.im.Buy(mockCtx, buyer, id))

	// lot zeroes out and records the seller's net
	l, err := s.im.GetLot(mockCtx, id)
	s.NoError(err)
	s.True(l.IsEmpty())
	s.True(l.Owner.Equals(domain.EmptyAddress))
	s.False(l.Selling)
	s.Equal(mulE18(170).String(), l.Price.SellerPrice.String())

	// asset to the buyer, value split between seller and market wallet
	buyerAssets, err := s.assetLedger.BalanceOf(mockCtx, s.asset(), buyer)
	s.NoError(err)
	s.Equal("5", buyerAssets.String())

	sellerValue, err := s.valueLedger.BalanceOf(mockCtx, domain.NativeToken, seller)
	s.NoError(err)
	s.Equal(mulE18(170).String(), sellerValue.String())

	walletValue, err := s.valueLedger.BalanceOf(mockCtx, domain.NativeToken, marketWallet)
	s.NoError(err)
	s.Equal(mulE18(30).String(), walletValue.String())
}

func (s *lotSuite) TestSellRejectsRelistingLiveSale() {
	id := s.createLot(1, lot.SaleModeFixedPrice)

	s.NoError(s.im.Sell(mockCtx, seller, id, lot.SellParams{
		PayToken:   domain.NativeToken,
		BuyerPrice: mulE18(10),
	}))

	err := s.im.Sell(mockCtx, seller, id, lot.SellParams{
		PayToken:   domain.NativeToken,
		BuyerPrice: mulE18(20),
	})
	s.ErrorIs(err, domain.ErrAlreadySelling)
}

func (s *lotSuite) TestSellClampsPastStartDate() {
	id := s.createLot(1, lot.SaleModeFixedPrice)

	s.NoError(s.im.Sell(mockCtx, seller, id, lot.SellParams{
		PayToken:   domain.NativeToken,
		BuyerPrice: mulE18(10),
		StartDate:  s.clock.Now().Add(-time.Hour),
	}))

	l, err := s.im.GetLot(mockCtx, id)
	s.NoError(err)
	s.Equal(s.clock.Now(), l.SellStart)
}

func (s *lotSuite) TestBuyBeforeStartDate() {
	id := s.createLot(1, lot.SaleModeFixedPrice)

	s.NoError(s.im.Sell(mockCtx, seller, id, lot.SellParams{
		PayToken:   domain.NativeToken,
		BuyerPrice: mulE18(10),
		StartDate:  s.clock.Now().Add(time.Hour),
	}))

	s.valueLedger.Mint(mockCtx, domain.NativeToken, buyer, mulE18(10))
	err := s.im.Buy(mockCtx, buyer, id)
	s.ErrorIs(err, domain.ErrNotSellingOrNotStarted)

	s.clock.Advance(time.Hour)
	s.NoError(s.im.Buy(mockCtx, buyer, id))
}

func (s *lotSuite) TestSellRejectsUnsupportedPayToken() {
	id := s.createLot(1, lot.SaleModeFixedPrice)

	err := s.im.Sell(mockCtx, seller, id, lot.SellParams{
		PayToken:   "0x0000000000000000000000000000000000000f01",
		BuyerPrice: mulE18(10),
	})
	s.ErrorIs(err, domain.ErrUnsupportedPaymentToken)
}

func (s *lotSuite) TestBuyFailureChangesNothing() {
	id := s.createLot(1, lot.SaleModeFixedPrice)

	s.NoError(s.im.Sell(mockCtx, seller, id, lot.SellParams{
		PayToken:   domain.NativeToken,
		BuyerPrice: mulE18(10),
	}))

	// the buyer cannot cover the price
	s.valueLedger.Mint(mockCtx, domain.NativeToken, buyer, mulE18(5))
	err := s.im.Buy(mockCtx, buyer, id)
	s.ErrorIs(err, domain.ErrInsufficientBalance)

	l, err := s.im.GetLot(mockCtx, id)
	s.NoError(err)
	s.True(l.Selling)
	s.True(l.Owner.Equals(seller))
	s.Equal(mulE18(10).String(), l.Price.BuyerPrice.String())
}

func (s *lotSuite) startAuction(id domain.LotId) {
	s.Require().NoError(s.im.StartAuction(mockCtx, seller, id, lot.StartAuctionParams{
		Start:      s.clock.Now(),
		End:        s.clock.Now().Add(24 * time.Hour),
		StepBps:    150,
		PayToken:   domain.NativeToken,
		StartPrice: mulE18(100),
	}))
}

func (s *lotSuite) TestAuctionBiddingRatchet() {
	id := s.createLot(1, lot.SaleModeAuction)
	s.startAuction(id)

	s.valueLedger.Mint(mockCtx, domain.NativeToken, buyer, mulE18(200))
	s.valueLedger.Mint(mockCtx, domain.NativeToken, rival, mulE18(200))

	// below the opening price
	err := s.im.MakeBid(mockCtx, buyer, id, mulE18(99))
	s.ErrorIs(err, domain.ErrInsufficientPayment)

	s.NoError(s.im.MakeBid(mockCtx, buyer, id, mulE18(100)))

	l, err := s.im.GetLot(mockCtx, id)
	s.NoError(err)
	s.Equal(mulE18(115).String(), l.Auction.NextStep.String())
	s.True(l.Auction.LastBidder.Equals(buyer))

	// below the ratcheted minimum
	err = s.im.MakeBid(mockCtx, rival, id, mulE18(114))
	s.ErrorIs(err, domain.ErrInsufficientPayment)

	// the outbid bidder gets the full prior bid back
	s.NoError(s.im.MakeBid(mockCtx, rival, id, mulE18(115)))

	buyerBalance, err := s.valueLedger.BalanceOf(mockCtx, domain.NativeToken, buyer)
	s.NoError(err)
	s.Equal(mulE18(200).String(), buyerBalance.String())
}

func (s *lotSuite) TestEndAuctionSettlesToWinner() {
	id := s.createLot(1, lot.SaleModeAuction)
	s.startAuction(id)

	s.valueLedger.Mint(mockCtx, domain.NativeToken, buyer, mulE18(100))
	s.NoError(s.im.MakeBid(mockCtx, buyer, id, mulE18(100)))

	err := s.im.EndAuction(mockCtx, rival, id)
	s.ErrorIs(err, domain.ErrAuctionNotEnded)

	s.clock.Advance(25 * time.Hour)
	s.NoError(s.im.EndAuction(mockCtx, rival, id))

	winnerAssets, err := s.assetLedger.BalanceOf(mockCtx, s.asset(), buyer)
	s.NoError(err)
	s.Equal("1", winnerAssets.String())

	sellerValue, err := s.valueLedger.BalanceOf(mockCtx, domain.NativeToken, seller)
	s.NoError(err)
	s.Equal(mulE18(85).String(), sellerValue.String())

	walletValue, err := s.valueLedger.BalanceOf(mockCtx, domain.NativeToken, marketWallet)
	s.NoError(err)
	s.Equal(mulE18(15).String(), walletValue.String())
}

func (s *lotSuite) TestEndAuctionWithoutBids() {
	id := s.createLot(1, lot.SaleModeAuction)
	s.startAuction(id)

	s.clock.Advance(25 * time.Hour)
	err := s.im.EndAuction(mockCtx, seller, id)
	s.ErrorIs(err, domain.ErrInvalidState)
}

func (s *lotSuite) TestFinishAuctionOnlyWithoutBids() {
	id := s.createLot(1, lot.SaleModeAuction)
	s.startAuction(id)

	s.valueLedger.Mint(mockCtx, domain.NativeToken, buyer, mulE18(100))
	s.NoError(s.im.MakeBid(mockCtx, buyer, id, mulE18(100)))

	err := s.im.FinishAuction(mockCtx, seller, id)
	s.ErrorIs(err, domain.ErrLotHasBid)
}

func (s *lotSuite) TestFinishAuctionReturnsAsset() {
	id := s.createLot(3, lot.SaleModeAuction)
	s.startAuction(id)

	s.NoError(s.im.FinishAuction(mockCtx, seller, id))

	sellerAssets, err := s.assetLedger.BalanceOf(mockCtx, s.asset(), seller)
	s.NoError(err)
	s.Equal("3", sellerAssets.String())

	l, err := s.im.GetLot(mockCtx, id)
	s.NoError(err)
	s.True(l.IsEmpty())
	s.False(l.OnAuction())
}

func (s *lotSuite) TestStartAuctionValidations() {
	id := s.createLot(1, lot.SaleModeAuction)

	// end before start
	err := s.im.StartAuction(mockCtx, seller, id, lot.StartAuctionParams{
		Start:      s.clock.Now().Add(time.Hour),
		End:        s.clock.Now(),
		StepBps:    150,
		PayToken:   domain.NativeToken,
		StartPrice: mulE18(1),
	})
	s.ErrorIs(err, domain.ErrInvalidParameter)

	// start too far ahead
	err = s.im.StartAuction(mockCtx, seller, id, lot.StartAuctionParams{
		Start:      s.clock.Now().Add(31 * 24 * time.Hour),
		End:        s.clock.Now().Add(32 * 24 * time.Hour),
		StepBps:    150,
		PayToken:   domain.NativeToken,
		StartPrice: mulE18(1),
	})
	s.ErrorIs(err, domain.ErrInvalidParameter)

	// step over the cap
	err = s.im.StartAuction(mockCtx, seller, id, lot.StartAuctionParams{
		Start:      s.clock.Now(),
		End:        s.clock.Now().Add(time.Hour),
		StepBps:    1001,
		PayToken:   domain.NativeToken,
		StartPrice: mulE18(1),
	})
	s.ErrorIs(err, domain.ErrInvalidParameter)
}

func (s *lotSuite) TestGetBackRoundTrip() {
	id := s.createLot(2, lot.SaleModeNone)

	err := s.im.GetBack(mockCtx, buyer, id)
	s.ErrorIs(err, domain.ErrNotOwner)

	s.NoError(s.im.GetBack(mockCtx, seller, id))

	sellerAssets, err := s.assetLedger.BalanceOf(mockCtx, s.asset(), seller)
	s.NoError(err)
	s.Equal("2", sellerAssets.String())

	// the emptied lot no longer belongs to the caller
	err = s.im.GetBack(mockCtx, seller, id)
	s.ErrorIs(err, domain.ErrNotOwner)
}

func (s *lotSuite) TestGetBackRejectedOnAuction() {
	id := s.createLot(1, lot.SaleModeAuction)
	s.startAuction(id)

	err := s.im.GetBack(mockCtx, seller, id)
	s.ErrorIs(err, domain.ErrInvalidState)
}

func (s *lotSuite) TestNextStepFloor() {
	s.Equal("2", nextStep(big.NewInt(1), 150).String())
	s.Equal("115", nextStep(big.NewInt(100), 150).String())
}
