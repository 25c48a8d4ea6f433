package usecase

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/txn"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/collection"
	"github.com/x-xyz/settlement/domain/escrow"
	"github.com/x-xyz/settlement/service/ledger"
	collection_repository "github.com/x-xyz/settlement/stores/collection/repository"
	escrow_repository "github.com/x-xyz/settlement/stores/escrow/repository"
)

var mockCtx = ctx.Background()

const (
	engine   = domain.Address("0x00000000000000000000000000000000000000e9")
	alice    = domain.Address("0x0000000000000000000000000000000000000a11")
	bob      = domain.Address("0x0000000000000000000000000000000000000b0b")
	contract = domain.Address("0x0000000000000000000000000000000000000c01")
	payToken = domain.Address("0x0000000000000000000000000000000000000f01")
)

type escrowSuite struct {
	suite.Suite

	assetLedger *ledger.Asset
	valueLedger *ledger.Value
	custodyRepo escrow.Repo
	valueBook   escrow.ValueBook
	im          escrow.UseCase
}

func TestEscrowSuite(t *testing.T) {
	suite.Run(t, new(escrowSuite))
}

func (s *escrowSuite) SetupTest() {
	s.assetLedger = ledger.NewAsset()
	s.valueLedger = ledger.NewValue()
	s.custodyRepo = escrow_repository.NewCustodyRepo()
	s.valueBook = escrow_repository.NewValueBook()

	collectionRepo := collection_repository.NewCollectionRepo()
	s.NoError(collectionRepo.Create(mockCtx, &collection.Collection{
		Address:          contract,
		CanTransferOnAdd: true,
	}))

	s.im = New(&EscrowUseCaseCfg{
		CustodyRepo:    s.custodyRepo,
		CollectionRepo: collectionRepo,
		ValueBook:      s.valueBook,
		AssetLedger:    s.assetLedger,
		ValueLedger:    s.valueLedger,
		Engine:         engine,
	})
}

func (s *escrowSuite) asset() domain.AssetRef {
	return domain.AssetRef{ContractAddress: contract, TokenId: "1", IsFungible: true}
}

func (s *escrowSuite) TestDepositPullsAssetIntoCustody() {
	asset := s.asset()
	s.assetLedger.Mint(mockCtx, asset, alice, big.NewInt(10))
	s.assetLedger.SetApprovalForAll(mockCtx, contract, alice, engine, true)

	t := txn.New()
	id, err := s.im.Deposit(mockCtx, t, alice, asset, big.NewInt(4))
	s.NoError(err)
	s.NoError(t.Commit())

	cu, err := s.im.GetCustody(mockCtx, id)
	s.NoError(err)
	s.Equal("4", cu.Deposited.String())
	s.Equal("4", cu.Outstanding.String())
	s.Equal("0", cu.Disbursed.String())

	engineBalance, err := s.assetLedger.BalanceOf(mockCtx, asset, engine)
	s.NoError(err)
	s.Equal("4", engineBalance.String())
}

func (s *escrowSuite) TestDepositRequiresApproval() {
	asset := s.asset()
	s.assetLedger.Mint(mockCtx, asset, alice, big.NewInt(10))

	t := txn.New()
	_, err := s.im.Deposit(mockCtx, t, alice, asset, big.NewInt(4))
	s.ErrorIs(err, domain.ErrInsufficientAllowance)
	t.Rollback()
}

func (s *escrowSuite) TestDepositRequiresBalance() {
	asset := s.asset()
	s.assetLedger.Mint(mockCtx, asset, alice, big.NewInt(2))
	s.assetLedger.SetApprovalForAll(mockCtx, contract, alice, engine, true)

	t := txn.New()
	_, err := s.im.Deposit(mockCtx, t, alice, asset, big.NewInt(4))
	s.ErrorIs(err, domain.ErrInsufficientBalance)
	t.Rollback()
}

func (s *escrowSuite) TestDepositRejectsUnknownCollection() {
	asset := domain.AssetRef{ContractAddress: "0x0000000000000000000000000000000000000bad", TokenId: "1"}

	t := txn.New()
	_, err := s.im.Deposit(mockCtx, t, alice, asset, big.NewInt(1))
	s.ErrorIs(err, domain.ErrInvalidDeposit)
	t.Rollback()
}

func (s *escrowSuite) TestReleaseKeepsConservation() {
	asset := s.asset()
	s.assetLedger.Mint(mockCtx, asset, alice, big.NewInt(10))
	s.assetLedger.SetApprovalForAll(mockCtx, contract, alice, engine, true)

	t := txn.New()
	id, err := s.im.Deposit(mockCtx, t, alice, asset, big.NewInt(10))
	s.NoError(err)
	s.NoError(t.Commit())

	t2 := txn.New()
	s.NoError(s.im.Release(mockCtx, t2, id, bob, big.NewInt(6)))
	s.NoError(t2.Commit())

	cu, err := s.im.GetCustody(mockCtx, id)
	s.NoError(err)
	s.Equal("10", cu.Deposited.String())
	s.Equal("4", cu.Outstanding.String())
	s.Equal("6", cu.Disbursed.String())

	bobBalance, err := s.assetLedger.BalanceOf(mockCtx, asset, bob)
	s.NoError(err)
	s.Equal("6", bobBalance.String())

	// over-release beyond outstanding is refused
	t3 := txn.New()
	err = s.im.Release(mockCtx, t3, id, bob, big.NewInt(5))
	s.ErrorIs(err, domain.ErrInvalidState)
	t3.Rollback()
}

func (s *escrowSuite) TestEscrowValueNative() {
	s.valueLedger.Mint(mockCtx, domain.NativeToken, alice, big.NewInt(100))

	t := txn.New()
	s.NoError(s.im.EscrowValue(mockCtx, t, alice, domain.NativeToken, big.NewInt(40)))
	s.NoError(t.Commit())

	book, err := s.im.ValueBalance(mockCtx, domain.NativeToken)
	s.NoError(err)
	s.Equal("40", book.String())

	engineBalance, err := s.valueLedger.BalanceOf(mockCtx, domain.NativeToken, engine)
	s.NoError(err)
	s.Equal("40", engineBalance.String())
}

func (s *escrowSuite) TestEscrowValueTokenConsumesAllowance() {
	s.valueLedger.Mint(mockCtx, payToken, alice, big.NewInt(100))
	s.valueLedger.Approve(mockCtx, payToken, alice, engine, big.NewInt(50))

	t := txn.New()
	s.NoError(s.im.EscrowValue(mockCtx, t, alice, payToken, big.NewInt(50)))
	s.NoError(t.Commit())

	allowance, err := s.valueLedger.Allowance(mockCtx, payToken, alice, engine)
	s.NoError(err)
	s.Equal("0", allowance.String())

	// token pulls without allowance fail upfront
	t2 := txn.New()
	err = s.im.EscrowValue(mockCtx, t2, alice, payToken, big.NewInt(10))
	s.ErrorIs(err, domain.ErrInsufficientAllowance)
	t2.Rollback()
}

func (s *escrowSuite) TestEscrowValueZeroIsNoop() {
	t := txn.New()
	s.NoError(s.im.EscrowValue(mockCtx, t, alice, domain.NativeToken, nil))
	s.NoError(s.im.EscrowValue(mockCtx, t, alice, domain.NativeToken, big.NewInt(0)))
	s.NoError(t.Commit())

	book, err := s.im.ValueBalance(mockCtx, domain.NativeToken)
	s.NoError(err)
	s.Equal("0", book.String())
}

func (s *escrowSuite) TestReleaseValueRequiresBookBalance() {
	t := txn.New()
	err := s.im.ReleaseValue(mockCtx, t, domain.NativeToken, bob, big.NewInt(1))
	s.ErrorIs(err, domain.ErrInvalidState)
	t.Rollback()
}

func (s *escrowSuite) TestFailedCommitRestoresBook() {
	s.valueLedger.Mint(mockCtx, domain.NativeToken, alice, big.NewInt(100))

	t := txn.New()
	s.NoError(s.im.EscrowValue(mockCtx, t, alice, domain.NativeToken, big.NewInt(40)))
	// stage a transfer that must fail: the engine cannot pay out more
	// native value than it holds
	t.External(func() error {
		return s.valueLedger.Transfer(mockCtx, domain.NativeToken, engine, bob, big.NewInt(1000))
	}, nil)

	s.Error(t.Commit())

	// the pull was compensated and the book rolled back
	book, err := s.im.ValueBalance(mockCtx, domain.NativeToken)
	s.NoError(err)
	s.Equal("0", book.String())

	aliceBalance, err := s.valueLedger.BalanceOf(mockCtx, domain.NativeToken, alice)
	s.NoError(err)
	s.Equal("100", aliceBalance.String())
}
