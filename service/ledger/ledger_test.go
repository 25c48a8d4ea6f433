package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
)

var mockCtx = ctx.Background()

type ledgerSuite struct {
	suite.Suite

	asset *Asset
	value *Value
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(ledgerSuite))
}

func (s *ledgerSuite) SetupTest() {
	s.asset = NewAsset()
	s.value = NewValue()
}

func (s *ledgerSuite) TestAssetTransferOwnership() {
	asset := domain.AssetRef{ContractAddress: "0xAAA", TokenId: "1"}
	alice := domain.Address("0xalice")
	bob := domain.Address("0xbob")

	s.asset.Mint(mockCtx, asset, alice, big.NewInt(10))

	s.NoError(s.asset.TransferOwnership(mockCtx, asset, alice, bob, big.NewInt(4)))

	aliceBalance, err := s.asset.BalanceOf(mockCtx, asset, alice)
	s.NoError(err)
	s.Equal("6", aliceBalance.String())

	bobBalance, err := s.asset.BalanceOf(mockCtx, asset, bob)
	s.NoError(err)
	s.Equal("4", bobBalance.String())

	err = s.asset.TransferOwnership(mockCtx, asset, alice, bob, big.NewInt(7))
	s.ErrorIs(err, domain.ErrInsufficientBalance)
}

func (s *ledgerSuite) TestAssetApprovalIsCaseInsensitive() {
	contract := domain.Address("0xAAA")
	alice := domain.Address("0xAlice")
	engine := domain.Address("0xEngine")

	s.asset.SetApprovalForAll(mockCtx, contract, alice, engine, true)

	approved, err := s.asset.IsApprovedForAll(mockCtx, "0xaaa", "0xalice", "0xengine")
	s.NoError(err)
	s.True(approved)
}

func (s *ledgerSuite) TestValueTransfer() {
	token := domain.Address("0xtoken")
	alice := domain.Address("0xalice")
	bob := domain.Address("0xbob")

	s.value.Mint(mockCtx, token, alice, big.NewInt(100))

	s.NoError(s.value.Transfer(mockCtx, token, alice, bob, big.NewInt(30)))

	balance, err := s.value.BalanceOf(mockCtx, token, bob)
	s.NoError(err)
	s.Equal("30", balance.String())

	err = s.value.Transfer(mockCtx, token, alice, bob, big.NewInt(71))
	s.ErrorIs(err, domain.ErrInsufficientBalance)
}

func (s *ledgerSuite) TestValueTransferFromConsumesAllowance() {
	token := domain.Address("0xtoken")
	alice := domain.Address("0xalice")
	engine := domain.Address("0xengine")

	s.value.Mint(mockCtx, token, alice, big.NewInt(100))
	s.value.Approve(mockCtx, token, alice, engine, big.NewInt(50))

	s.NoError(s.value.TransferFrom(mockCtx, token, alice, engine, engine, big.NewInt(40)))

	allowance, err := s.value.Allowance(mockCtx, token, alice, engine)
	s.NoError(err)
	s.Equal("10", allowance.String())

	err = s.value.TransferFrom(mockCtx, token, alice, engine, engine, big.NewInt(20))
	s.ErrorIs(err, domain.ErrInsufficientAllowance)
}

func (s *ledgerSuite) TestValueTransferFromRejectsNative() {
	alice := domain.Address("0xalice")
	engine := domain.Address("0xengine")

	s.value.Mint(mockCtx, domain.NativeToken, alice, big.NewInt(100))

	err := s.value.TransferFrom(mockCtx, domain.NativeToken, alice, engine, engine, big.NewInt(10))
	s.ErrorIs(err, domain.ErrUnsupportedPaymentToken)
}
