package usecase

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/access"
	"github.com/x-xyz/settlement/domain/collection"
	access_repository "github.com/x-xyz/settlement/stores/access/repository"
	access_usecase "github.com/x-xyz/settlement/stores/access/usecase"
	collection_repository "github.com/x-xyz/settlement/stores/collection/repository"
)

var mockCtx = ctx.Background()

const (
	owner    = domain.Address("0x0000000000000000000000000000000000000001")
	admin    = domain.Address("0x0000000000000000000000000000000000000002")
	stranger = domain.Address("0x0000000000000000000000000000000000000bad")
	contract = domain.Address("0x0000000000000000000000000000000000000c01")
	payToken = domain.Address("0x0000000000000000000000000000000000000f01")
)

type collectionSuite struct {
	suite.Suite

	im collection.UseCase
}

func TestCollectionSuite(t *testing.T) {
	suite.Run(t, new(collectionSuite))
}

func (s *collectionSuite) SetupTest() {
	grantsRepo := access_repository.NewGrantsRepo()
	s.NoError(grantsRepo.Grant(mockCtx, owner, access.RoleOwner))
	s.NoError(grantsRepo.Grant(mockCtx, admin, access.RoleCollectionAdmin))

	s.im = New(&CollectionUseCaseCfg{
		CollectionRepo: collection_repository.NewCollectionRepo(),
		AccessControl: access_usecase.New(&access_usecase.AccessUseCaseCfg{
			GrantsRepo: grantsRepo,
		}),
	})
}

func (s *collectionSuite) register(caller domain.Address) error {
	return s.im.Register(mockCtx, caller, &collection.Collection{
		Address:          contract,
		CanTransferOnAdd: true,
		Commission:       50,
	})
}

func (s *collectionSuite) TestRegisterRequiresCollectionAdmin() {
	err := s.register(stranger)
	s.ErrorIs(err, domain.ErrPermissionDenied)

	s.NoError(s.register(admin))

	// the market owner passes every check
	err = s.im.SetOwner(mockCtx, owner, contract, admin)
	s.NoError(err)
}

func (s *collectionSuite) TestRegisterValidations() {
	err := s.im.Register(mockCtx, admin, &collection.Collection{Address: "not-an-address"})
	s.ErrorIs(err, domain.ErrInvalidParameter)

	err = s.im.Register(mockCtx, admin, &collection.Collection{
		Address:    contract,
		Commission: 1001,
	})
	s.ErrorIs(err, domain.ErrInvalidParameter)
}

func (s *collectionSuite) TestSetCommissionCap() {
	s.NoError(s.register(admin))

	err := s.im.SetCommission(mockCtx, owner, contract, 1001)
	s.ErrorIs(err, domain.ErrInvalidParameter)

	s.NoError(s.im.SetCommission(mockCtx, owner, contract, 1000))

	col, err := s.im.Get(mockCtx, contract)
	s.NoError(err)
	s.Equal(domain.BasisPoints(1000), col.Commission)
}

func (s *collectionSuite) TestPaymentTokens() {
	s.NoError(s.register(admin))

	supported, err := s.im.IsPaymentTokenSupported(mockCtx, contract, payToken)
	s.NoError(err)
	s.False(supported)

	// native is always supported
	supported, err = s.im.IsPaymentTokenSupported(mockCtx, contract, domain.NativeToken)
	s.NoError(err)
	s.True(supported)

	s.NoError(s.im.AddPaymentToken(mockCtx, admin, contract, payToken))

	supported, err = s.im.IsPaymentTokenSupported(mockCtx, contract, payToken)
	s.NoError(err)
	s.True(supported)

	// adding twice does not duplicate
	s.NoError(s.im.AddPaymentToken(mockCtx, admin, contract, payToken))
	col, err := s.im.Get(mockCtx, contract)
	s.NoError(err)
	s.Len(col.PaymentTokens, 1)

	s.NoError(s.im.RemovePaymentToken(mockCtx, admin, contract, payToken))

	supported, err = s.im.IsPaymentTokenSupported(mockCtx, contract, payToken)
	s.NoError(err)
	s.False(supported)
}

func (s *collectionSuite) TestIsTradable() {
	tradable, err := s.im.IsTradable(mockCtx, contract)
	s.NoError(err)
	s.False(tradable)

	s.NoError(s.register(admin))

	tradable, err = s.im.IsTradable(mockCtx, contract)
	s.NoError(err)
	s.True(tradable)
}
