package usecase

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/access"
	access_repository "github.com/x-xyz/settlement/stores/access/repository"
)

var mockCtx = ctx.Background()

const (
	owner    = domain.Address("0x0000000000000000000000000000000000000001")
	admin    = domain.Address("0x0000000000000000000000000000000000000002")
	stranger = domain.Address("0x0000000000000000000000000000000000000bad")
)

type accessSuite struct {
	suite.Suite

	im access.UseCase
}

func TestAccessSuite(t *testing.T) {
	suite.Run(t, new(accessSuite))
}

func (s *accessSuite) SetupTest() {
	grantsRepo := access_repository.NewGrantsRepo()
	s.NoError(grantsRepo.Grant(mockCtx, owner, access.RoleOwner))

	s.im = New(&AccessUseCaseCfg{GrantsRepo: grantsRepo})
}

func (s *accessSuite) TestOwnerPassesEveryCheck() {
	s.NoError(s.im.Require(mockCtx, owner, access.RoleOwner))
	s.NoError(s.im.Require(mockCtx, owner, access.RoleCollectionAdmin))
	s.NoError(s.im.Require(mockCtx, owner, access.RoleCommissionAdmin))
}

func (s *accessSuite) TestGrantAndRevoke() {
	err := s.im.Grant(mockCtx, stranger, admin, access.RoleCollectionAdmin)
	s.ErrorIs(err, domain.ErrPermissionDenied)

	s.NoError(s.im.Grant(mockCtx, owner, admin, access.RoleCollectionAdmin))
	s.NoError(s.im.Require(mockCtx, admin, access.RoleCollectionAdmin))

	// one role does not imply another
	err = s.im.Require(mockCtx, admin, access.RoleCommissionAdmin)
	s.ErrorIs(err, domain.ErrPermissionDenied)

	s.NoError(s.im.Revoke(mockCtx, owner, admin, access.RoleCollectionAdmin))
	err = s.im.Require(mockCtx, admin, access.RoleCollectionAdmin)
	s.ErrorIs(err, domain.ErrPermissionDenied)
}

func (s *accessSuite) TestAddressesAreCaseInsensitive() {
	s.NoError(s.im.Grant(mockCtx, owner, "0xABCD000000000000000000000000000000000001", access.RoleCommissionAdmin))
	s.NoError(s.im.Require(mockCtx, "0xabcd000000000000000000000000000000000001", access.RoleCommissionAdmin))
}
