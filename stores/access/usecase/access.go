package usecase

import (
	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/log"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/access"
)

type AccessUseCaseCfg struct {
	GrantsRepo access.Repo
}

type impl struct {
	grantsRepo access.Repo
}

func New(cfg *AccessUseCaseCfg) access.UseCase {
	return &impl{
		grantsRepo: cfg.GrantsRepo,
	}
}

func (im *impl) IsOwner(c bCtx.Ctx, caller domain.Address) (bool, error) {
	return im.grantsRepo.HasRole(c, caller, access.RoleOwner)
}

func (im *impl) IsCollectionAdmin(c bCtx.Ctx, caller domain.Address) (bool, error) {
	return im.grantsRepo.HasRole(c, caller, access.RoleCollectionAdmin)
}

func (im *impl) IsCommissionAdmin(c bCtx.Ctx, caller domain.Address) (bool, error) {
	return im.grantsRepo.HasRole(c, caller, access.RoleCommissionAdmin)
}

func (im *impl) Require(c bCtx.Ctx, caller domain.Address, role access.Role) error {
	// market owner passes every check
	if ok, err := im.IsOwner(c, caller); err != nil {
		return err
	} else if ok {
		return nil
	}

	if role != access.RoleOwner {
		if ok, err := im.grantsRepo.HasRole(c, caller, role); err != nil {
			return err
		} else if ok {
			return nil
		}
	}

	c.WithFields(log.Fields{
		"caller": caller,
		"role":   role.String(),
	}).Warn("permission denied")
	return domain.ErrPermissionDenied
}

func (im *impl) Grant(c bCtx.Ctx, caller, address domain.Address, role access.Role) error {
	if err := im.Require(c, caller, access.RoleOwner); err != nil {
		return err
	}
	return im.grantsRepo.Grant(c, address, role)
}

func (im *impl) Revoke(c bCtx.Ctx, caller, address domain.Address, role access.Role) error {
	if err := im.Require(c, caller, access.RoleOwner); err != nil {
		return err
	}
	return im.grantsRepo.Revoke(c, address, role)
}
