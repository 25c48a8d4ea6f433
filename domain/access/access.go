package access

import (
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/domain"
)

type Role int

const (
	RoleNone Role = iota
	RoleOwner
	RoleCollectionAdmin
	RoleCommissionAdmin
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleCollectionAdmin:
		return "collectionAdmin"
	case RoleCommissionAdmin:
		return "commissionAdmin"
	}
	return "none"
}

type Grant struct {
	Address domain.Address `json:"address"`
	Role    Role           `json:"role"`
}

type Repo interface {
	HasRole(c ctx.Ctx, address domain.Address, role Role) (bool, error)
	Grant(c ctx.Ctx, address domain.Address, role Role) error
	Revoke(c ctx.Ctx, address domain.Address, role Role) error
}

// AccessControl is the permission collaborator every admin mutator
// consults exactly once before proceeding.
type AccessControl interface {
	IsOwner(c ctx.Ctx, caller domain.Address) (bool, error)
	IsCollectionAdmin(c ctx.Ctx, caller domain.Address) (bool, error)
	IsCommissionAdmin(c ctx.Ctx, caller domain.Address) (bool, error)

	// Require resolves the caller's capability against the required role
	// and returns domain.ErrPermissionDenied when it does not hold. The
	// market owner passes every check.
	Require(c ctx.Ctx, caller domain.Address, role Role) error
}

type UseCase interface {
	AccessControl
	Grant(c ctx.Ctx, caller, address domain.Address, role Role) error
	Revoke(c ctx.Ctx, caller, address domain.Address, role Role) error
}
