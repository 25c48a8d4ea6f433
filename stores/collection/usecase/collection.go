package usecase

import (
	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/log"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/access"
	"github.com/x-xyz/settlement/domain/collection"
)

type CollectionUseCaseCfg struct {
	CollectionRepo collection.Repo
	AccessControl  access.AccessControl
}

type impl struct {
	collectionRepo collection.Repo
	accessControl  access.AccessControl
}

func New(cfg *CollectionUseCaseCfg) collection.UseCase {
	return &impl{
		collectionRepo: cfg.CollectionRepo,
		accessControl:  cfg.AccessControl,
	}
}

func (im *impl) Register(c bCtx.Ctx, caller domain.Address, col *collection.Collection) error {
	if err := im.accessControl.Require(c, caller, access.RoleCollectionAdmin); err != nil {
		return err
	}
	if col.Address.IsEmpty() || !col.Address.IsHex() {
		return domain.ErrInvalidParameter
	}
	if !col.Commission.Valid() {
		return domain.ErrInvalidParameter
	}
	if err := im.collectionRepo.Create(c, col); err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"address": col.Address,
		}).Error("failed to collectionRepo.Create")
		return err
	}
	return nil
}

func (im *impl) SetCommission(c bCtx.Ctx, caller, address domain.Address, bps domain.BasisPoints) error {
	if err := im.accessControl.Require(c, caller, access.RoleCommissionAdmin); err != nil {
		return err
	}
	if !bps.Valid() {
		return domain.ErrInvalidParameter
	}
	if err := im.collectionRepo.Patch(c, address, collection.Patchable{Commission: &bps}); err != nil {
		c.WithFields(log.Fields{"err": err, "address": address}).Error("failed to collectionRepo.Patch")
		return err
	}
	return nil
}

func (im *impl) SetOwner(c bCtx.Ctx, caller, address, owner domain.Address) error {
	if err := im.accessControl.Require(c, caller, access.RoleCollectionAdmin); err != nil {
		return err
	}
	lowered := owner.ToLower()
	if err := im.collectionRepo.Patch(c, address, collection.Patchable{Owner: &lowered}); err != nil {
		c.WithFields(log.Fields{"err": err, "address": address}).Error("failed to collectionRepo.Patch")
		return err
	}
	return nil
}

func (im *impl) AddPaymentToken(c bCtx.Ctx, caller, address, token domain.Address) error {
	if err := im.accessControl.Require(c, caller, access.RoleCollectionAdmin); err != nil {
		return err
	}
	if token.IsEmpty() {
		return domain.ErrInvalidParameter
	}
	col, err := im.collectionRepo.FindOne(c, address)
	if err != nil {
		return err
	}
	if col.SupportsPaymentToken(token) {
		return nil
	}
	tokens := append(col.PaymentTokens, token.ToLower())
	return im.collectionRepo.Patch(c, address, collection.Patchable{PaymentTokens: &tokens})
}

func (im *impl) RemovePaymentToken(c bCtx.Ctx, caller, address, token domain.Address) error {
	if err := im.accessControl.Require(c, caller, access.RoleCollectionAdmin); err != nil {
		return err
	}
	col, err := im.collectionRepo.FindOne(c, address)
	if err != nil {
		return err
	}
	tokens := []domain.Address{}
	for _, t := range col.PaymentTokens {
		if !t.Equals(token) {
			tokens = append(tokens, t)
		}
	}
	return im.collectionRepo.Patch(c, address, collection.Patchable{PaymentTokens: &tokens})
}

func (im *impl) Get(c bCtx.Ctx, address domain.Address) (*collection.Collection, error) {
	return im.collectionRepo.FindOne(c, address)
}

func (im *impl) GetAll(c bCtx.Ctx) ([]*collection.Collection, error) {
	return im.collectionRepo.FindAll(c)
}

func (im *impl) IsTradable(c bCtx.Ctx, address domain.Address) (bool, error) {
	if _, err := im.collectionRepo.FindOne(c, address); err == domain.ErrNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

func (im *impl) IsPaymentTokenSupported(c bCtx.Ctx, address, token domain.Address) (bool, error) {
	col, err := im.collectionRepo.FindOne(c, address)
	if err == domain.ErrNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return col.SupportsPaymentToken(token), nil
}
