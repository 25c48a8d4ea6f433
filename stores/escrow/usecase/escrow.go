package usecase

import (
	"math/big"

	bCtx "github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/log"
	"github.com/x-xyz/settlement/base/txn"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/collection"
	"github.com/x-xyz/settlement/domain/escrow"
)

type EscrowUseCaseCfg struct {
	CustodyRepo    escrow.Repo
	CollectionRepo collection.Repo
	ValueBook      escrow.ValueBook
	AssetLedger    domain.AssetLedger
	ValueLedger    domain.ValueLedger

	// Engine is the custodial account holding escrowed assets and value.
	Engine domain.Address
}

type impl struct {
	custodyRepo    escrow.Repo
	collectionRepo collection.Repo
	valueBook      escrow.ValueBook
	assetLedger    domain.AssetLedger
	valueLedger    domain.ValueLedger
	engine         domain.Address
}

func New(cfg *EscrowUseCaseCfg) escrow.UseCase {
	return &impl{
		custodyRepo:    cfg.CustodyRepo,
		collectionRepo: cfg.CollectionRepo,
		valueBook:      cfg.ValueBook,
		assetLedger:    cfg.AssetLedger,
		valueLedger:    cfg.ValueLedger,
		engine:         cfg.Engine,
	}
}

func (im *impl) Deposit(c bCtx.Ctx, t *txn.Txn, depositor domain.Address, asset domain.AssetRef, amount *big.Int) (domain.CustodyId, error) {
	if !domain.IsPositive(amount) || asset.ContractAddress.IsEmpty() {
		return 0, domain.ErrInvalidDeposit
	}

	col, err := im.collectionRepo.FindOne(c, asset.ContractAddress)
	if err != nil || !col.CanTransferOnAdd {
		return 0, domain.ErrInvalidDeposit
	}

	// validate the pull before any state mutation
	if balance, err := im.assetLedger.BalanceOf(c, asset, depositor); err != nil {
		return 0, err
	} else if balance.Cmp(amount) < 0 {
		return 0, domain.ErrInsufficientBalance
	}
	if approved, err := im.assetLedger.IsApprovedForAll(c, asset.ContractAddress, depositor, im.engine); err != nil {
		return 0, err
	} else if !approved {
		return 0, domain.ErrInsufficientAllowance
	}

	var id domain.CustodyId
	if err := t.Do(func() error {
		id, err = im.custodyRepo.Create(c, &escrow.Custody{
			Depositor:   depositor,
			Asset:       asset,
			Deposited:   amount,
			Outstanding: amount,
			Disbursed:   new(big.Int),
		})
		return err
	}, func() {
		if err := im.custodyRepo.Delete(c, id); err != nil {
			c.WithFields(log.Fields{"err": err, "custodyId": id}).Error("failed to custodyRepo.Delete on rollback")
		}
	}); err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to custodyRepo.Create")
		return 0, err
	}

	pull := new(big.Int).Set(amount)
	t.External(func() error {
		return im.assetLedger.TransferOwnership(c, asset, depositor, im.engine, pull)
	}, func() {
		if err := im.assetLedger.TransferOwnership(c, asset, im.engine, depositor, pull); err != nil {
			c.WithFields(log.Fields{"err": err, "custodyId": id}).Error("failed to compensate asset pull")
		}
	})

	return id, nil
}

func (im *impl) Release(c bCtx.Ctx, t *txn.Txn, id domain.CustodyId, recipient domain.Address, amount *big.Int) error {
	if !domain.IsPositive(amount) {
		return domain.ErrInvalidParameter
	}

	cu, err := im.custodyRepo.FindOne(c, id)
	if err != nil {
		return err
	}
	if cu.Outstanding.Cmp(amount) < 0 {
		return domain.ErrInvalidState
	}

	prior := cu
	updated := *cu
	updated.Outstanding = new(big.Int).Sub(cu.Outstanding, amount)
	updated.Disbursed = new(big.Int).Add(cu.Disbursed, amount)

	if err := t.Do(func() error {
		return im.custodyRepo.Update(c, &updated)
	}, func() {
		if err := im.custodyRepo.Update(c, prior); err != nil {
			c.WithFields(log.Fields{"err": err, "custodyId": id}).Error("failed to custodyRepo.Update on rollback")
		}
	}); err != nil {
		c.WithFields(log.Fields{"err": err, "custodyId": id}).Error("failed to custodyRepo.Update")
		return err
	}

	disburse := new(big.Int).Set(amount)
	t.External(func() error {
		return im.assetLedger.TransferOwnership(c, cu.Asset, im.engine, recipient, disburse)
	}, func() {
		if err := im.assetLedger.TransferOwnership(c, cu.Asset, recipient, im.engine, disburse); err != nil {
			c.WithFields(log.Fields{"err": err, "custodyId": id}).Error("failed to compensate asset release")
		}
	})

	return nil
}

func (im *impl) EscrowValue(c bCtx.Ctx, t *txn.Txn, payer domain.Address, token domain.Address, amount *big.Int) error {
	if domain.IsZeroOrNil(amount) {
		return nil
	}
	if amount.Sign() < 0 {
		return domain.ErrInvalidParameter
	}

	// validate the pull before any state mutation
	if balance, err := im.valueLedger.BalanceOf(c, token, payer); err != nil {
		return err
	} else if balance.Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	if !token.IsNative() {
		if allowance, err := im.valueLedger.Allowance(c, token, payer, im.engine); err != nil {
			return err
		} else if allowance.Cmp(amount) < 0 {
			return domain.ErrInsufficientAllowance
		}
	}

	pull := new(big.Int).Set(amount)
	if err := t.Do(func() error {
		im.valueBook.Add(c, token, pull)
		return nil
	}, func() {
		im.valueBook.Sub(c, token, pull)
	}); err != nil {
		return err
	}

	t.External(func() error {
		if token.IsNative() {
			return im.valueLedger.Transfer(c, token, payer, im.engine, pull)
		}
		return im.valueLedger.TransferFrom(c, token, payer, im.engine, im.engine, pull)
	}, func() {
		if err := im.valueLedger.Transfer(c, token, im.engine, payer, pull); err != nil {
			c.WithFields(log.Fields{"err": err, "token": token}).Error("failed to compensate value pull")
		}
	})

	return nil
}

func (im *impl) ReleaseValue(c bCtx.Ctx, t *txn.Txn, token domain.Address, recipient domain.Address, amount *big.Int) error {
	if domain.IsZeroOrNil(amount) {
		return nil
	}
	if amount.Sign() < 0 {
		return domain.ErrInvalidParameter
	}
	if im.valueBook.Balance(c, token).Cmp(amount) < 0 {
		return domain.ErrInvalidState
	}

	disburse := new(big.Int).Set(amount)
	if err := t.Do(func() error {
		im.valueBook.Sub(c, token, disburse)
		return nil
	}, func() {
		im.valueBook.Add(c, token, disburse)
	}); err != nil {
		return err
	}

	t.External(func() error {
		return im.valueLedger.Transfer(c, token, im.engine, recipient, disburse)
	}, func() {
		if err := im.valueLedger.Transfer(c, token, recipient, im.engine, disburse); err != nil {
			c.WithFields(log.Fields{"err": err, "token": token}).Error("failed to compensate value release")
		}
	})

	return nil
}

func (im *impl) GetCustody(c bCtx.Ctx, id domain.CustodyId) (*escrow.Custody, error) {
	return im.custodyRepo.FindOne(c, id)
}

func (im *impl) ValueBalance(c bCtx.Ctx, token domain.Address) (*big.Int, error) {
	return im.valueBook.Balance(c, token), nil
}
