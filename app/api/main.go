package main

import (
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/go-playground/validator/v10"
	"github.com/x-xyz/settlement/base/clock"
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/log"
	bValidator "github.com/x-xyz/settlement/base/validator"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/access"
	"github.com/x-xyz/settlement/domain/market"
	mmiddleware "github.com/x-xyz/settlement/middleware"
	"github.com/x-xyz/settlement/service/ledger"
	access_repository "github.com/x-xyz/settlement/stores/access/repository"
	access_usecase "github.com/x-xyz/settlement/stores/access/usecase"
	auth_delivery "github.com/x-xyz/settlement/stores/auth/delivery/http"
	auth_middleware "github.com/x-xyz/settlement/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/x-xyz/settlement/stores/auth/usecase"
	collection_delivery "github.com/x-xyz/settlement/stores/collection/delivery/http"
	collection_repository "github.com/x-xyz/settlement/stores/collection/repository"
	collection_usecase "github.com/x-xyz/settlement/stores/collection/usecase"
	escrow_repository "github.com/x-xyz/settlement/stores/escrow/repository"
	escrow_usecase "github.com/x-xyz/settlement/stores/escrow/usecase"
	lot_delivery "github.com/x-xyz/settlement/stores/lot/delivery/http"
	lot_repository "github.com/x-xyz/settlement/stores/lot/repository"
	lot_usecase "github.com/x-xyz/settlement/stores/lot/usecase"
	market_delivery "github.com/x-xyz/settlement/stores/market/delivery/http"
	market_repository "github.com/x-xyz/settlement/stores/market/repository"
	market_usecase "github.com/x-xyz/settlement/stores/market/usecase"
	offer_delivery "github.com/x-xyz/settlement/stores/offer/delivery/http"
	offer_repository "github.com/x-xyz/settlement/stores/offer/repository"
	offer_usecase "github.com/x-xyz/settlement/stores/offer/usecase"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	mmiddleware.SetupCache(viper.GetInt("cache.sizeMb"))

	context := ctx.Background()

	// repositories
	grantsRepo := access_repository.NewGrantsRepo()
	collectionRepo := collection_repository.NewCollectionRepo()
	custodyRepo := escrow_repository.NewCustodyRepo()
	valueBook := escrow_repository.NewValueBook()
	lotRepo := lot_repository.NewLotRepo()
	offerRepo := offer_repository.NewOfferRepo()

	offerCommission, ok := new(big.Int).SetString(viper.GetString("market.offerCommission"), 10)
	if !ok {
		offerCommission = big.NewInt(0)
	}
	settingsRepo := market_repository.NewSettingsRepo(market.Settings{
		Commission:      domain.BasisPoints(viper.GetInt64("market.commissionBps")),
		OfferCommission: offerCommission,
		Wallet:          domain.Address(viper.GetString("market.wallet")),
		MaxAuctionDelay: time.Duration(viper.GetInt64("market.maxAuctionDelayHours")) * time.Hour,
	})

	// seed the market owner so admin mutators have a root capability
	owner := domain.Address(viper.GetString("market.owner"))
	if !owner.IsEmpty() {
		if err := grantsRepo.Grant(context, owner, access.RoleOwner); err != nil {
			log.Log().WithField("err", err).Panic("failed to seed market owner")
		}
	}

	// external ledgers
	assetLedger := ledger.NewAsset()
	valueLedger := ledger.NewValue()

	// usecases
	accessUC := access_usecase.New(&access_usecase.AccessUseCaseCfg{
		GrantsRepo: grantsRepo,
	})
	collectionUC := collection_usecase.New(&collection_usecase.CollectionUseCaseCfg{
		CollectionRepo: collectionRepo,
		AccessControl:  accessUC,
	})
	marketUC := market_usecase.New(&market_usecase.MarketUseCaseCfg{
		SettingsRepo:  settingsRepo,
		AccessControl: accessUC,
	})
	escrowUC := escrow_usecase.New(&escrow_usecase.EscrowUseCaseCfg{
		CustodyRepo:    custodyRepo,
		CollectionRepo: collectionRepo,
		ValueBook:      valueBook,
		AssetLedger:    assetLedger,
		ValueLedger:    valueLedger,
		Engine:         domain.Address(viper.GetString("engine.address")),
	})

	settleMu := &sync.Mutex{}
	lotUC := lot_usecase.New(&lot_usecase.LotUseCaseCfg{
		LotRepo:        lotRepo,
		CollectionRepo: collectionRepo,
		MarketRepo:     settingsRepo,
		EscrowUC:       escrowUC,
		Clock:          clock.Real(),
		SettleMu:       settleMu,
	})
	offerUC := offer_usecase.New(&offer_usecase.OfferUseCaseCfg{
		OfferRepo:      offerRepo,
		LotRepo:        lotRepo,
		CollectionRepo: collectionRepo,
		MarketRepo:     settingsRepo,
		EscrowUC:       escrowUC,
		Clock:          clock.Real(),
		SettleMu:       settleMu,
	})

	tokenTtl := time.Duration(viper.GetInt64("auth.tokenTtlHours")) * time.Hour
	authUC := auth_usecase.New(viper.GetString("auth.jwtSecret"), tokenTtl)

	adminAddresses := viper.GetStringSlice("admin.addresses")
	authMiddleware := auth_middleware.New(authUC, adminAddresses)

	auth_delivery.New(e, authUC)
	lot_delivery.New(e, lotUC, authMiddleware)
	offer_delivery.New(e, offerUC, authMiddleware)
	collection_delivery.New(e, collectionUC, authMiddleware)
	market_delivery.New(e, marketUC, authMiddleware)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
