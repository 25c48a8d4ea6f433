package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/delivery"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/collection"
	"github.com/x-xyz/settlement/middleware"
	authMiddleware "github.com/x-xyz/settlement/stores/auth/delivery/http/middleware"
)

type handler struct {
	collection collection.UseCase
}

func New(e *echo.Echo, collectionUC collection.UseCase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{collectionUC}

	gs := e.Group("/collections")

	gs.GET("", h.getAll, middleware.CacheHttp(30*time.Second))

	gs.POST("", h.register, authMiddleware.Auth())

	g := e.Group("/collection/:contract", middleware.IsValidAddress("contract"))

	g.GET("", h.get, middleware.CacheHttp(30*time.Second))

	g.POST("/commission", h.setCommission, authMiddleware.Auth())

	g.POST("/owner", h.setOwner, authMiddleware.Auth())

	g.POST("/paymentTokens", h.addPaymentToken, authMiddleware.Auth())

	g.DELETE("/paymentTokens", h.removePaymentToken, authMiddleware.Auth())
}

func (h *handler) getAll(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	if res, err := h.collection.GetAll(ctx); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	contract := domain.Address(c.Param("contract"))

	if res, err := h.collection.Get(ctx, contract); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) register(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Address          domain.Address     `json:"address" validate:"required"`
		CanTransferOnAdd bool               `json:"canTransferOnAdd"`
		Commission       domain.BasisPoints `json:"commission"`
		Owner            domain.Address     `json:"owner"`
		PaymentTokens    []domain.Address   `json:"paymentTokens"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	col := &collection.Collection{
		Address:          p.Address,
		CanTransferOnAdd: p.CanTransferOnAdd,
		Commission:       p.Commission,
		Owner:            p.Owner,
		PaymentTokens:    p.PaymentTokens,
	}

	if err := h.collection.Register(ctx, address, col); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusCreated, col)
}

func (h *handler) setCommission(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	contract := domain.Address(c.Param("contract"))

	type params struct {
		Commission domain.BasisPoints `json:"commission"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.collection.SetCommission(ctx, address, contract, p.Commission); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setOwner(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	contract := domain.Address(c.Param("contract"))

	type params struct {
		Owner domain.Address `json:"owner" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.collection.SetOwner(ctx, address, contract, p.Owner); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) addPaymentToken(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	contract := domain.Address(c.Param("contract"))

	type params struct {
		Token domain.Address `json:"token" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.collection.AddPaymentToken(ctx, address, contract, p.Token); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) removePaymentToken(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	contract := domain.Address(c.Param("contract"))

	type params struct {
		Token domain.Address `json:"token" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.collection.RemovePaymentToken(ctx, address, contract, p.Token); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
