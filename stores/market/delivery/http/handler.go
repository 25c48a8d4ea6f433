package http

import (
	"math/big"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/delivery"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/market"
	authMiddleware "github.com/x-xyz/settlement/stores/auth/delivery/http/middleware"
)

type handler struct {
	market market.UseCase
}

func New(e *echo.Echo, marketUC market.UseCase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{marketUC}

	g := e.Group("/market")

	g.GET("/settings", h.getSettings)

	g.POST("/commission", h.setCommission, authMiddleware.Auth())

	g.POST("/offerCommission", h.setOfferCommission, authMiddleware.Auth())

	g.POST("/wallet", h.setWallet, authMiddleware.Auth())

	g.POST("/maxAuctionDelay", h.setMaxAuctionDelay, authMiddleware.Auth())
}

func (h *handler) getSettings(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	if res, err := h.market.Get(ctx); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) setCommission(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Commission domain.BasisPoints `json:"commission"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.market.SetCommission(ctx, address, p.Commission); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setOfferCommission(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Fee string `json:"fee" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	fee, ok := new(big.Int).SetString(p.Fee, 10)
	if !ok || fee.Sign() < 0 {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid fee")
	}

	if err := h.market.SetOfferCommission(ctx, address, fee); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setWallet(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Wallet domain.Address `json:"wallet" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.market.SetWallet(ctx, address, p.Wallet); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) setMaxAuctionDelay(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Seconds int64 `json:"seconds" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if p.Seconds <= 0 {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid seconds")
	}

	if err := h.market.SetMaxAuctionDelay(ctx, address, time.Duration(p.Seconds)*time.Second); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
