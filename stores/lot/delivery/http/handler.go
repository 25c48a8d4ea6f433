package http

import (
	"math/big"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/delivery"
	"github.com/x-xyz/settlement/base/metrics"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/lot"
	"github.com/x-xyz/settlement/middleware"
	authMiddleware "github.com/x-xyz/settlement/stores/auth/delivery/http/middleware"
)

var met metrics.Service

type handler struct {
	lot lot.UseCase
}

func New(e *echo.Echo, lotUC lot.UseCase, authMiddleware *authMiddleware.AuthMiddleware) {
	met = metrics.New("lot")

	h := &handler{lotUC}

	gs := e.Group("/lots")

	gs.GET("", h.getAll)

	gs.GET("/count", h.count, middleware.CacheHttp(10*time.Second))

	gs.POST("", h.createLot, authMiddleware.Auth())

	g := e.Group("/lot/:id")

	g.GET("", h.get)

	g.POST("/sell", h.sell, authMiddleware.Auth())

	g.POST("/buy", h.buy, authMiddleware.Auth())

	g.POST("/auction", h.startAuction, authMiddleware.Auth())

	g.POST("/bid", h.bid, authMiddleware.Auth())

	g.POST("/endAuction", h.endAuction, authMiddleware.Auth())

	g.POST("/finishAuction", h.finishAuction, authMiddleware.Auth())

	g.POST("/getBack", h.getBack, authMiddleware.Auth())
}

// lotView decorates a lot with human-readable prices, assuming the
// 18-decimal scale every supported payment token uses.
type lotView struct {
	*lot.Lot
	DisplayBuyerPrice *decimal.Decimal `json:"displayBuyerPrice,omitempty"`
}

func makeLotView(l *lot.Lot) *lotView {
	v := &lotView{Lot: l}
	if domain.IsPositive(l.Price.BuyerPrice) {
		d := decimal.NewFromBigInt(l.Price.BuyerPrice, -18)
		v.DisplayBuyerPrice = &d
	}
	return v
}

func parseAmount(s string) (*big.Int, bool) {
	if len(s) == 0 {
		return nil, true
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

func (h *handler) getAll(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Owner *domain.Address `query:"owner"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if p.Owner == nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "owner is required")
	}

	if res, err := h.lot.GetLotsByOwner(ctx, *p.Owner); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		views := make([]*lotView, 0, len(res))
		for _, l := range res {
			views = append(views, makeLotView(l))
		}
		return delivery.MakeJsonResp(c, http.StatusOK, views)
	}
}

func (h *handler) count(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	if res, err := h.lot.Count(ctx); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id domain.LotId `param:"id"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if res, err := h.lot.GetLot(ctx, p.Id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, makeLotView(res))
	}
}

func (h *handler) createLot(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		ContractAddress domain.Address `json:"contractAddress" validate:"required"`
		TokenId         domain.TokenId `json:"tokenId" validate:"required"`
		IsFungible      bool           `json:"isFungible"`
		Amount          string         `json:"amount" validate:"required"`
		SaleMode        lot.SaleMode   `json:"saleMode"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	amount, ok := parseAmount(p.Amount)
	if !ok || amount == nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid amount")
	}

	if !p.SaleMode.Valid() {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid saleMode")
	}

	id, err := h.lot.CreateLot(ctx, address, lot.CreateLotParams{
		Asset: domain.AssetRef{
			ContractAddress: p.ContractAddress,
			TokenId:         p.TokenId,
			IsFungible:      p.IsFungible,
		},
		Amount:   amount,
		SaleMode: p.SaleMode,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	met.BumpSum("create.count", 1)

	return delivery.MakeJsonResp(c, http.StatusCreated, id)
}

func (h *handler) sell(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Id            domain.LotId   `param:"id"`
		PayToken      domain.Address `json:"payToken" validate:"required"`
		BuyerPrice    string         `json:"buyerPrice" validate:"required"`
		OpenForOffers bool           `json:"openForOffers"`
		StartDate     *time.Time     `json:"startDate"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	price, ok := parseAmount(p.BuyerPrice)
	if !ok || price == nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid buyerPrice")
	}

	sp := lot.SellParams{
		PayToken:      p.PayToken,
		BuyerPrice:    price,
		OpenForOffers: p.OpenForOffers,
	}
	if p.StartDate != nil {
		sp.StartDate = *p.StartDate
	}

	if err := h.lot.Sell(ctx, address, p.Id, sp); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) buy(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Id domain.LotId `param:"id"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.lot.Buy(ctx, address, p.Id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	met.BumpSum("buy.count", 1)

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) startAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Id         domain.LotId       `param:"id"`
		Start      time.Time          `json:"start"`
		End        time.Time          `json:"end" validate:"required"`
		StepBps    domain.BasisPoints `json:"stepBps"`
		PayToken   domain.Address     `json:"payToken" validate:"required"`
		StartPrice string             `json:"startPrice" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	price, ok := parseAmount(p.StartPrice)
	if !ok || price == nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid startPrice")
	}

	err := h.lot.StartAuction(ctx, address, p.Id, lot.StartAuctionParams{
		Start:      p.Start,
		End:        p.End,
		StepBps:    p.StepBps,
		PayToken:   p.PayToken,
		StartPrice: price,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) bid(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Id     domain.LotId `param:"id"`
		Amount string       `json:"amount" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	amount, ok := parseAmount(p.Amount)
	if !ok || amount == nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid amount")
	}

	if err := h.lot.MakeBid(ctx, address, p.Id, amount); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	met.BumpSum("bid.count", 1)

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) endAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Id domain.LotId `param:"id"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.lot.EndAuction(ctx, address, p.Id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) finishAuction(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Id domain.LotId `param:"id"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.lot.FinishAuction(ctx, address, p.Id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) getBack(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Id domain.LotId `param:"id"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.lot.GetBack(ctx, address, p.Id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
