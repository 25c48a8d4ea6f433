package http

import (
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/x-xyz/settlement/base/ctx"
	"github.com/x-xyz/settlement/base/delivery"
	"github.com/x-xyz/settlement/base/metrics"
	"github.com/x-xyz/settlement/domain"
	"github.com/x-xyz/settlement/domain/offer"
	authMiddleware "github.com/x-xyz/settlement/stores/auth/delivery/http/middleware"
)

var met metrics.Service

type handler struct {
	offer offer.UseCase
}

func New(e *echo.Echo, offerUC offer.UseCase, authMiddleware *authMiddleware.AuthMiddleware) {
	met = metrics.New("offer")

	h := &handler{offerUC}

	gs := e.Group("/offers")

	gs.GET("", h.getAll)

	gs.POST("", h.makeOffer, authMiddleware.Auth())

	gs.POST("/nft", h.nftOffer, authMiddleware.Auth())

	g := e.Group("/offer/:id")

	g.GET("", h.get)

	g.POST("/cancel", h.cancel, authMiddleware.Auth())

	g.POST("/choose", h.choose, authMiddleware.Auth())
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
		LotId    *domain.LotId   `query:"lotId"`
		Proposer *domain.Address `query:"proposer"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	var (
		res []*offer.Offer
		err error
	)

	switch {
	case p.LotId != nil:
		res, err = h.offer.GetOffersByLot(ctx, *p.LotId)
	case p.Proposer != nil:
		res, err = h.offer.GetOffersByProposer(ctx, *p.Proposer)
	default:
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "lotId or proposer is required")
	}

	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, res)
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	type params struct {
		Id domain.OfferId `param:"id"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if res, err := h.offer.GetOffer(ctx, p.Id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, res)
	}
}

func (h *handler) makeOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		LotId        domain.LotId   `json:"lotId" validate:"required"`
		ItemLotIds   []domain.LotId `json:"itemLotIds"`
		PayToken     domain.Address `json:"payToken"`
		TokenAmount  string         `json:"tokenAmount"`
		NativeAmount string         `json:"nativeAmount"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	tokenAmount, ok := parseAmount(p.TokenAmount)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid tokenAmount")
	}

	nativeAmount, ok := parseAmount(p.NativeAmount)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid nativeAmount")
	}

	id, err := h.offer.MakeOffer(ctx, address, offer.MakeOfferParams{
		LotId:        p.LotId,
		ItemLotIds:   p.ItemLotIds,
		PayToken:     p.PayToken,
		TokenAmount:  tokenAmount,
		NativeAmount: nativeAmount,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	met.BumpSum("make.count", 1)

	return delivery.MakeJsonResp(c, http.StatusCreated, id)
}

func (h *handler) nftOffer(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type item struct {
		ContractAddress domain.Address `json:"contractAddress" validate:"required"`
		TokenId         domain.TokenId `json:"tokenId" validate:"required"`
		IsFungible      bool           `json:"isFungible"`
		Amount          string         `json:"amount" validate:"required"`
	}

	type params struct {
		LotId        domain.LotId   `json:"lotId" validate:"required"`
		Items        []item         `json:"items" validate:"required"`
		PayToken     domain.Address `json:"payToken"`
		TokenAmount  string         `json:"tokenAmount"`
		NativeAmount string         `json:"nativeAmount"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	tokenAmount, ok := parseAmount(p.TokenAmount)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid tokenAmount")
	}

	nativeAmount, ok := parseAmount(p.NativeAmount)
	if !ok {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid nativeAmount")
	}

	assets := make([]domain.AssetRef, 0, len(p.Items))
	amounts := make([]*big.Int, 0, len(p.Items))
	for _, it := range p.Items {
		amount, ok := parseAmount(it.Amount)
		if !ok || amount == nil {
			return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid item amount")
		}
		assets = append(assets, domain.AssetRef{
			ContractAddress: it.ContractAddress,
			TokenId:         it.TokenId,
			IsFungible:      it.IsFungible,
		})
		amounts = append(amounts, amount)
	}

	id, err := h.offer.NFTOffer(ctx, address, offer.NFTOfferParams{
		Assets:       assets,
		Amounts:      amounts,
		LotId:        p.LotId,
		PayToken:     p.PayToken,
		TokenAmount:  tokenAmount,
		NativeAmount: nativeAmount,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	met.BumpSum("nftOffer.count", 1)

	return delivery.MakeJsonResp(c, http.StatusCreated, id)
}

func (h *handler) cancel(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Id domain.OfferId `param:"id"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.offer.CancelOffer(ctx, address, p.Id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}

func (h *handler) choose(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	address := c.Get("address").(domain.Address)

	type params struct {
		Id    domain.OfferId `param:"id"`
		LotId domain.LotId   `json:"lotId" validate:"required"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	if err := h.offer.ChooseOffer(ctx, address, p.LotId, p.Id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	met.BumpSum("choose.count", 1)

	return delivery.MakeJsonResp(c, http.StatusOK, "ok")
}
