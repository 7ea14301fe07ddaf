package controller

import (
	"errors"
	"net/http"

	"github.com/goattech/ms-go-checkout/app/factory"
	"github.com/goattech/ms-go-checkout/app/service"
	"github.com/goattech/ms-go-checkout/app/types"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type GiftController struct {
	giftService *service.GiftService
	logger      logrus.FieldLogger
}

func NewGiftController(giftService *service.GiftService) *GiftController {
	return &GiftController{
		giftService: giftService,
		logger:      factory.NewModuleLogger("gift-controller"),
	}
}

func (c *GiftController) CreateGiftPayment(ctx echo.Context) error {
	req, err := types.NewCreateGiftPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	resp, err := c.giftService.CreateGiftPayment(ctx.Request().Context(), req)
	if err != nil {
		return c.mapError(ctx, err, "Create gift payment failed")
	}

	return ctx.JSON(http.StatusCreated, resp)
}

func (c *GiftController) VerifyGiftPayment(ctx echo.Context) error {
	req, err := types.NewVerifyGiftPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	gift, err := c.giftService.VerifyGiftPayment(ctx.Request().Context(), req)
	if err != nil {
		return c.mapError(ctx, err, "Verify gift payment failed")
	}

	return ctx.JSON(http.StatusOK, types.GiftToResponse(gift))
}

func (c *GiftController) VerifyCode(ctx echo.Context) error {
	req, err := types.NewVerifyGiftCodeRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	gift, err := c.giftService.VerifyCode(ctx.Request().Context(), req)
	if err != nil {
		return c.mapError(ctx, err, "Verify gift code failed")
	}

	return ctx.JSON(http.StatusOK, types.GiftToResponse(gift))
}

func (c *GiftController) Claim(ctx echo.Context) error {
	req, err := types.NewClaimGiftRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	resp, err := c.giftService.Claim(ctx.Request().Context(), req)
	if err != nil {
		return c.mapError(ctx, err, "Claim gift failed")
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (c *GiftController) GetGift(ctx echo.Context) error {
	req, err := types.NewGetGiftRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	gift, err := c.giftService.GetGiftInfo(ctx.Request().Context(), req.GiftId)
	if err != nil {
		return c.mapError(ctx, err, "Get gift failed")
	}

	return ctx.JSON(http.StatusOK, types.GiftToResponse(gift))
}

func (c *GiftController) ListSent(ctx echo.Context) error {
	req, err := types.NewListSentGiftsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	gifts, err := c.giftService.ListSent(ctx.Request().Context(), req.SenderEmail)
	if err != nil {
		return c.mapError(ctx, err, "List sent gifts failed")
	}

	return ctx.JSON(http.StatusOK, &types.ListGiftsResponse{Gifts: types.GiftsToResponse(gifts)})
}

func (c *GiftController) ListReceived(ctx echo.Context) error {
	req, err := types.NewListReceivedGiftsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	gifts, err := c.giftService.ListReceived(ctx.Request().Context(), req.RecipientEmail)
	if err != nil {
		return c.mapError(ctx, err, "List received gifts failed")
	}

	return ctx.JSON(http.StatusOK, &types.ListGiftsResponse{Gifts: types.GiftsToResponse(gifts)})
}

func (c *GiftController) mapError(ctx echo.Context, err error, logMsg string) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrVerificationFailed),
		errors.Is(err, service.ErrGatewayUnsupported):
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrGiftNotFound), errors.Is(err, service.ErrProductNotFound):
		return c.writeError(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTerminalState):
		return c.writeError(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrGiftExpired):
		return c.writeError(ctx, http.StatusGone, err.Error())
	case errors.Is(err, service.ErrGatewayUnavailable):
		return c.writeError(ctx, http.StatusBadGateway, "payment gateway unavailable")
	default:
		c.logger.WithError(err).Error(logMsg)
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (c *GiftController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
