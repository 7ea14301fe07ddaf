package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goattech/ms-go-checkout/app/factory"
	"github.com/goattech/ms-go-checkout/app/service"
	"github.com/goattech/ms-go-checkout/app/types"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type PaymentController struct {
	paymentService *service.PaymentService
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("payment-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) CreatePayment(ctx echo.Context) error {
	req, err := types.NewCreatePaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	resp, err := c.paymentService.CreatePayment(ctx.Request().Context(), req)
	if err != nil {
		return c.mapError(ctx, err, "Create payment failed")
	}

	return ctx.JSON(http.StatusCreated, resp)
}

// HandleWebhook answers with the body the gateway expects on acceptance.
// A signature failure is a plain 400 with no side effects.
func (c *PaymentController) HandleWebhook(ctx echo.Context) error {
	req, err := types.NewWebhookRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	event, err := c.paymentService.HandleWebhook(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrWebhookRejected) {
			return c.writeError(ctx, http.StatusBadRequest, "webhook rejected")
		}
		return c.mapError(ctx, err, "Handle webhook failed")
	}

	if event.Ack != nil {
		return ctx.JSON(http.StatusOK, event.Ack)
	}
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) CheckStatus(ctx echo.Context) error {
	req, err := types.NewCheckStatusRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	resp, err := c.paymentService.CheckStatus(ctx.Request().Context(), req)
	if err != nil {
		return c.mapError(ctx, err, "Check status failed")
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (c *PaymentController) CancelPayment(ctx echo.Context) error {
	req, err := types.NewCancelPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if err := c.paymentService.CancelPayment(ctx.Request().Context(), req); err != nil {
		return c.mapError(ctx, err, "Cancel payment failed")
	}

	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) RefundPayment(ctx echo.Context) error {
	req, err := types.NewRefundPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	resp, err := c.paymentService.RefundPayment(ctx.Request().Context(), req)
	if err != nil {
		return c.mapError(ctx, err, "Refund payment failed")
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (c *PaymentController) VerifyReturn(ctx echo.Context) error {
	req, err := types.NewVerifyReturnRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	resp, err := c.paymentService.VerifyReturn(ctx.Request().Context(), req)
	if err != nil {
		return c.mapError(ctx, err, "Verify return failed")
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (c *PaymentController) ListTransactions(ctx echo.Context) error {
	orderCode, err := strconv.ParseInt(strings.TrimSpace(ctx.QueryParam("orderCode")), 10, 64)
	if err != nil || orderCode <= 0 {
		return c.writeError(ctx, http.StatusBadRequest, "orderCode must be > 0")
	}

	transactions, err := c.paymentService.ListTransactions(ctx.Request().Context(), orderCode)
	if err != nil {
		return c.mapError(ctx, err, "List transactions failed")
	}

	return ctx.JSON(http.StatusOK, &types.ListTransactionsResponse{
		Transactions: types.TransactionsToResponse(transactions),
	})
}

func (c *PaymentController) ConfirmWebhook(ctx echo.Context) error {
	req, err := types.NewConfirmWebhookRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	resp, err := c.paymentService.ConfirmWebhook(ctx.Request().Context(), "payos", req)
	if err != nil {
		return c.mapError(ctx, err, "Confirm webhook failed")
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (c *PaymentController) mapError(ctx echo.Context, err error, logMsg string) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrGatewayUnsupported),
		errors.Is(err, service.ErrOperationNotSupported):
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		return c.writeError(ctx, http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrGatewayUnavailable):
		return c.writeError(ctx, http.StatusBadGateway, "payment gateway unavailable")
	default:
		c.logger.WithError(err).Error(logMsg)
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
