package handler

import (
	"io"
	"mindsupremacy-payments/internal/dto"
	"mindsupremacy-payments/internal/middleware"
	"mindsupremacy-payments/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.checkoutService.CreateOrder(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

func (h *CheckoutHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.checkoutService.VerifyPayment(ctx, &req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.VerifyResponse{Success: true})
}

func (h *CheckoutHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read webhook body")
	}

	if err := h.checkoutService.HandleWebhook(ctx, c.Request().Header, body); err != nil {
		return err
	}

	return c.String(http.StatusOK, "OK")
}

func (h *CheckoutHandler) PaymentHistory(c echo.Context) error {
	ctx := c.Request().Context()

	email, _ := c.Get(middleware.ContextKeyUserEmail).(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}

	records, err := h.checkoutService.ListPayments(ctx, email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, records)
}
