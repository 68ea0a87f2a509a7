package server

import (
	"errors"
	"log/slog"
	"mindsupremacy-payments/internal/apperr"
	"mindsupremacy-payments/internal/handler"
	appmiddleware "mindsupremacy-payments/internal/middleware"
	"mindsupremacy-payments/internal/service"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid request", err)
	}
	return nil
}

func NewServer(checkoutService service.CheckoutService, jwtSecret string, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogMethod: true,
		LogURI:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = errorHandler(logger)

	checkoutHandler := handler.NewCheckoutHandler(checkoutService)

	s := &Server{
		echo:            e,
		checkoutHandler: checkoutHandler,
	}

	s.setupRoutes(jwtSecret)
	return s
}

func (s *Server) setupRoutes(jwtSecret string) {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	s.echo.POST("/orders", s.checkoutHandler.CreateOrder)
	s.echo.POST("/payment/verify", s.checkoutHandler.VerifyPayment)

	// -------- gateway webhooks --------
	s.echo.POST("/webhook", s.checkoutHandler.Webhook)

	// -------- customer portal --------
	payments := api.Group("/payments", appmiddleware.JWTAuth(jwtSecret))
	payments.GET("/history", s.checkoutHandler.PaymentHistory)
}

// errorHandler maps the error taxonomy onto HTTP statuses. Upstream bodies
// and wrapped causes go to the log, not the response.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			_ = c.JSON(httpErr.Code, map[string]interface{}{"error": httpErr.Message})
			return
		}

		status := apperr.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "path", c.Path(), "error", err)
		} else {
			logger.Warn("request rejected", "path", c.Path(), "kind", apperr.KindOf(err).String(), "error", err)
		}

		_ = c.JSON(status, map[string]string{"error": apperr.Message(err)})
	}
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Echo returns the underlying router, used by handler tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
