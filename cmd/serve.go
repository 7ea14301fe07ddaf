package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goattech/ms-go-checkout/app/controller"
	"github.com/goattech/ms-go-checkout/app/gateway"
	"github.com/goattech/ms-go-checkout/app/notify"
	"github.com/goattech/ms-go-checkout/app/repository"
	"github.com/goattech/ms-go-checkout/app/service"
	"github.com/goattech/ms-go-checkout/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for payment and gift endpoints.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, services, cleanup := mustCreateServices()
	defer cleanup()

	paymentController := controller.NewPaymentController(services.payments)
	giftController := controller.NewGiftController(services.gifts)

	e := setupHTTPServer(paymentController, giftController)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	paymentController *controller.PaymentController,
	giftController *controller.GiftController,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(requireRequestID())

	e.GET("/health", paymentController.Health)

	payment := e.Group("/payment")
	payment.POST("/payos/confirm-webhook", paymentController.ConfirmWebhook)
	payment.POST("/:gateway", paymentController.CreatePayment)
	payment.POST("/:gateway/webhook", paymentController.HandleWebhook)
	payment.GET("/:gateway/check-status", paymentController.CheckStatus)
	payment.GET("/:gateway/transactions", paymentController.ListTransactions)
	payment.POST("/:gateway/cancel", paymentController.CancelPayment)
	payment.POST("/:gateway/refund", paymentController.RefundPayment)
	payment.POST("/:gateway/verify-return", paymentController.VerifyReturn)

	gift := e.Group("/gift")
	gift.POST("/create-payment", giftController.CreateGiftPayment)
	gift.POST("/verify-payment", giftController.VerifyGiftPayment)
	gift.POST("/verify", giftController.VerifyCode)
	gift.POST("/claim", giftController.Claim)
	gift.GET("/sent", giftController.ListSent)
	gift.GET("/received", giftController.ListReceived)
	gift.GET("/:giftId", giftController.GetGift)

	return e
}

func requireRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				requestID = uuid.NewString()
				ctx.Request().Header.Set(echo.HeaderXRequestID, requestID)
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

type checkoutServices struct {
	payments *service.PaymentService
	gifts    *service.GiftService
}

func configureLogging(cfg *config.Config) error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	return nil
}

func mustCreateServices() (*config.Config, *checkoutServices, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	orderRepo := repository.NewOrderRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	giftRepo := repository.NewGiftRepository(db)
	emailRepo := repository.NewGiftEmailRepository(db)
	productRepo := repository.NewProductRepository(db)

	momoGateway := gateway.NewMoMoGateway(gateway.MoMoConfig{
		AccessKey:   cfg.MoMo.AccessKey,
		SecretKey:   cfg.MoMo.SecretKey,
		PartnerCode: cfg.MoMo.PartnerCode,
		PartnerName: cfg.MoMo.PartnerName,
		StoreID:     cfg.MoMo.StoreID,
		Endpoint:    cfg.MoMo.Endpoint,
		IPNURL:      strings.TrimRight(cfg.Payments.CallbackBaseURL, "/") + "/payment/momo/webhook",
		RequestType: cfg.MoMo.RequestType,
		HTTPTimeout: cfg.MoMo.HTTPTimeout,
	})
	payosGateway, err := gateway.NewPayOSGateway(gateway.PayOSConfig{
		ClientID:    cfg.PayOS.ClientID,
		APIKey:      cfg.PayOS.APIKey,
		ChecksumKey: cfg.PayOS.ChecksumKey,
	})
	if err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to initialize payOS gateway")
	}

	gatewayRegistry := gateway.NewRegistry(momoGateway, payosGateway)
	notifier := notify.NewLogNotifier(logrus.WithField("module", "gift-notifier"))

	orderService := service.NewOrderService(orderRepo)
	giftService := service.NewGiftService(
		giftRepo,
		emailRepo,
		productRepo,
		txRepo,
		orderService,
		gatewayRegistry,
		notifier,
		cfg.Gift,
		cfg.Payments,
		cfg.App,
		logrus.WithField("module", "gift-service"),
	)
	paymentService := service.NewPaymentService(
		gatewayRegistry,
		orderRepo,
		txRepo,
		giftService,
		cfg.Payments,
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, &checkoutServices{payments: paymentService, gifts: giftService}, cleanup
}
