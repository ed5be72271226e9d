package http

import (
	"time"

	"credlink/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Health       *Handler
	Users        *UserHandler
	Pools        *PoolHandler
	Loans        *LoanHandler
	Liquidations *LiquidationHandler

	Auth     middleware.AuthConfig
	Redis    *redis.Client
	IdempTTL time.Duration
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

// NewRouter wires every route. Mutating routes pass signature auth first,
// then idempotency, so replays are scoped to the authenticated caller.
func NewRouter(d RouterDeps) *echo.Echo {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	d.Auth.Log = d.Log

	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.Use(echomw.Recover(), requestLogger(d.Log))

	e.GET("/health", d.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	api := e.Group("",
		middleware.SignatureAuth(d.Redis, d.Auth),
		middleware.IdempotencyMiddleware(d.Redis, d.IdempTTL, d.Log),
	)
	admin := middleware.RequireAdmin(d.Auth)

	api.POST("/users", d.Users.Register)
	api.GET("/users/:address", d.Users.GetProfile)
	api.PUT("/users/:address/verification", d.Users.SetVerification, admin)
	api.GET("/users/:address/loans", d.Users.ListLoans)

	api.POST("/pools", d.Pools.CreatePool, admin)
	api.GET("/pools/:asset", d.Pools.GetPool)
	api.POST("/pools/:asset/fund", d.Pools.Fund, admin)

	api.POST("/loans", d.Loans.Originate)
	api.GET("/loans", d.Loans.ListActive)
	api.GET("/loans/:loan_id", d.Loans.GetLoan)
	api.POST("/loans/:loan_id/repay", d.Loans.Repay)
	api.POST("/loans/:loan_id/evaluate", d.Liquidations.Evaluate)
	api.POST("/loans/:loan_id/default", d.Liquidations.Default, admin)
	api.POST("/liquidations/sweep", d.Liquidations.Sweep, admin)

	return e
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if caller := middleware.CallerFrom(c); caller != "" {
				fields = append(fields, zap.String("caller", caller))
			}
			if v.Error != nil {
				log.Error("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
