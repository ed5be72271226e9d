package main

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	httpadp "credlink/internal/adapter/http"
	"credlink/internal/adapter/middleware"
	"credlink/internal/adapter/repository/gormrepo"
	"credlink/internal/config"
	"credlink/internal/domain/collateral"
	domainUser "credlink/internal/domain/user"
	"credlink/internal/infrastructure/cache"
	"credlink/internal/infrastructure/db"
	"credlink/internal/infrastructure/metrics"
	"credlink/internal/infrastructure/oracle"
	"credlink/internal/usecase/credit"
	ledgerUC "credlink/internal/usecase/ledger"
	"credlink/internal/usecase/liquidation"
	loanUC "credlink/internal/usecase/loan"
	poolUC "credlink/internal/usecase/pool"
	"credlink/pkg/clock"
)

// app holds the wired engine shared by the serve and sweep commands.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
	rdb *redis.Client
	reg *prometheus.Registry

	credits      *credit.Usecase
	pools        *poolUC.Usecase
	loans        *loanUC.Usecase
	liquidations *liquidation.Usecase
	valuer       *oracle.Valuer
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	gdb, err := db.OpenGorm(cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		if sqlDB, errDB := gdb.DB(); errDB == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("open redis: %w", err)
	}

	// validated in config.Validate
	prices, _ := cfg.StaticPrices()
	valuer := oracle.NewValuer(oracle.NewRedis(rdb, cfg.OracleRedisPrefix, oracle.NewStatic(prices)))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clk := clock.System()
	tx := gormrepo.NewGormUoW(gdb)
	policy := domainUser.ScorePolicy{
		OnTimeReward:   cfg.ScoreOnTimeReward,
		LatePenalty:    cfg.ScoreLatePenalty,
		DefaultPenalty: cfg.ScoreDefaultPenalty,
	}

	credits := credit.NewUsecase(tx, policy, clk, log.Named("credit"))
	pools := poolUC.NewUsecase(tx, log.Named("pool"))
	ledger := ledgerUC.NewUsecase(tx, clk)
	loans := loanUC.NewUsecase(tx, loanUC.Deps{
		Credits:    credits,
		Pools:      pools,
		Ledger:     ledger,
		Classifier: collateral.NewClassifier(cfg.Stablecoins, cfg.NativeAsset),
		Clock:      clk,
		Log:        log.Named("loan"),
		Metrics:    m,
	})
	liq := liquidation.NewUsecase(tx, liquidation.Deps{
		Credits: credits,
		Pools:   pools,
		Ledger:  ledger,
		Clock:   clk,
		Log:     log.Named("liquidation"),
		Metrics: m,
	})

	return &app{
		cfg:          cfg,
		log:          log,
		db:           gdb,
		rdb:          rdb,
		reg:          reg,
		credits:      credits,
		pools:        pools,
		loans:        loans,
		liquidations: liq,
		valuer:       valuer,
	}, nil
}

func (a *app) router() *echo.Echo {
	return httpadp.NewRouter(httpadp.RouterDeps{
		Health:       httpadp.NewHandler(a.healthChecks()),
		Users:        httpadp.NewUserHandler(a.credits, a.loans),
		Pools:        httpadp.NewPoolHandler(a.pools),
		Loans:        httpadp.NewLoanHandler(a.loans),
		Liquidations: httpadp.NewLiquidationHandler(a.liquidations, a.valuer, a.cfg.SweepLimit),
		Auth: middleware.AuthConfig{
			Enabled: a.cfg.AuthEnabled,
			Window:  a.cfg.AuthWindow,
			Admins:  a.cfg.AdminAddresses,
		},
		Redis:    a.rdb,
		IdempTTL: time.Duration(a.cfg.IdempTTLSecs) * time.Second,
		Gatherer: a.reg,
		Log:      a.log.Named("http"),
	})
}

func (a *app) healthChecks() map[string]httpadp.Check {
	return map[string]httpadp.Check{
		"db": func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		},
	}
}

func (a *app) Close() {
	_ = a.rdb.Close()
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
