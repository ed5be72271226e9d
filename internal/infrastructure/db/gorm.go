package db

import (
	"fmt"
	"time"

	"credlink/internal/config"
	"credlink/internal/domain/ledger"
	"credlink/internal/domain/loan"
	"credlink/internal/domain/pool"
	"credlink/internal/domain/user"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the GORM driver for cfg.DBDriver.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "mysql":
		return mysql.Open(cfg.MySQLDSN()), nil
	case "postgres":
		return postgres.Open(cfg.PostgresDSN), nil
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath), nil
	}
	return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
}

func OpenGorm(cfg *config.Config) (*gorm.DB, error) {
	dial, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return OpenGormWithDialector(dial, WithLogLevel(cfg.DBLogLevel))
}

type Option func(*gorm.Config)

func WithLogLevel(level string) Option {
	return func(c *gorm.Config) { c.Logger = logger.Default.LogMode(parseLogLevel(level)) }
}

// OpenGormWithDialector opens and pings; duplicate-key errors are translated
// into gorm.ErrDuplicatedKey.
func OpenGormWithDialector(dial gorm.Dialector, opts ...Option) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
	for _, o := range opts {
		o(cfg)
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the engine tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.Profile{},
		&pool.Pool{},
		&loan.Loan{},
		&ledger.Record{},
	)
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	}
	return logger.Warn
}
