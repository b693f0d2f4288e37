package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type GormConfig struct {
	Driver          string
	DSN             string
	LogLevel        string // silent, error, warn, info
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func getLogger(level string) logger.Interface {
	logLevel := logger.Warn
	switch strings.ToLower(level) {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "info":
		logLevel = logger.Info
	}

	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB, cfg GormConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// An in-memory sqlite database lives and dies with its connection.
	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
		return nil
	}

	maxIdle, maxOpen, lifetime := cfg.MaxIdleConns, cfg.MaxOpenConns, cfg.ConnMaxLifetime
	if maxIdle <= 0 {
		maxIdle = 10
	}
	if maxOpen <= 0 {
		maxOpen = 100
	}
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(lifetime)

	return nil
}

func dialector(cfg GormConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres DSN is empty")
		}
		return postgres.Open(cfg.DSN), nil
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func NewGormDB(cfg GormConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:         getLogger(cfg.LogLevel),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

func NewGormDBFromDSN(dsn string) (*gorm.DB, error) {
	return NewGormDB(GormConfig{Driver: DriverPostgres, DSN: dsn})
}

// NewInMemory opens a private sqlite database, used for local runs and tests.
func NewInMemory() (*gorm.DB, error) {
	return NewGormDB(GormConfig{Driver: DriverSQLite, DSN: ":memory:", LogLevel: "silent"})
}
