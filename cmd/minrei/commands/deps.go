package commands

import (
	"fmt"

	"github.com/wonny/minrei/internal/backtest"
	"github.com/wonny/minrei/internal/marketdata"
	"github.com/wonny/minrei/pkg/config"
	"github.com/wonny/minrei/pkg/database"
	"github.com/wonny/minrei/pkg/logger"
)

// app holds the wired dependencies shared by all commands
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB
	engine *backtest.Engine
	refs   *marketdata.ReferenceRepository
}

// bootstrap loads config, connects to the database and wires the engine
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("Connected to database")

	engine := backtest.NewEngine(
		marketdata.NewPositionRepository(db.Pool),
		marketdata.NewPriceRepository(db.Pool),
		marketdata.NewCommodityRepository(db.Pool),
		cfg.Risk,
		log,
	)

	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		engine: engine,
		refs:   marketdata.NewReferenceRepository(db.Pool),
	}, nil
}

func (a *app) close() {
	a.db.Close()
}
