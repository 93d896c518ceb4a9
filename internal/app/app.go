// Package app assembles the simulator from configuration: database,
// gateways and services shared by the HTTP server and the CLI.
package app

import (
	"fmt"
	"net/http"

	"github.com/simfolio/backend/internal/config"
	"github.com/simfolio/backend/internal/db"
	"github.com/simfolio/backend/internal/handlers"
	"github.com/simfolio/backend/internal/repositories"
	"github.com/simfolio/backend/internal/services"
	"go.uber.org/zap"
)

type App struct {
	Config config.Config
	Logger *zap.Logger
	DB     *db.DB
	Store  *repositories.Store

	Market     *services.MarketDataGateway
	Currencies *services.RateCurrencyGateway
	Inflation  *services.InflationService
	Indices    map[string]*services.IndexMultiplierProvider

	Simulations *services.SimulationService
	Ledger      *services.LedgerService
	Holdings    *services.HoldingService
	Trading     *services.TradingService
	Snapshots   *services.SnapshotService
	Time        *services.TimeService
}

// New connects to the database, migrates it and wires every service.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	database, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, err
	}

	store := repositories.NewStore(database)
	locks := services.NewSimulationLocks()

	market := services.NewMarketDataGateway(
		services.NewFileAssetSource(cfg.Market.DataDir),
		services.NewAssetCache(cfg.Market.CacheSize),
		logger.Named("market"),
	)
	currencies := services.NewRateCurrencyGateway(store)

	inflation := services.NewInflationService()
	indices := make(map[string]*services.IndexMultiplierProvider, len(cfg.Inflation.Currencies))
	for _, ccy := range cfg.Inflation.Currencies {
		provider := services.NewIndexMultiplierProvider(store, ccy)
		inflation.Register(ccy, provider)
		indices[provider.Currency()] = provider
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		DB:         database,
		Store:      store,
		Market:     market,
		Currencies: currencies,
		Inflation:  inflation,
		Indices:    indices,
	}
	a.Simulations = services.NewSimulationService(store, locks, logger.Named("simulations"))
	a.Ledger = services.NewLedgerService(store, inflation, locks, logger.Named("ledger"))
	a.Holdings = services.NewHoldingService(store, market, currencies, locks, logger.Named("holdings"))
	a.Trading = services.NewTradingService(store, a.Ledger, a.Holdings, market, locks, logger.Named("trading"))
	a.Snapshots = services.NewSnapshotService(store, locks, logger.Named("snapshots"))
	a.Time = services.NewTimeService(store, a.Ledger, a.Holdings, a.Snapshots, market, currencies, locks, logger.Named("time"))
	return a, nil
}

// Index returns the index provider for currency, creating and registering
// one when the currency was not configured.
func (a *App) Index(currency string) *services.IndexMultiplierProvider {
	provider := services.NewIndexMultiplierProvider(a.Store, currency)
	if existing, ok := a.Indices[provider.Currency()]; ok {
		return existing
	}
	a.Inflation.Register(provider.Currency(), provider)
	a.Indices[provider.Currency()] = provider
	return provider
}

// Router builds the HTTP handler over the app's services.
func (a *App) Router() http.Handler {
	return handlers.NewRouter(handlers.Handlers{
		Simulations: handlers.NewSimulationHandler(a.Simulations, a.Logger),
		Portfolio:   handlers.NewPortfolioHandler(a.Ledger, a.Trading, a.Holdings, a.Logger),
		Timeline:    handlers.NewTimelineHandler(a.Time, a.Snapshots, a.Logger),
	}, handlers.RouterOptions{
		RequestTimeout: a.Config.Gateway.Timeout,
		Health:         a.DB.Health,
		Logger:         a.Logger.Named("http"),
	})
}

func (a *App) Close() error {
	return a.DB.Close()
}
