package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simfolio/backend/internal/config"
	"github.com/simfolio/backend/internal/db"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/repositories"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- Fakes and mocks for the gateways used in unit tests ----

// memoryAssetSource serves asset series from memory and counts loads.
type memoryAssetSource struct {
	mu     sync.Mutex
	assets map[string]*models.AssetData
	loads  map[string]int
}

func newMemoryAssetSource(assets ...*models.AssetData) *memoryAssetSource {
	src := &memoryAssetSource{assets: map[string]*models.AssetData{}, loads: map[string]int{}}
	for _, a := range assets {
		a.GapFill()
		src.assets[a.Ticker] = a
	}
	return src
}

func (m *memoryAssetSource) Load(ctx context.Context, ticker string) (*models.AssetData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads[ticker]++
	a, ok := m.assets[ticker]
	if !ok {
		return nil, apperrors.New(apperrors.KindAssetNotFound, "asset %q not found", ticker)
	}
	return a, nil
}

func (m *memoryAssetSource) loadCount(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[ticker]
}

type mockInflationGateway struct {
	mock.Mock
}

func (m *mockInflationGateway) Deflate(ctx context.Context, amount decimal.Decimal, currency string, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, amount, currency, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockMultiplierProvider struct {
	mock.Mock
}

func (m *mockMultiplierProvider) AccumulatedMultiplier(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// ---- Test environment ----

var testNow = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store       *repositories.Store
	source      *memoryAssetSource
	market      *MarketDataGateway
	currencies  *RateCurrencyGateway
	inflation   *mockInflationGateway
	locks       *SimulationLocks
	simulations *SimulationService
	ledger      *LedgerService
	holdings    *HoldingService
	trading     *TradingService
	snapshots   *SnapshotService
	time        *TimeService
}

func newTestEnv(t *testing.T, assets ...*models.AssetData) *testEnv {
	t.Helper()
	database, err := db.Connect(config.DBConfig{Driver: db.DriverSQLite, DSN: "file::memory:?_foreign_keys=on"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())

	logger := zap.NewNop()
	store := repositories.NewStore(database)
	locks := NewSimulationLocks()
	source := newMemoryAssetSource(assets...)
	market := NewMarketDataGateway(source, NewAssetCache(DefaultAssetCacheSize), logger)
	currencies := NewRateCurrencyGateway(store)
	inflation := &mockInflationGateway{}

	env := &testEnv{
		store:      store,
		source:     source,
		market:     market,
		currencies: currencies,
		inflation:  inflation,
		locks:      locks,
	}
	env.simulations = NewSimulationService(store, locks, logger)
	env.ledger = NewLedgerService(store, inflation, locks, logger)
	env.ledger.now = func() time.Time { return testNow }
	env.holdings = NewHoldingService(store, market, currencies, locks, logger)
	env.trading = NewTradingService(store, env.ledger, env.holdings, market, locks, logger)
	env.snapshots = NewSnapshotService(store, locks, logger)
	env.time = NewTimeService(store, env.ledger, env.holdings, env.snapshots, market, currencies, locks, logger)
	env.time.SetClock(func() time.Time { return testNow })
	return env
}

func (e *testEnv) newSimulation(t *testing.T, name, currency string, start time.Time) *models.Simulation {
	t.Helper()
	sim, err := e.simulations.Create(context.Background(), models.CreateSimulationRequest{
		Name:         name,
		StartDate:    start,
		BaseCurrency: currency,
	})
	require.NoError(t, err)
	return sim
}

func (e *testEnv) deposit(t *testing.T, simID, amount string) *models.Simulation {
	t.Helper()
	sim, err := e.ledger.Apply(context.Background(), simID, models.BalanceOperation{
		Amount:    dec(amount),
		Direction: models.Credit,
		Category:  models.OperationContribution,
	})
	require.NoError(t, err)
	return sim
}

func (e *testEnv) balance(t *testing.T, simID string) decimal.Decimal {
	t.Helper()
	sim, err := e.store.GetSimulation(context.Background(), simID)
	require.NoError(t, err)
	return sim.Balance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ym(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// flatAsset builds a series with the same close every month from start
// for n months.
func flatAsset(ticker, currency, price string, start time.Time, n int) *models.AssetData {
	a := &models.AssetData{Ticker: ticker, Name: ticker + " Inc.", Currency: currency}
	for i := 0; i < n; i++ {
		p := dec(price)
		a.Months = append(a.Months, models.AssetMonth{
			Date: models.AddMonths(start, i), Open: p, High: p, Low: p, Close: p,
		})
	}
	return a
}

func setMonth(a *models.AssetData, month time.Time, close, dividend string) {
	for i := range a.Months {
		if a.Months[i].Date.Equal(month) {
			if close != "" {
				a.Months[i].Close = dec(close)
			}
			if dividend != "" {
				a.Months[i].Dividends = dec(dividend)
			}
			return
		}
	}
	panic("month not in series")
}

// failingCurrencyGateway rejects every cross-currency conversion.
type failingCurrencyGateway struct{}

func (failingCurrencyGateway) Convert(ctx context.Context, amount decimal.Decimal, from, to string, month time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	return decimal.Zero, apperrors.New(apperrors.KindGateway, "rate service unreachable")
}
