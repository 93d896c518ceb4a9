package services

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAdvancePaysDividend(t *testing.T) {
	ctx := context.Background()
	x := flatAsset("X", "USD", "100.00", ym(2020, 1), 12)
	setMonth(x, ym(2020, 2), "", "0.24")
	env := newTestEnv(t, x)
	sim := env.newSimulation(t, "Dividends", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "1000.00")
	buy(t, env, sim.ID, "X", "1000.00")
	require.True(t, env.balance(t, sim.ID).IsZero())

	report, err := env.time.Advance(ctx, sim.ID)
	require.NoError(t, err)

	assert.True(t, report.PreviousDate.Equal(ym(2020, 1)))
	assert.True(t, report.NewDate.Equal(ym(2020, 2)))
	assert.True(t, report.PreviousBalance.IsZero())
	assert.True(t, report.NewBalance.Equal(dec("2.40")), "new balance = %s", report.NewBalance)
	assert.True(t, report.TotalDividends.Equal(dec("2.40")))
	require.Len(t, report.Dividends, 1)
	assert.Equal(t, "X", report.Dividends[0].Ticker)
	assert.True(t, report.Dividends[0].DividendPerShare.Equal(dec("0.24")))
	assert.True(t, report.Dividends[0].Quantity.Equal(dec("10")))
	assert.Empty(t, report.SkippedDividends)

	assert.True(t, env.balance(t, sim.ID).Equal(dec("2.4")))
	history, err := env.store.GetHistoryMonth(ctx, sim.ID, ym(2020, 2))
	require.NoError(t, err)
	require.NotNil(t, history)
	require.Len(t, history.Operations, 1)
	assert.Equal(t, models.OperationDividend, history.Operations[0].Type)
	assert.True(t, history.Operations[0].Amount.Equal(dec("2.40")))
	assert.Equal(t, "X", *history.Operations[0].Ticker)
	assert.True(t, history.Total.Equal(dec("2.4")))
}

func TestAdvanceUpdatesPricesAndSnapshots(t *testing.T) {
	ctx := context.Background()
	x := flatAsset("X", "USD", "100.00", ym(2020, 1), 12)
	setMonth(x, ym(2020, 2), "110.00", "")
	y := flatAsset("Y", "USD", "50.00", ym(2020, 1), 12)
	setMonth(y, ym(2020, 2), "45.00", "")
	env := newTestEnv(t, x, y)
	sim := env.newSimulation(t, "Prices", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "1000.00")
	buy(t, env, sim.ID, "X", "500.00")
	buy(t, env, sim.ID, "Y", "500.00")

	report, err := env.time.Advance(ctx, sim.ID)
	require.NoError(t, err)

	assert.True(t, report.PreviousPortfolioValue.Equal(dec("1000")))
	assert.True(t, report.NewPortfolioValue.Equal(dec("1000")))
	require.Len(t, report.PriceUpdates, 2)
	assert.Equal(t, "X", report.PriceUpdates[0].Ticker)
	assert.True(t, report.PriceUpdates[0].Change.Equal(dec("10")))
	assert.True(t, report.PriceUpdates[0].ChangePercent.Equal(dec("10")))
	assert.True(t, report.PriceUpdates[1].Change.Equal(dec("-5")))
	assert.True(t, report.PriceUpdates[1].ChangePercent.Equal(dec("-10")))

	holdings, err := env.holdings.List(ctx, sim.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.True(t, holdings[0].MarketValue.Equal(dec("550")))
	assert.True(t, holdings[0].Weight.Equal(dec("55")))
	assert.True(t, holdings[1].MarketValue.Equal(dec("450")))
	assert.True(t, holdings[1].Weight.Equal(dec("45")))

	info, err := env.snapshots.Info(ctx, sim.ID)
	require.NoError(t, err)
	require.True(t, info.Exists)
	assert.True(t, info.MonthDate.Equal(ym(2020, 1)))
	assert.Equal(t, 2, info.HoldingsCount)

	restored, err := env.snapshots.Restore(ctx, sim.ID)
	require.NoError(t, err)
	assert.True(t, restored.CurrentDate.Equal(ym(2020, 1)))
	holdings, err = env.holdings.List(ctx, sim.ID)
	require.NoError(t, err)
	assert.True(t, holdings[0].MarketValue.Equal(dec("500")))
}

func TestCanAdvanceAtPresent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sim := env.newSimulation(t, "Present", "USD", testNow)

	check, err := env.time.CanAdvance(ctx, sim.ID)
	require.NoError(t, err)
	assert.False(t, check.CanAdvance)
	assert.Contains(t, check.Reason, "Cannot advance beyond present")

	_, err = env.time.Advance(ctx, sim.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindAdvanceBlocked), "got %v", err)

	info, err := env.snapshots.Info(ctx, sim.ID)
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestCanAdvanceMissingNextMonth(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, flatAsset("X", "USD", "100.00", ym(2020, 1), 1), flatAsset("Y", "USD", "10.00", ym(2020, 1), 6))
	sim := env.newSimulation(t, "Missing", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "100.00")
	buy(t, env, sim.ID, "X", "50.00")
	buy(t, env, sim.ID, "Y", "50.00")

	check, err := env.time.CanAdvance(ctx, sim.ID)
	require.NoError(t, err)
	assert.False(t, check.CanAdvance)
	assert.Equal(t, []string{"X"}, check.MissingTickers)
	assert.Equal(t, 2, check.HoldingsCount)

	_, err = env.time.Advance(ctx, sim.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindAdvanceBlocked))

	loaded, err := env.store.GetSimulation(ctx, sim.ID)
	require.NoError(t, err)
	assert.True(t, loaded.CurrentDate.Equal(ym(2020, 1)))
}

func TestCanAdvanceEmptyPortfolio(t *testing.T) {
	env := newTestEnv(t)
	sim := env.newSimulation(t, "Empty", "USD", ym(2024, 12))

	check, err := env.time.CanAdvance(context.Background(), sim.ID)
	require.NoError(t, err)
	assert.True(t, check.CanAdvance)
	require.NotNil(t, check.NextMonth)
	assert.True(t, check.NextMonth.Equal(ym(2025, 1)))

	report, err := env.time.Advance(context.Background(), sim.ID)
	require.NoError(t, err)
	assert.True(t, report.NewDate.Equal(ym(2025, 1)))
	assert.Empty(t, report.Dividends)
	assert.Empty(t, report.PriceUpdates)
}

func TestAdvanceSkipsUnconvertibleDividend(t *testing.T) {
	ctx := context.Background()
	eur := flatAsset("SAP", "EUR", "100.00", ym(2020, 1), 12)
	setMonth(eur, ym(2020, 2), "", "1.50")
	usd := flatAsset("X", "USD", "100.00", ym(2020, 1), 12)
	setMonth(usd, ym(2020, 2), "", "0.50")
	env := newTestEnv(t, eur, usd)
	require.NoError(t, env.currencies.StoreRate(ctx, "EUR", "USD", ym(2020, 1), dec("1.10"), "test"))

	sim := env.newSimulation(t, "Skip", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "1100.00")
	buy(t, env, sim.ID, "SAP", "550.00")
	buy(t, env, sim.ID, "X", "500.00")

	// Dividend conversion goes through a gateway that is down.
	advancer := NewTimeService(env.store, env.ledger, env.holdings, env.snapshots, env.market, failingCurrencyGateway{}, env.locks, zap.NewNop())
	advancer.SetClock(env.time.now)

	report, err := advancer.Advance(ctx, sim.ID)
	require.NoError(t, err)
	require.Len(t, report.SkippedDividends, 1)
	assert.Equal(t, "SAP", report.SkippedDividends[0].Ticker)
	require.Len(t, report.Dividends, 1)
	assert.Equal(t, "X", report.Dividends[0].Ticker)
	assert.True(t, report.TotalDividends.Equal(dec("2.5")))
	assert.True(t, env.balance(t, sim.ID).Equal(dec("52.5")))
}

func TestAdvanceConvertsDividend(t *testing.T) {
	ctx := context.Background()
	eur := flatAsset("SAP", "EUR", "100.00", ym(2020, 1), 12)
	setMonth(eur, ym(2020, 2), "", "1.00")
	env := newTestEnv(t, eur)
	require.NoError(t, env.currencies.StoreRate(ctx, "USD", "EUR", ym(2020, 1), dec("0.8"), "test"))

	sim := env.newSimulation(t, "Convert", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "1250.00")
	res := buy(t, env, sim.ID, "SAP", "1250.00")
	require.True(t, res.Price.Equal(dec("125")), "price = %s", res.Price)

	report, err := env.time.Advance(ctx, sim.ID)
	require.NoError(t, err)
	require.Len(t, report.Dividends, 1)
	assert.True(t, report.Dividends[0].DividendPerShare.Equal(dec("1.25")))
	assert.True(t, report.TotalDividends.Equal(dec("12.5")))
	assert.True(t, env.balance(t, sim.ID).Equal(dec("12.5")))
}

func TestAdvanceUnknownSimulation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.time.Advance(context.Background(), "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindSimulationNotFound))
	_, err = env.time.CanAdvance(context.Background(), "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindSimulationNotFound))
}

func TestServicesAcceptNilLogger(t *testing.T) {
	ctx := context.Background()
	x := flatAsset("X", "USD", "100.00", ym(2020, 1), 12)
	setMonth(x, ym(2020, 2), "", "0.50")
	env := newTestEnv(t, x)

	simulations := NewSimulationService(env.store, env.locks, nil)
	ledger := NewLedgerService(env.store, nil, env.locks, nil)
	holdings := NewHoldingService(env.store, env.market, env.currencies, env.locks, nil)
	trading := NewTradingService(env.store, ledger, holdings, env.market, env.locks, nil)
	snapshots := NewSnapshotService(env.store, env.locks, nil)
	timeline := NewTimeService(env.store, ledger, holdings, snapshots, env.market, env.currencies, env.locks, nil)
	timeline.SetClock(func() time.Time { return testNow })

	sim, err := simulations.Create(ctx, models.CreateSimulationRequest{Name: "Quiet", StartDate: ym(2020, 1), BaseCurrency: "USD"})
	require.NoError(t, err)
	_, err = ledger.Apply(ctx, sim.ID, models.BalanceOperation{
		Amount:          dec("1000.00"),
		Direction:       models.Credit,
		Category:        models.OperationContribution,
		AdjustInflation: true,
	})
	require.NoError(t, err)
	_, err = trading.Purchase(ctx, sim.ID, models.TradeRequest{Ticker: "X", DesiredAmount: dec("500.00")})
	require.NoError(t, err)
	_, err = snapshots.Capture(ctx, sim.ID)
	require.NoError(t, err)

	report, err := timeline.Advance(ctx, sim.ID)
	require.NoError(t, err)
	assert.True(t, report.TotalDividends.Equal(dec("2.50")))

	_, err = trading.Sell(ctx, sim.ID, models.TradeRequest{Ticker: "X", DesiredAmount: dec("100.00")})
	require.NoError(t, err)
	_, err = snapshots.Restore(ctx, sim.ID)
	require.NoError(t, err)
	require.NoError(t, simulations.Delete(ctx, sim.ID))
}

func TestPriceUpdateTruncatesPercent(t *testing.T) {
	cases := []struct {
		old, new, want string
	}{
		{"6", "7", "16.66"},
		{"6", "5", "-16.66"},
		{"100", "110", "10"},
		{"0", "5", "0"},
	}
	for _, c := range cases {
		u := priceUpdate("X", dec(c.old), dec(c.new))
		assert.True(t, u.ChangePercent.Equal(dec(c.want)), "%s -> %s: got %s", c.old, c.new, u.ChangePercent)
		assert.True(t, u.Change.Equal(dec(c.new).Sub(dec(c.old))))
	}
}
