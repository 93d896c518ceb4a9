package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buy(t *testing.T, env *testEnv, simID, ticker, amount string) *models.TradeResult {
	t.Helper()
	res, err := env.trading.Purchase(context.Background(), simID, models.TradeRequest{Ticker: ticker, DesiredAmount: dec(amount)})
	require.NoError(t, err)
	return res
}

func TestDepositThenBuy(t *testing.T) {
	env := newTestEnv(t, flatAsset("X", "USD", "100.00", ym(2020, 1), 12))
	sim := env.newSimulation(t, "Scenario", "USD", ym(2020, 1))
	assert.True(t, sim.Balance.IsZero())

	sim = env.deposit(t, sim.ID, "1000.00")
	assert.True(t, sim.Balance.Equal(dec("1000.00")))

	res := buy(t, env, sim.ID, "x", "500.00")
	assert.True(t, res.Simulation.Balance.Equal(dec("500.00")))
	require.NotNil(t, res.Holding)
	assert.True(t, res.Holding.Quantity.Equal(dec("5")), "quantity = %s", res.Holding.Quantity)
	assert.True(t, res.Holding.PurchasePrice.Equal(dec("100.00")))
	assert.True(t, res.Holding.MarketValue.Equal(dec("500.00")))
	assert.True(t, res.Holding.Weight.Equal(dec("100.00")))
	assert.Equal(t, "X Inc.", res.Holding.Name)

	holdings, err := env.holdings.List(context.Background(), sim.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.True(t, holdings[0].Quantity.Equal(dec("5")))

	history, err := env.store.GetHistoryMonth(context.Background(), sim.ID, ym(2020, 1))
	require.NoError(t, err)
	require.Len(t, history.Operations, 2)
	assert.Equal(t, models.OperationPurchase, history.Operations[1].Type)
	assert.True(t, history.Operations[1].Amount.Equal(dec("-500")))
	assert.Equal(t, "X", *history.Operations[1].Ticker)
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, flatAsset("X", "USD", "100.00", ym(2020, 1), 12))
	sim := env.newSimulation(t, "Scenario", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "100.00")

	_, err := env.trading.Purchase(context.Background(), sim.ID, models.TradeRequest{Ticker: "X", DesiredAmount: dec("500.00")})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficientFunds), "got %v", err)

	assert.True(t, env.balance(t, sim.ID).Equal(dec("100")))
	holdings, err := env.holdings.List(context.Background(), sim.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestSaleExceedingPosition(t *testing.T) {
	env := newTestEnv(t, flatAsset("X", "USD", "102.50", ym(2020, 1), 12))
	sim := env.newSimulation(t, "Scenario", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "102.50")
	buy(t, env, sim.ID, "X", "102.50")

	_, err := env.trading.Sell(context.Background(), sim.ID, models.TradeRequest{Ticker: "X", DesiredAmount: dec("500.00")})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficientPosition), "got %v", err)
	assert.Contains(t, err.Error(), "Available: 102.5")

	h, err := env.store.GetHolding(context.Background(), sim.ID, "X")
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.True(t, h.Quantity.Equal(dec("1")))
	assert.True(t, env.balance(t, sim.ID).IsZero())
}

func TestSellPartialAndClose(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, flatAsset("X", "USD", "100.00", ym(2020, 1), 12))
	sim := env.newSimulation(t, "Scenario", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "1000.00")
	buy(t, env, sim.ID, "X", "500.00")

	res, err := env.trading.Sell(ctx, sim.ID, models.TradeRequest{Ticker: "X", DesiredAmount: dec("200.00")})
	require.NoError(t, err)
	require.NotNil(t, res.Holding)
	assert.True(t, res.Holding.Quantity.Equal(dec("3")))
	assert.True(t, res.Holding.MarketValue.Equal(dec("300")))
	assert.True(t, res.Simulation.Balance.Equal(dec("700")))

	res, err = env.trading.Sell(ctx, sim.ID, models.TradeRequest{Ticker: "X", DesiredAmount: dec("300.00")})
	require.NoError(t, err)
	assert.Nil(t, res.Holding)
	assert.True(t, res.Simulation.Balance.Equal(dec("1000")))

	holdings, err := env.holdings.List(ctx, sim.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings)

	history, err := env.store.GetHistoryMonth(ctx, sim.ID, ym(2020, 1))
	require.NoError(t, err)
	require.Len(t, history.Operations, 4)
	assert.Equal(t, models.OperationSale, history.Operations[3].Type)
	assert.True(t, history.Operations[3].Amount.Equal(dec("300")))
}

func TestSellResidualBelowEpsilonClosesPosition(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, flatAsset("X", "USD", "1000000.00", ym(2020, 1), 12))
	sim := env.newSimulation(t, "Scenario", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "100.00")
	res := buy(t, env, sim.ID, "X", "100.00")
	require.True(t, res.Holding.Quantity.Equal(dec("0.0001")))

	// Leaves 0.00000001 units, below the epsilon.
	res, err := env.trading.Sell(ctx, sim.ID, models.TradeRequest{Ticker: "X", DesiredAmount: dec("99.99")})
	require.NoError(t, err)
	assert.Nil(t, res.Holding)
	assert.True(t, res.Simulation.Balance.Equal(dec("99.99")))

	h, err := env.store.GetHolding(ctx, sim.ID, "X")
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestSellWithoutHolding(t *testing.T) {
	env := newTestEnv(t, flatAsset("X", "USD", "100.00", ym(2020, 1), 12))
	sim := env.newSimulation(t, "Scenario", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "100.00")

	_, err := env.trading.Sell(context.Background(), sim.ID, models.TradeRequest{Ticker: "X", DesiredAmount: dec("10.00")})
	assert.True(t, apperrors.Is(err, apperrors.KindInsufficientPosition), "got %v", err)
	assert.True(t, env.balance(t, sim.ID).Equal(dec("100")))
}

func TestPurchaseAssetErrors(t *testing.T) {
	late := flatAsset("LATE", "USD", "10.00", ym(2021, 1), 12)
	old := flatAsset("OLD", "USD", "10.00", ym(2018, 1), 6)
	env := newTestEnv(t, late, old)
	sim := env.newSimulation(t, "Scenario", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "1000.00")

	cases := []struct {
		ticker string
		kind   apperrors.Kind
	}{
		{"NOPE", apperrors.KindAssetNotFound},
		{"LATE", apperrors.KindAssetNotFound},
		{"OLD", apperrors.KindPriceUnavailable},
	}
	for _, c := range cases {
		_, err := env.trading.Purchase(context.Background(), sim.ID, models.TradeRequest{Ticker: c.ticker, DesiredAmount: dec("100.00")})
		assert.Equal(t, c.kind, apperrors.KindOf(err), "%s: %v", c.ticker, err)
	}
	assert.True(t, env.balance(t, sim.ID).Equal(dec("1000")))
}

func TestTradeValidation(t *testing.T) {
	env := newTestEnv(t, flatAsset("X", "USD", "100.00", ym(2020, 1), 12))
	sim := env.newSimulation(t, "Scenario", "USD", ym(2020, 1))

	for _, req := range []models.TradeRequest{
		{Ticker: "", DesiredAmount: dec("10")},
		{Ticker: "X", DesiredAmount: dec("0")},
		{Ticker: "X", DesiredAmount: dec("10.005")},
	} {
		_, err := env.trading.Purchase(context.Background(), sim.ID, req)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation), "%+v: %v", req, err)
		_, err = env.trading.Sell(context.Background(), sim.ID, req)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation), "%+v: %v", req, err)
	}
}

func TestPurchaseConvertsCurrency(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, flatAsset("AAPL", "USD", "100.00", ym(2020, 1), 12))
	sim := env.newSimulation(t, "Brazil", "BRL", ym(2020, 1))
	env.deposit(t, sim.ID, "2000.00")

	_, err := env.trading.Purchase(ctx, sim.ID, models.TradeRequest{Ticker: "AAPL", DesiredAmount: dec("1000.00")})
	assert.True(t, apperrors.Is(err, apperrors.KindGateway), "got %v", err)
	assert.True(t, env.balance(t, sim.ID).Equal(dec("2000")))

	require.NoError(t, env.currencies.StoreRate(ctx, "USD", "BRL", ym(2020, 1), dec("5.0"), "test"))

	res := buy(t, env, sim.ID, "AAPL", "1000.00")
	require.NotNil(t, res.Holding)
	assert.Equal(t, "USD", res.Holding.Currency)
	assert.True(t, res.Price.Equal(dec("500")))
	assert.True(t, res.Holding.Quantity.Equal(dec("2")))
	assert.True(t, res.Holding.PurchasePrice.Equal(dec("500")))
	assert.True(t, res.Holding.MarketValue.Equal(dec("1000")))
}

func TestWeightsSumToHundred(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t,
		flatAsset("A", "USD", "33.33", ym(2020, 1), 12),
		flatAsset("B", "USD", "7.77", ym(2020, 1), 12),
		flatAsset("C", "USD", "101.01", ym(2020, 1), 12),
	)
	sim := env.newSimulation(t, "Weights", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "1000.00")
	buy(t, env, sim.ID, "A", "100.00")
	buy(t, env, sim.ID, "B", "200.00")
	buy(t, env, sim.ID, "C", "300.01")

	holdings, err := env.holdings.List(ctx, sim.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 3)

	sum := decimal.Zero
	for _, h := range holdings {
		assert.LessOrEqual(t, money.FractionalDigits(h.Weight), int32(2))
		assert.True(t, h.MarketValue.LessThanOrEqual(h.Quantity.Mul(h.CurrentPrice)))
		sum = sum.Add(h.Weight)
	}
	tolerance := dec("0.01").Mul(decimal.NewFromInt(int64(len(holdings))))
	assert.True(t, sum.LessThanOrEqual(dec("100")), "sum = %s", sum)
	assert.True(t, dec("100").Sub(sum).LessThanOrEqual(tolerance), "sum = %s", sum)
}

func TestRepeatedBuyKeepsFirstFillPrice(t *testing.T) {
	ctx := context.Background()
	x := flatAsset("X", "USD", "100.00", ym(2020, 1), 12)
	setMonth(x, ym(2020, 2), "200.00", "")
	env := newTestEnv(t, x)
	sim := env.newSimulation(t, "Averaging", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "1000.00")
	buy(t, env, sim.ID, "X", "100.00")

	_, err := env.time.Advance(ctx, sim.ID)
	require.NoError(t, err)

	res := buy(t, env, sim.ID, "X", "200.00")
	require.NotNil(t, res.Holding)
	assert.True(t, res.Holding.Quantity.Equal(dec("2")))
	assert.True(t, res.Holding.PurchasePrice.Equal(dec("100")))
	assert.True(t, res.Holding.CurrentPrice.Equal(dec("200")))

	summary, err := env.holdings.Summary(ctx, sim.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalHoldings)
	assert.True(t, summary.TotalMarketValue.Equal(dec("400")))
	assert.True(t, summary.TotalInvested.Equal(dec("200")))
	assert.True(t, summary.TotalGainLoss.Equal(dec("200")))
	assert.True(t, summary.GainLossPercentage.Equal(dec("100")))
}

func TestRecomputeAllRefreshesPrices(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, flatAsset("X", "USD", "100.00", ym(2020, 1), 12), flatAsset("Y", "USD", "50.00", ym(2020, 1), 12))
	sim := env.newSimulation(t, "Recompute", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "1000.00")
	buy(t, env, sim.ID, "X", "300.00")
	buy(t, env, sim.ID, "Y", "100.00")

	// Corrupt the stored valuation; recompute must rebuild it from prices.
	h, err := env.store.GetHolding(ctx, sim.ID, "X")
	require.NoError(t, err)
	h.MarketValue = dec("1")
	h.Weight = dec("1")
	require.NoError(t, env.store.SaveHolding(ctx, h))

	holdings, err := env.holdings.RecomputeAll(ctx, sim.ID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.True(t, holdings[0].MarketValue.Equal(dec("300")))
	assert.True(t, holdings[0].Weight.Equal(dec("75")))
	assert.True(t, holdings[1].Weight.Equal(dec("25")))
}

func TestMarketValueTruncates(t *testing.T) {
	env := newTestEnv(t, flatAsset("X", "USD", "3.00", ym(2020, 1), 12))
	sim := env.newSimulation(t, "Truncation", "USD", ym(2020, 1))
	env.deposit(t, sim.ID, "100.00")

	res := buy(t, env, sim.ID, "X", "10.00")
	require.NotNil(t, res.Holding)
	// 10 / 3 * 3 = 9.999... which truncates, never rounds up.
	assert.True(t, res.Holding.MarketValue.Equal(dec("9.99")), "market value = %s", res.Holding.MarketValue)
	assert.True(t, res.Holding.Weight.Equal(dec("100")))
	assert.True(t, res.Holding.Quantity.GreaterThan(dec("3.3333333333")))
	assert.True(t, res.Holding.Quantity.LessThan(dec("3.3333333334")))
}
