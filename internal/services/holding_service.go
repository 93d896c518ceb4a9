package services

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/money"
	"github.com/simfolio/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// QuantityEpsilon is the smallest position kept; anything below is closed.
var QuantityEpsilon = decimal.New(1, -6)

const maxConcurrentQuotes = 4

// HoldingService owns positions and their valuation.
type HoldingService struct {
	store      *repositories.Store
	prices     PriceGateway
	currencies CurrencyGateway
	locks      *SimulationLocks
	logger     *zap.Logger
}

func NewHoldingService(store *repositories.Store, prices PriceGateway, currencies CurrencyGateway, locks *SimulationLocks, logger *zap.Logger) *HoldingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HoldingService{
		store:      store,
		prices:     prices,
		currencies: currencies,
		locks:      locks,
		logger:     logger,
	}
}

// Quote returns the closing price of ticker at month converted to the
// simulation's base currency.
func (s *HoldingService) Quote(ctx context.Context, sim *models.Simulation, ticker, nativeCurrency string, month time.Time) (decimal.Decimal, error) {
	price, err := s.prices.GetPrice(ctx, ticker, month)
	if err != nil {
		return decimal.Zero, err
	}
	if nativeCurrency == "" || nativeCurrency == sim.BaseCurrency {
		return price, nil
	}
	return s.currencies.Convert(ctx, price, nativeCurrency, sim.BaseCurrency, month)
}

// quoteAll prices every holding at month, concurrently.
func (s *HoldingService) quoteAll(ctx context.Context, sim *models.Simulation, holdings []models.Holding, month time.Time) (map[string]decimal.Decimal, error) {
	var mu sync.Mutex
	quotes := make(map[string]decimal.Decimal, len(holdings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuotes)
	for _, h := range holdings {
		g.Go(func() error {
			price, err := s.Quote(gctx, sim, h.Ticker, h.Currency, month)
			if err != nil {
				return err
			}
			mu.Lock()
			quotes[h.Ticker] = price
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}

// recompute rewrites current price, market value and weight of every
// holding on tx. quotes must cover every held ticker.
func (s *HoldingService) recompute(ctx context.Context, tx *repositories.Store, simulationID string, quotes map[string]decimal.Decimal) ([]models.Holding, error) {
	holdings, err := tx.ListHoldings(ctx, simulationID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range holdings {
		h := &holdings[i]
		price, ok := quotes[h.Ticker]
		if !ok {
			return nil, apperrors.New(apperrors.KindPriceUnavailable, "no quote for %s", h.Ticker)
		}
		h.CurrentPrice = price
		h.MarketValue = money.TruncateCash(h.Quantity.Mul(price))
		total = total.Add(h.MarketValue)
	}

	for i := range holdings {
		holdings[i].Weight = money.Percent(holdings[i].MarketValue, total)
		if err := tx.SaveHolding(ctx, &holdings[i]); err != nil {
			return nil, err
		}
	}
	return holdings, nil
}

// RecomputeAll refreshes valuation and weights of every holding at the
// simulation's current month.
func (s *HoldingService) RecomputeAll(ctx context.Context, simulationID string) ([]models.Holding, error) {
	unlock, err := s.locks.Acquire(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sim, err := s.store.GetSimulation(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.store.ListHoldings(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	quotes, err := s.quoteAll(ctx, sim, holdings, sim.CurrentMonth())
	if err != nil {
		return nil, err
	}

	var out []models.Holding
	err = s.store.InTx(ctx, func(tx *repositories.Store) error {
		out, err = s.recompute(ctx, tx, simulationID, quotes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// applyBuy adds quantity to the position, opening it at fillPrice when new.
// The purchase price of an existing position is left as its first fill.
func (s *HoldingService) applyBuy(ctx context.Context, tx *repositories.Store, simulationID string, asset *models.AssetInfo, quantity, fillPrice decimal.Decimal) (*models.Holding, error) {
	h, err := tx.GetHolding(ctx, simulationID, asset.Ticker)
	if err != nil {
		return nil, err
	}
	if h == nil {
		h = &models.Holding{
			SimulationID:  simulationID,
			Ticker:        asset.Ticker,
			Name:          asset.Name,
			Currency:      asset.Currency,
			Quantity:      quantity,
			PurchasePrice: fillPrice,
			CurrentPrice:  fillPrice,
		}
	} else {
		h.Quantity = h.Quantity.Add(quantity)
	}
	if err := tx.SaveHolding(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// applySell removes quantity from h. It returns nil when the residual
// fell below QuantityEpsilon and the position was closed.
func (s *HoldingService) applySell(ctx context.Context, tx *repositories.Store, h *models.Holding, quantity decimal.Decimal) (*models.Holding, error) {
	remaining := h.Quantity.Sub(quantity)
	if remaining.LessThan(QuantityEpsilon) {
		if err := tx.DeleteHolding(ctx, h); err != nil {
			return nil, err
		}
		return nil, nil
	}
	h.Quantity = remaining
	if err := tx.SaveHolding(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// List returns the simulation's holdings as last recomputed.
func (s *HoldingService) List(ctx context.Context, simulationID string) ([]models.Holding, error) {
	if _, err := s.store.GetSimulation(ctx, simulationID); err != nil {
		return nil, err
	}
	return s.store.ListHoldings(ctx, simulationID)
}

// Summary aggregates the simulation's holdings.
func (s *HoldingService) Summary(ctx context.Context, simulationID string) (*models.PortfolioSummary, error) {
	holdings, err := s.List(ctx, simulationID)
	if err != nil {
		return nil, err
	}

	marketValue, invested := decimal.Zero, decimal.Zero
	for i := range holdings {
		marketValue = marketValue.Add(holdings[i].MarketValue)
		invested = invested.Add(holdings[i].Invested())
	}
	invested = money.TruncateCash(invested)
	gain := marketValue.Sub(invested)

	return &models.PortfolioSummary{
		TotalHoldings:      len(holdings),
		TotalMarketValue:   marketValue,
		TotalInvested:      invested,
		TotalGainLoss:      gain,
		GainLossPercentage: money.Percent(gain, invested),
	}, nil
}

// portfolioValue is the sum of market values.
func portfolioValue(holdings []models.Holding) decimal.Decimal {
	total := decimal.Zero
	for i := range holdings {
		total = total.Add(holdings[i].MarketValue)
	}
	return total
}
