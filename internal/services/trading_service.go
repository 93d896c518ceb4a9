package services

import (
	"context"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/money"
	"github.com/simfolio/backend/internal/repositories"
	"go.uber.org/zap"
)

// TradingService buys and sells assets for a cash amount expressed in the
// simulation's currency. Each trade commits atomically.
type TradingService struct {
	store    *repositories.Store
	ledger   *LedgerService
	holdings *HoldingService
	prices   PriceGateway
	locks    *SimulationLocks
	logger   *zap.Logger
}

func NewTradingService(store *repositories.Store, ledger *LedgerService, holdings *HoldingService, prices PriceGateway, locks *SimulationLocks, logger *zap.Logger) *TradingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TradingService{
		store:    store,
		ledger:   ledger,
		holdings: holdings,
		prices:   prices,
		locks:    locks,
		logger:   logger,
	}
}

// Purchase spends req.DesiredAmount of cash on req.Ticker at the current
// month's close.
func (s *TradingService) Purchase(ctx context.Context, simulationID string, req models.TradeRequest) (*models.TradeResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Acquire(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sim, err := s.store.GetSimulation(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	month := sim.CurrentMonth()

	asset, err := s.prices.ResolveAsset(ctx, req.Ticker)
	if err != nil {
		return nil, err
	}
	if asset.FirstAvailable.After(month) {
		return nil, apperrors.New(apperrors.KindAssetNotFound,
			"asset %s is not available before %s", asset.Ticker, asset.FirstAvailable.Format("2006-01"))
	}

	price, err := s.holdings.Quote(ctx, sim, asset.Ticker, asset.Currency, month)
	if err != nil {
		return nil, err
	}
	quantity := money.Div(req.DesiredAmount, price)

	quotes, err := s.quotesWith(ctx, sim, asset.Ticker, price)
	if err != nil {
		return nil, err
	}

	result := &models.TradeResult{Ticker: asset.Ticker, Quantity: quantity, Price: price, Amount: req.DesiredAmount}
	err = s.store.InTx(ctx, func(tx *repositories.Store) error {
		locked, err := tx.GetSimulationForUpdate(ctx, simulationID)
		if err != nil {
			return err
		}
		err = s.ledger.apply(ctx, tx, locked, models.BalanceOperation{
			Amount:    req.DesiredAmount,
			Direction: models.Debit,
			Category:  models.OperationPurchase,
			Ticker:    asset.Ticker,
		})
		if err != nil {
			return err
		}
		if _, err := s.holdings.applyBuy(ctx, tx, simulationID, asset, quantity, price); err != nil {
			return err
		}
		holdings, err := s.holdings.recompute(ctx, tx, simulationID, quotes)
		if err != nil {
			return err
		}
		result.Simulation = locked
		result.Holding = findHolding(holdings, asset.Ticker)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase executed",
		zap.String("simulation_id", simulationID),
		zap.String("ticker", asset.Ticker),
		zap.String("amount", req.DesiredAmount.String()),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
	)
	return result, nil
}

// Sell raises req.DesiredAmount of cash by selling part of the position in
// req.Ticker at the current month's close.
func (s *TradingService) Sell(ctx context.Context, simulationID string, req models.TradeRequest) (*models.TradeResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Acquire(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sim, err := s.store.GetSimulation(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	month := sim.CurrentMonth()

	held, err := s.store.GetHolding(ctx, simulationID, req.Ticker)
	if err != nil {
		return nil, err
	}
	if held == nil {
		return nil, apperrors.New(apperrors.KindInsufficientPosition,
			"Insufficient position. Simulation does not hold %s", req.Ticker)
	}

	price, err := s.holdings.Quote(ctx, sim, held.Ticker, held.Currency, month)
	if err != nil {
		return nil, err
	}
	quantity := money.Div(req.DesiredAmount, price)
	if quantity.GreaterThan(held.Quantity) {
		maxSellable := money.TruncateCash(held.Quantity.Mul(price))
		return nil, apperrors.New(apperrors.KindInsufficientPosition,
			"Insufficient position in %s. Available: %s, Requested: %s, Shortfall: %s",
			held.Ticker, maxSellable.String(), req.DesiredAmount.String(), req.DesiredAmount.Sub(maxSellable).String())
	}

	quotes, err := s.quotesWith(ctx, sim, held.Ticker, price)
	if err != nil {
		return nil, err
	}

	result := &models.TradeResult{Ticker: held.Ticker, Quantity: quantity, Price: price, Amount: req.DesiredAmount}
	err = s.store.InTx(ctx, func(tx *repositories.Store) error {
		locked, err := tx.GetSimulationForUpdate(ctx, simulationID)
		if err != nil {
			return err
		}
		h, err := tx.GetHolding(ctx, simulationID, held.Ticker)
		if err != nil {
			return err
		}
		if h == nil {
			return apperrors.New(apperrors.KindInsufficientPosition, "Insufficient position. Simulation does not hold %s", held.Ticker)
		}
		err = s.ledger.apply(ctx, tx, locked, models.BalanceOperation{
			Amount:    req.DesiredAmount,
			Direction: models.Credit,
			Category:  models.OperationSale,
			Ticker:    held.Ticker,
		})
		if err != nil {
			return err
		}
		if _, err := s.holdings.applySell(ctx, tx, h, quantity); err != nil {
			return err
		}
		holdings, err := s.holdings.recompute(ctx, tx, simulationID, quotes)
		if err != nil {
			return err
		}
		result.Simulation = locked
		result.Holding = findHolding(holdings, held.Ticker)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale executed",
		zap.String("simulation_id", simulationID),
		zap.String("ticker", held.Ticker),
		zap.String("amount", req.DesiredAmount.String()),
		zap.String("quantity", quantity.String()),
		zap.Bool("closed", result.Holding == nil),
	)
	return result, nil
}

// quotesWith prices every current holding except ticker, whose price is
// already known.
func (s *TradingService) quotesWith(ctx context.Context, sim *models.Simulation, ticker string, price decimal.Decimal) (map[string]decimal.Decimal, error) {
	holdings, err := s.store.ListHoldings(ctx, sim.ID)
	if err != nil {
		return nil, err
	}
	others := holdings[:0]
	for _, h := range holdings {
		if h.Ticker != ticker {
			others = append(others, h)
		}
	}
	quotes, err := s.holdings.quoteAll(ctx, sim, others, sim.CurrentMonth())
	if err != nil {
		return nil, err
	}
	quotes[ticker] = price
	return quotes, nil
}

func findHolding(holdings []models.Holding, ticker string) *models.Holding {
	for i := range holdings {
		if holdings[i].Ticker == ticker {
			return &holdings[i]
		}
	}
	return nil
}
