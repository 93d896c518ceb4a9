package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/money"
	"github.com/simfolio/backend/internal/repositories"
	"go.uber.org/zap"
)

// TimeService moves simulations forward one month at a time.
type TimeService struct {
	store      *repositories.Store
	ledger     *LedgerService
	holdings   *HoldingService
	snapshots  *SnapshotService
	prices     PriceGateway
	currencies CurrencyGateway
	locks      *SimulationLocks
	logger     *zap.Logger
	now        func() time.Time
}

func NewTimeService(
	store *repositories.Store,
	ledger *LedgerService,
	holdings *HoldingService,
	snapshots *SnapshotService,
	prices PriceGateway,
	currencies CurrencyGateway,
	locks *SimulationLocks,
	logger *zap.Logger,
) *TimeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeService{
		store:      store,
		ledger:     ledger,
		holdings:   holdings,
		snapshots:  snapshots,
		prices:     prices,
		currencies: currencies,
		locks:      locks,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock replaces the wall clock used to find the present month.
func (s *TimeService) SetClock(now func() time.Time) {
	s.now = now
}

// CanAdvance reports whether the simulation may enter its next month.
func (s *TimeService) CanAdvance(ctx context.Context, simulationID string) (*models.AdvanceCheck, error) {
	sim, err := s.store.GetSimulation(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.store.ListHoldings(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	return s.check(ctx, sim, holdings)
}

func (s *TimeService) check(ctx context.Context, sim *models.Simulation, holdings []models.Holding) (*models.AdvanceCheck, error) {
	current := sim.CurrentMonth()
	present := models.MonthOf(s.now())
	if !current.Before(present) {
		return &models.AdvanceCheck{
			Reason:        fmt.Sprintf("Simulation is at current month (%s). Cannot advance beyond present.", current.Format("2006-01")),
			HoldingsCount: len(holdings),
		}, nil
	}

	next := models.AddMonths(current, 1)
	var missing []string
	for _, h := range holdings {
		if _, err := s.prices.GetPrice(ctx, h.Ticker, next); err != nil {
			switch apperrors.KindOf(err) {
			case apperrors.KindPriceUnavailable, apperrors.KindAssetNotFound:
				missing = append(missing, h.Ticker)
			default:
				return nil, err
			}
		}
	}
	if len(missing) > 0 {
		return &models.AdvanceCheck{
			Reason:         "Price data not available for next month for: " + strings.Join(missing, ", "),
			MissingTickers: missing,
			HoldingsCount:  len(holdings),
		}, nil
	}

	return &models.AdvanceCheck{
		CanAdvance:    true,
		NextMonth:     &next,
		HoldingsCount: len(holdings),
	}, nil
}

// Advance snapshots the simulation, moves it one month forward, pays the
// new month's dividends and revalues every holding. Sub-steps commit on
// their own; after a failure the snapshot is the recovery point.
func (s *TimeService) Advance(ctx context.Context, simulationID string) (*models.AdvanceReport, error) {
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

	check, err := s.check(ctx, sim, holdings)
	if err != nil {
		return nil, err
	}
	if !check.CanAdvance {
		return nil, &apperrors.Error{Kind: apperrors.KindAdvanceBlocked, Message: check.Reason}
	}

	report := &models.AdvanceReport{
		SimulationID:           sim.ID,
		PreviousDate:           sim.CurrentMonth(),
		PreviousBalance:        sim.Balance,
		PreviousPortfolioValue: portfolioValue(holdings),
		Dividends:              []models.DividendPayment{},
		PriceUpdates:           []models.PriceUpdate{},
		TotalDividends:         decimal.Zero,
	}

	if _, err := s.snapshots.capture(ctx, simulationID); err != nil {
		return nil, fmt.Errorf("failed to snapshot before advancing: %w", err)
	}

	next := *check.NextMonth
	err = s.store.InTx(ctx, func(tx *repositories.Store) error {
		locked, err := tx.GetSimulationForUpdate(ctx, simulationID)
		if err != nil {
			return err
		}
		locked.CurrentDate = next
		if err := tx.SaveSimulationState(ctx, locked); err != nil {
			return err
		}
		sim = locked
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to advance date: %w", err)
	}
	report.NewDate = next

	if err := s.payDividends(ctx, sim, holdings, report); err != nil {
		return nil, err
	}

	quotes, err := s.holdings.quoteAll(ctx, sim, holdings, next)
	if err != nil {
		return nil, fmt.Errorf("failed to price holdings for %s: %w", models.FormatMonth(next), err)
	}
	for _, h := range holdings {
		report.PriceUpdates = append(report.PriceUpdates, priceUpdate(h.Ticker, h.CurrentPrice, quotes[h.Ticker]))
	}

	var revalued []models.Holding
	err = s.store.InTx(ctx, func(tx *repositories.Store) error {
		revalued, err = s.holdings.recompute(ctx, tx, simulationID, quotes)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to revalue holdings: %w", err)
	}

	final, err := s.store.GetSimulation(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	report.NewBalance = final.Balance
	report.NewPortfolioValue = portfolioValue(revalued)

	s.logger.Info("simulation advanced",
		zap.String("simulation_id", simulationID),
		zap.String("from", models.FormatMonth(report.PreviousDate)),
		zap.String("to", models.FormatMonth(report.NewDate)),
		zap.String("dividends", report.TotalDividends.String()),
		zap.Int("skipped_dividends", len(report.SkippedDividends)),
		zap.String("portfolio_value", report.NewPortfolioValue.String()),
	)
	return report, nil
}

// payDividends credits the dividend of every holding for sim's current
// month. Lookup or conversion failures skip that holding only.
func (s *TimeService) payDividends(ctx context.Context, sim *models.Simulation, holdings []models.Holding, report *models.AdvanceReport) error {
	month := sim.CurrentMonth()
	for _, h := range holdings {
		perShare, ok, err := s.prices.GetDividend(ctx, h.Ticker, month)
		if err == nil && ok && h.Currency != "" && h.Currency != sim.BaseCurrency {
			perShare, err = s.currencies.Convert(ctx, perShare, h.Currency, sim.BaseCurrency, month)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.logger.Warn("dividend skipped",
				zap.String("simulation_id", sim.ID),
				zap.String("ticker", h.Ticker),
				zap.Error(err))
			report.SkippedDividends = append(report.SkippedDividends, models.SkippedDividend{Ticker: h.Ticker, Reason: err.Error()})
			continue
		}
		if !ok {
			continue
		}

		total := perShare.Mul(h.Quantity)
		if !total.IsPositive() {
			continue
		}

		err = s.store.InTx(ctx, func(tx *repositories.Store) error {
			locked, err := tx.GetSimulationForUpdate(ctx, sim.ID)
			if err != nil {
				return err
			}
			return s.ledger.apply(ctx, tx, locked, models.BalanceOperation{
				Amount:    total,
				Direction: models.Credit,
				Category:  models.OperationDividend,
				Ticker:    h.Ticker,
			})
		})
		if err != nil {
			return fmt.Errorf("failed to credit %s dividend: %w", h.Ticker, err)
		}

		report.Dividends = append(report.Dividends, models.DividendPayment{
			Ticker:           h.Ticker,
			DividendPerShare: perShare,
			Quantity:         h.Quantity,
			Total:            total,
			Date:             month,
		})
		report.TotalDividends = report.TotalDividends.Add(total)
	}
	return nil
}

func priceUpdate(ticker string, oldPrice, newPrice decimal.Decimal) models.PriceUpdate {
	change := newPrice.Sub(oldPrice)
	return models.PriceUpdate{
		Ticker:        ticker,
		OldPrice:      oldPrice,
		NewPrice:      newPrice,
		Change:        change,
		ChangePercent: money.Percent(change, oldPrice),
	}
}
