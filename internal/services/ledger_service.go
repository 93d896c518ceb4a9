package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/money"
	"github.com/simfolio/backend/internal/repositories"
	"go.uber.org/zap"
)

// LedgerService is the only writer of a simulation's cash balance. Every
// committed change is logged to the history month of the simulation's
// current date in the same transaction.
type LedgerService struct {
	store     *repositories.Store
	inflation InflationGateway
	locks     *SimulationLocks
	logger    *zap.Logger
	now       func() time.Time
}

// NewLedgerService creates a ledger. inflation may be nil, in which case
// inflation-adjusted operations fall back to the nominal amount.
func NewLedgerService(store *repositories.Store, inflation InflationGateway, locks *SimulationLocks, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		store:     store,
		inflation: inflation,
		locks:     locks,
		logger:    logger,
		now:       time.Now,
	}
}

// Apply validates and commits a balance operation.
func (s *LedgerService) Apply(ctx context.Context, simulationID string, op models.BalanceOperation) (*models.Simulation, error) {
	op.Normalize()
	if err := op.Validate(); err != nil {
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

	if op.AdjustInflation {
		adjusted, err := s.deflate(ctx, sim, op.Amount)
		if err != nil {
			return nil, err
		}
		op.Amount = adjusted
	}

	err = s.store.InTx(ctx, func(tx *repositories.Store) error {
		locked, err := tx.GetSimulationForUpdate(ctx, simulationID)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, tx, locked, op); err != nil {
			return err
		}
		sim = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("balance operation applied",
		zap.String("simulation_id", sim.ID),
		zap.String("category", string(op.Category)),
		zap.String("direction", string(op.Direction)),
		zap.String("amount", op.Amount.String()),
		zap.String("balance", sim.Balance.String()),
	)
	return sim, nil
}

// apply moves the balance of sim and logs the operation on tx. sim must
// have been loaded on tx; it is updated in place.
func (s *LedgerService) apply(ctx context.Context, tx *repositories.Store, sim *models.Simulation, op models.BalanceOperation) error {
	delta := op.Amount.Mul(op.Direction.Sign())
	newBalance := sim.Balance.Add(delta)
	if newBalance.IsNegative() {
		return apperrors.New(apperrors.KindInsufficientFunds,
			"Insufficient funds. Available: %s, Requested: %s, Shortfall: %s",
			sim.Balance.String(), op.Amount.String(), newBalance.Abs().String())
	}

	sim.Balance = newBalance
	if err := tx.SaveSimulationState(ctx, sim); err != nil {
		return err
	}

	month := sim.CurrentMonth()
	history, err := tx.GetHistoryMonth(ctx, sim.ID, month)
	if err != nil {
		return err
	}
	if history == nil {
		history = &models.HistoryMonth{SimulationID: sim.ID, MonthDate: month}
	}

	entry := models.Operation{Type: op.Category, Amount: delta}
	if op.Ticker != "" {
		ticker := op.Ticker
		entry.Ticker = &ticker
	}
	history.Append(entry, newBalance)
	return tx.SaveHistoryMonth(ctx, history)
}

// deflate expresses amount, given in today's money, in the purchasing power
// of the simulation's current month. Index failures fall back to amount.
func (s *LedgerService) deflate(ctx context.Context, sim *models.Simulation, amount decimal.Decimal) (decimal.Decimal, error) {
	if s.inflation == nil {
		s.logger.Warn("inflation adjustment requested but no index is configured",
			zap.String("simulation_id", sim.ID))
		return amount, nil
	}

	adjusted, err := s.inflation.Deflate(ctx, amount, sim.BaseCurrency, sim.CurrentMonth(), s.now())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Zero, ctxErr
		}
		if apperrors.Is(err, apperrors.KindGateway) {
			s.logger.Warn("inflation adjustment failed, using nominal amount",
				zap.String("simulation_id", sim.ID),
				zap.String("currency", sim.BaseCurrency),
				zap.Error(err))
			return amount, nil
		}
		return decimal.Zero, err
	}

	adjusted = money.TruncateCash(adjusted)
	if adjusted.IsZero() {
		s.logger.Warn("inflation adjustment rounds to zero, using nominal amount",
			zap.String("simulation_id", sim.ID),
			zap.String("amount", amount.String()))
		return amount, nil
	}
	return adjusted, nil
}
