package services

import (
	"context"

	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/repositories"
	"go.uber.org/zap"
)

// SnapshotService keeps the single undo checkpoint of each simulation.
type SnapshotService struct {
	store  *repositories.Store
	locks  *SimulationLocks
	logger *zap.Logger
}

func NewSnapshotService(store *repositories.Store, locks *SimulationLocks, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{store: store, locks: locks, logger: logger}
}

// Capture replaces the simulation's checkpoint with its current balance
// and holdings.
func (s *SnapshotService) Capture(ctx context.Context, simulationID string) (*models.Snapshot, error) {
	unlock, err := s.locks.Acquire(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.capture(ctx, simulationID)
}

func (s *SnapshotService) capture(ctx context.Context, simulationID string) (*models.Snapshot, error) {
	var snap *models.Snapshot
	err := s.store.InTx(ctx, func(tx *repositories.Store) error {
		sim, err := tx.GetSimulationForUpdate(ctx, simulationID)
		if err != nil {
			return err
		}
		holdings, err := tx.ListHoldings(ctx, simulationID)
		if err != nil {
			return err
		}
		copies := make([]models.HoldingSnapshot, 0, len(holdings))
		for i := range holdings {
			copies = append(copies, holdings[i].ToSnapshot())
		}
		snap = &models.Snapshot{
			SimulationID: sim.ID,
			MonthDate:    sim.CurrentMonth(),
			Balance:      sim.Balance,
			Holdings:     copies,
		}
		return tx.ReplaceSnapshot(ctx, snap)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("snapshot captured",
		zap.String("simulation_id", simulationID),
		zap.Time("month", snap.MonthDate),
		zap.Int("holdings", len(snap.Holdings)),
	)
	return snap, nil
}

// Restore rolls the simulation back to its checkpoint: date, balance and
// holdings are reset and every history month from the checkpoint's month
// onward is deleted. The checkpoint itself is kept.
func (s *SnapshotService) Restore(ctx context.Context, simulationID string) (*models.Simulation, error) {
	unlock, err := s.locks.Acquire(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		sim     *models.Simulation
		deleted int64
	)
	err = s.store.InTx(ctx, func(tx *repositories.Store) error {
		var err error
		sim, err = tx.GetSimulationForUpdate(ctx, simulationID)
		if err != nil {
			return err
		}
		snap, err := tx.GetSnapshot(ctx, simulationID)
		if err != nil {
			return err
		}
		if snap == nil {
			return apperrors.New(apperrors.KindNoSnapshot,
				"no snapshot exists for simulation %s", simulationID)
		}
		if snap.MonthDate.After(sim.CurrentMonth()) {
			return apperrors.New(apperrors.KindSnapshotState,
				"snapshot month %s is after current date %s",
				models.FormatMonth(snap.MonthDate), models.FormatMonth(sim.CurrentMonth()))
		}

		sim.CurrentDate = snap.MonthDate
		sim.Balance = snap.Balance
		if err := tx.SaveSimulationState(ctx, sim); err != nil {
			return err
		}

		holdings := make([]models.Holding, 0, len(snap.Holdings))
		for _, h := range snap.Holdings {
			holdings = append(holdings, h.ToHolding(simulationID))
		}
		if err := tx.ReplaceHoldings(ctx, simulationID, holdings); err != nil {
			return err
		}

		deleted, err = tx.DeleteHistoryFrom(ctx, simulationID, snap.MonthDate)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("snapshot restored",
		zap.String("simulation_id", simulationID),
		zap.Time("month", sim.CurrentDate),
		zap.String("balance", sim.Balance.String()),
		zap.Int64("history_months_deleted", deleted),
	)
	return sim, nil
}

// Info describes the simulation's checkpoint.
func (s *SnapshotService) Info(ctx context.Context, simulationID string) (*models.SnapshotInfo, error) {
	sim, err := s.store.GetSimulation(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.GetSnapshot(ctx, simulationID)
	if err != nil {
		return nil, err
	}

	info := &models.SnapshotInfo{CurrentDate: sim.CurrentMonth()}
	if snap == nil {
		return info, nil
	}
	month, balance := snap.MonthDate, snap.Balance
	info.Exists = true
	info.MonthDate = &month
	info.Balance = &balance
	info.HoldingsCount = len(snap.Holdings)
	info.CanRestore = !month.After(sim.CurrentMonth())
	return info, nil
}
