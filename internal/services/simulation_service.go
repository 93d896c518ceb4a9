package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/repositories"
	"go.uber.org/zap"
)

// SimulationService manages the lifecycle of simulations.
type SimulationService struct {
	store  *repositories.Store
	locks  *SimulationLocks
	logger *zap.Logger
}

func NewSimulationService(store *repositories.Store, locks *SimulationLocks, logger *zap.Logger) *SimulationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulationService{store: store, locks: locks, logger: logger}
}

// Create opens a simulation with a zero balance at the first day of the
// start month.
func (s *SimulationService) Create(ctx context.Context, req models.CreateSimulationRequest) (*models.Simulation, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.FindSimulationByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.KindConflict, "simulation %q already exists", existing.Name)
	}

	start := models.MonthOf(req.StartDate)
	sim := &models.Simulation{
		ID:           uuid.NewString(),
		Name:         req.Name,
		StartDate:    start,
		CurrentDate:  start,
		BaseCurrency: req.BaseCurrency,
		Balance:      decimal.Zero,
	}
	if err := s.store.CreateSimulation(ctx, sim); err != nil {
		return nil, err
	}

	s.logger.Info("simulation created",
		zap.String("simulation_id", sim.ID),
		zap.String("name", sim.Name),
		zap.String("currency", sim.BaseCurrency),
		zap.String("start", models.FormatMonth(start)),
	)
	return sim, nil
}

func (s *SimulationService) Get(ctx context.Context, id string) (*models.Simulation, error) {
	return s.store.GetSimulation(ctx, id)
}

// GetByName looks a simulation up by name, ignoring case.
func (s *SimulationService) GetByName(ctx context.Context, name string) (*models.Simulation, error) {
	sim, err := s.store.FindSimulationByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if sim == nil {
		return nil, apperrors.New(apperrors.KindSimulationNotFound, "simulation %q not found", name)
	}
	return sim, nil
}

func (s *SimulationService) List(ctx context.Context, offset, limit int) ([]models.Simulation, error) {
	return s.store.ListSimulations(ctx, offset, limit)
}

// Delete removes the simulation with its holdings, history and snapshot.
func (s *SimulationService) Delete(ctx context.Context, id string) error {
	unlock, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.store.DeleteSimulation(ctx, id); err != nil {
		return err
	}
	s.logger.Info("simulation deleted", zap.String("simulation_id", id))
	return nil
}

// History returns every logged month of the simulation, oldest first.
func (s *SimulationService) History(ctx context.Context, id string) (*models.SimulationHistory, error) {
	sim, err := s.store.GetSimulation(ctx, id)
	if err != nil {
		return nil, err
	}
	months, err := s.store.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SimulationHistory{
		SimulationID:   sim.ID,
		SimulationName: sim.Name,
		StartDate:      sim.StartDate,
		CurrentDate:    sim.CurrentDate,
		Months:         months,
	}, nil
}
