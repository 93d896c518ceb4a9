package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/simfolio/backend/internal/db"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateSimulation(ctx context.Context, sim *models.Simulation) error {
	if err := s.db.WithContext(ctx).Create(sim).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return apperrors.Wrap(apperrors.KindConflict, err, "simulation %q already exists", sim.Name)
		}
		return fmt.Errorf("failed to create simulation: %w", err)
	}
	return nil
}

func (s *Store) GetSimulation(ctx context.Context, id string) (*models.Simulation, error) {
	return s.getSimulation(s.db.WithContext(ctx), id)
}

// GetSimulationForUpdate loads the simulation with a row lock where the
// backend supports one. Only meaningful inside InTx.
func (s *Store) GetSimulationForUpdate(ctx context.Context, id string) (*models.Simulation, error) {
	return s.getSimulation(s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (s *Store) getSimulation(q *gorm.DB, id string) (*models.Simulation, error) {
	if id == "" {
		return nil, apperrors.New(apperrors.KindSimulationNotFound, "simulation not found: %q", id)
	}
	var sim models.Simulation
	if err := q.First(&sim, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindSimulationNotFound, "simulation not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}
	return &sim, nil
}

// FindSimulationByName matches names case-insensitively. It returns nil
// when nothing matches.
func (s *Store) FindSimulationByName(ctx context.Context, name string) (*models.Simulation, error) {
	var sim models.Simulation
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&sim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find simulation: %w", err)
	}
	return &sim, nil
}

// ListSimulations returns simulations newest first.
func (s *Store) ListSimulations(ctx context.Context, offset, limit int) ([]models.Simulation, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var sims []models.Simulation
	if err := query.Find(&sims).Error; err != nil {
		return nil, fmt.Errorf("failed to list simulations: %w", err)
	}
	return sims, nil
}

// SaveSimulationState persists the mutable state: balance and current month.
func (s *Store) SaveSimulationState(ctx context.Context, sim *models.Simulation) error {
	res := s.db.WithContext(ctx).Model(&models.Simulation{}).Where("id = ?", sim.ID).Updates(map[string]any{
		"balance":       sim.Balance,
		"current_month": sim.CurrentDate,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to save simulation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.KindSimulationNotFound, "simulation not found: %s", sim.ID)
	}
	return nil
}

// DeleteSimulation removes the simulation and every row it owns.
func (s *Store) DeleteSimulation(ctx context.Context, id string) error {
	return s.InTx(ctx, func(tx *Store) error {
		q := tx.db.WithContext(ctx)
		for _, owned := range []any{&models.Holding{}, &models.HistoryMonth{}, &models.Snapshot{}} {
			if err := q.Where("simulation_id = ?", id).Delete(owned).Error; err != nil {
				return fmt.Errorf("failed to delete simulation rows: %w", err)
			}
		}
		res := q.Delete(&models.Simulation{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete simulation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.KindSimulationNotFound, "simulation not found: %s", id)
		}
		return nil
	})
}
