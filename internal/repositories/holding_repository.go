package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/simfolio/backend/internal/models"
	"gorm.io/gorm"
)

// ListHoldings returns the simulation's holdings ordered by ticker.
func (s *Store) ListHoldings(ctx context.Context, simulationID string) ([]models.Holding, error) {
	var holdings []models.Holding
	err := s.db.WithContext(ctx).
		Where("simulation_id = ?", simulationID).
		Order("ticker ASC").
		Find(&holdings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}

// GetHolding returns nil when the simulation holds no position in ticker.
func (s *Store) GetHolding(ctx context.Context, simulationID, ticker string) (*models.Holding, error) {
	var h models.Holding
	err := s.db.WithContext(ctx).
		Where("simulation_id = ? AND ticker = ?", simulationID, ticker).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &h, nil
}

// SaveHolding inserts a new holding or updates an existing one.
func (s *Store) SaveHolding(ctx context.Context, h *models.Holding) error {
	if err := s.db.WithContext(ctx).Save(h).Error; err != nil {
		return fmt.Errorf("failed to save holding %s: %w", h.Ticker, err)
	}
	return nil
}

func (s *Store) DeleteHolding(ctx context.Context, h *models.Holding) error {
	if err := s.db.WithContext(ctx).Delete(&models.Holding{}, h.ID).Error; err != nil {
		return fmt.Errorf("failed to delete holding %s: %w", h.Ticker, err)
	}
	return nil
}

// ReplaceHoldings deletes every holding of the simulation and inserts the
// given ones.
func (s *Store) ReplaceHoldings(ctx context.Context, simulationID string, holdings []models.Holding) error {
	q := s.db.WithContext(ctx)
	if err := q.Where("simulation_id = ?", simulationID).Delete(&models.Holding{}).Error; err != nil {
		return fmt.Errorf("failed to clear holdings: %w", err)
	}
	if len(holdings) == 0 {
		return nil
	}
	if err := q.Create(&holdings).Error; err != nil {
		return fmt.Errorf("failed to recreate holdings: %w", err)
	}
	return nil
}
