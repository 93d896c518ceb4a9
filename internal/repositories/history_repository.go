package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/simfolio/backend/internal/models"
	"gorm.io/gorm"
)

// GetHistoryMonth returns nil when no operation was logged for month yet.
func (s *Store) GetHistoryMonth(ctx context.Context, simulationID string, month time.Time) (*models.HistoryMonth, error) {
	var h models.HistoryMonth
	err := s.db.WithContext(ctx).
		Where("simulation_id = ? AND month_date = ?", simulationID, models.MonthOf(month)).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get history month: %w", err)
	}
	return &h, nil
}

func (s *Store) SaveHistoryMonth(ctx context.Context, h *models.HistoryMonth) error {
	if err := s.db.WithContext(ctx).Save(h).Error; err != nil {
		return fmt.Errorf("failed to save history month: %w", err)
	}
	return nil
}

// ListHistory returns every logged month in chronological order.
func (s *Store) ListHistory(ctx context.Context, simulationID string) ([]models.HistoryMonth, error) {
	var months []models.HistoryMonth
	err := s.db.WithContext(ctx).
		Where("simulation_id = ?", simulationID).
		Order("month_date ASC").
		Find(&months).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return months, nil
}

// DeleteHistoryFrom removes history months on or after month.
func (s *Store) DeleteHistoryFrom(ctx context.Context, simulationID string, month time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("simulation_id = ? AND month_date >= ?", simulationID, models.MonthOf(month)).
		Delete(&models.HistoryMonth{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete history: %w", res.Error)
	}
	return res.RowsAffected, nil
}
