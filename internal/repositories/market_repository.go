package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/simfolio/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertExchangeRate stores the rate for its (from, to, month) key,
// overwriting an existing value.
func (s *Store) UpsertExchangeRate(ctx context.Context, rate *models.ExchangeRate) error {
	rate.Month = models.MonthOf(rate.Month)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "from_currency"}, {Name: "to_currency"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "source"}),
	}).Create(rate).Error
	if err != nil {
		return fmt.Errorf("failed to store exchange rate: %w", err)
	}
	return nil
}

// LatestExchangeRate returns the most recent rate on or before month, or
// nil when none exists.
func (s *Store) LatestExchangeRate(ctx context.Context, from, to string, month time.Time) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := s.db.WithContext(ctx).
		Where("from_currency = ? AND to_currency = ? AND month <= ?", from, to, models.MonthOf(month)).
		Order("month DESC").
		First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	return &rate, nil
}

func (s *Store) UpsertInflationIndex(ctx context.Context, idx *models.InflationIndex) error {
	idx.Month = models.MonthOf(idx.Month)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "currency"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "source"}),
	}).Create(idx).Error
	if err != nil {
		return fmt.Errorf("failed to store inflation index: %w", err)
	}
	return nil
}

// LatestInflationIndex returns the most recent index value on or before
// month, or nil when none exists.
func (s *Store) LatestInflationIndex(ctx context.Context, currency string, month time.Time) (*models.InflationIndex, error) {
	var idx models.InflationIndex
	err := s.db.WithContext(ctx).
		Where("currency = ? AND month <= ?", currency, models.MonthOf(month)).
		Order("month DESC").
		First(&idx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get inflation index: %w", err)
	}
	return &idx, nil
}
