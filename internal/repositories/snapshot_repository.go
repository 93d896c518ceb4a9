package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/simfolio/backend/internal/models"
	"gorm.io/gorm"
)

// GetSnapshot returns nil when the simulation has no checkpoint.
func (s *Store) GetSnapshot(ctx context.Context, simulationID string) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := s.db.WithContext(ctx).Where("simulation_id = ?", simulationID).First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// ReplaceSnapshot hard-deletes any prior checkpoint and stores snap.
func (s *Store) ReplaceSnapshot(ctx context.Context, snap *models.Snapshot) error {
	return s.InTx(ctx, func(tx *Store) error {
		if err := tx.DeleteSnapshot(ctx, snap.SimulationID); err != nil {
			return err
		}
		if err := tx.db.WithContext(ctx).Create(snap).Error; err != nil {
			return fmt.Errorf("failed to create snapshot: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteSnapshot(ctx context.Context, simulationID string) error {
	if err := s.db.WithContext(ctx).Where("simulation_id = ?", simulationID).Delete(&models.Snapshot{}).Error; err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
