package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/money"
)

// Simulation is one user-defined portfolio timeline. Balance is only ever
// changed through the ledger.
type Simulation struct {
	ID           string          `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	Name         string          `json:"name" gorm:"column:name;type:varchar(255);not null;uniqueIndex"`
	StartDate    time.Time       `json:"start_date" gorm:"column:start_date;type:date;not null"`
	CurrentDate  time.Time       `json:"current_date" gorm:"column:current_month;type:date;not null"`
	BaseCurrency string          `json:"base_currency" gorm:"column:base_currency;type:varchar(3);not null"`
	Balance      decimal.Decimal `json:"balance" gorm:"column:balance;type:text;not null"`

	Holdings []Holding      `json:"-" gorm:"foreignKey:SimulationID;constraint:OnDelete:CASCADE"`
	History  []HistoryMonth `json:"-" gorm:"foreignKey:SimulationID;constraint:OnDelete:CASCADE"`
	Snapshot *Snapshot      `json:"-" gorm:"foreignKey:SimulationID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Simulation model
func (Simulation) TableName() string {
	return "simulations"
}

// CurrentMonth returns the first day of the simulation's current month.
func (s *Simulation) CurrentMonth() time.Time {
	return MonthOf(s.CurrentDate)
}

// CreateSimulationRequest is the input for opening a new simulation.
type CreateSimulationRequest struct {
	Name         string    `json:"name"`
	StartDate    time.Time `json:"start_date"`
	BaseCurrency string    `json:"base_currency"`
}

// Normalize trims the name and upper-cases the currency.
func (r *CreateSimulationRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.BaseCurrency = money.NormalizeCurrency(r.BaseCurrency)
}

// Validate checks the request after normalization.
func (r *CreateSimulationRequest) Validate() error {
	if r.Name == "" {
		return apperrors.Validation("name", "is required")
	}
	if len(r.Name) > 255 {
		return apperrors.Validation("name", "must be at most 255 characters")
	}
	if r.StartDate.IsZero() {
		return apperrors.Validation("start_date", "is required")
	}
	if !money.IsCurrencyCode(r.BaseCurrency) {
		return apperrors.Validation("base_currency", "%q is not a 3-letter ISO 4217 code", r.BaseCurrency)
	}
	return nil
}
