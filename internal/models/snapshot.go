package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// HoldingSnapshot is the serialized copy of a Holding kept in a Snapshot.
type HoldingSnapshot struct {
	Ticker        string          `json:"ticker"`
	Name          string          `json:"name"`
	Currency      string          `json:"currency"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	MarketValue   decimal.Decimal `json:"market_value"`
	Weight        decimal.Decimal `json:"weight"`
}

// ToHolding rebuilds a Holding row for the given simulation.
func (h HoldingSnapshot) ToHolding(simulationID string) Holding {
	return Holding{
		SimulationID:  simulationID,
		Ticker:        h.Ticker,
		Name:          h.Name,
		Currency:      h.Currency,
		Quantity:      h.Quantity,
		PurchasePrice: h.PurchasePrice,
		CurrentPrice:  h.CurrentPrice,
		MarketValue:   h.MarketValue,
		Weight:        h.Weight,
	}
}

// Snapshot is the single undo checkpoint of a simulation. At most one row
// exists per simulation; capturing replaces it.
type Snapshot struct {
	ID           uint                                 `json:"id" gorm:"primaryKey;autoIncrement"`
	SimulationID string                               `json:"simulation_id" gorm:"column:simulation_id;type:varchar(36);not null;uniqueIndex"`
	MonthDate    time.Time                            `json:"month_date" gorm:"column:month_date;type:date;not null"`
	Balance      decimal.Decimal                      `json:"balance" gorm:"column:balance;type:text;not null"`
	Holdings     datatypes.JSONSlice[HoldingSnapshot] `json:"holdings" gorm:"column:holdings;not null"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for the Snapshot model
func (Snapshot) TableName() string {
	return "snapshots"
}

// SnapshotInfo describes the live checkpoint of a simulation, if any.
type SnapshotInfo struct {
	Exists        bool             `json:"exists"`
	MonthDate     *time.Time       `json:"month_date,omitempty"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	HoldingsCount int              `json:"holdings_count"`
	CanRestore    bool             `json:"can_restore"`
	CurrentDate   time.Time        `json:"current_date"`
}
