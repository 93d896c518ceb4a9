package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OperationType is the category of a balance operation.
type OperationType string

const (
	OperationContribution OperationType = "contribution"
	OperationWithdrawal   OperationType = "withdrawal"
	OperationPurchase     OperationType = "purchase"
	OperationSale         OperationType = "sale"
	OperationDividend     OperationType = "dividend"
)

// IsValid reports whether t is a known category.
func (t OperationType) IsValid() bool {
	switch t {
	case OperationContribution, OperationWithdrawal, OperationPurchase, OperationSale, OperationDividend:
		return true
	}
	return false
}

// RequiresTicker reports whether operations of this type name an asset.
func (t OperationType) RequiresTicker() bool {
	return t == OperationPurchase || t == OperationSale || t == OperationDividend
}

// Operation is one immutable entry in a month's log. Amount is signed and
// kept at full precision.
type Operation struct {
	Type   OperationType   `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Ticker *string         `json:"ticker"`
}

// HistoryMonth is the append-only operation log of one simulation-month.
// Total mirrors the simulation balance right after the last logged
// operation.
type HistoryMonth struct {
	ID           uint                           `json:"id" gorm:"primaryKey;autoIncrement"`
	SimulationID string                         `json:"simulation_id" gorm:"column:simulation_id;type:varchar(36);not null;uniqueIndex:idx_history_sim_month"`
	MonthDate    time.Time                      `json:"month_date" gorm:"column:month_date;type:date;not null;uniqueIndex:idx_history_sim_month"`
	Operations   datatypes.JSONSlice[Operation] `json:"operations" gorm:"column:operations;not null"`
	Total        decimal.Decimal                `json:"total" gorm:"column:total;type:text;not null"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the HistoryMonth model
func (HistoryMonth) TableName() string {
	return "history_months"
}

// Append logs op and moves the month's total to balance.
func (h *HistoryMonth) Append(op Operation, balance decimal.Decimal) {
	h.Operations = append(h.Operations, op)
	h.Total = balance
}

// SimulationHistory is the full chronological log of a simulation.
type SimulationHistory struct {
	SimulationID   string         `json:"simulation_id"`
	SimulationName string         `json:"simulation_name"`
	StartDate      time.Time      `json:"start_date"`
	CurrentDate    time.Time      `json:"current_date"`
	Months         []HistoryMonth `json:"months"`
}
