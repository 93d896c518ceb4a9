package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a position in one asset within one simulation. Prices and
// values are expressed in the simulation's base currency.
type Holding struct {
	ID           uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	SimulationID string          `json:"simulation_id" gorm:"column:simulation_id;type:varchar(36);not null;uniqueIndex:idx_holding_sim_ticker"`
	Ticker       string          `json:"ticker" gorm:"column:ticker;type:varchar(20);not null;uniqueIndex:idx_holding_sim_ticker"`
	Name         string          `json:"name" gorm:"column:name;type:varchar(255);not null"`
	Currency     string          `json:"currency" gorm:"column:currency;type:varchar(3);not null"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"column:quantity;type:text;not null"`
	// PurchasePrice is the first fill price; later buys do not average it.
	PurchasePrice decimal.Decimal `json:"purchase_price" gorm:"column:purchase_price;type:text;not null"`
	CurrentPrice  decimal.Decimal `json:"current_price" gorm:"column:current_price;type:text;not null"`
	MarketValue   decimal.Decimal `json:"market_value" gorm:"column:market_value;type:text;not null"`
	Weight        decimal.Decimal `json:"weight" gorm:"column:weight;type:text;not null"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Holding model
func (Holding) TableName() string {
	return "holdings"
}

// Invested returns quantity × purchase price.
func (h *Holding) Invested() decimal.Decimal {
	return h.Quantity.Mul(h.PurchasePrice)
}

// ToSnapshot copies every persisted field of the holding.
func (h *Holding) ToSnapshot() HoldingSnapshot {
	return HoldingSnapshot{
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
