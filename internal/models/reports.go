package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeResult is the state after a committed purchase or sale.
type TradeResult struct {
	Simulation *Simulation     `json:"simulation"`
	Holding    *Holding        `json:"holding,omitempty"`
	Ticker     string          `json:"ticker"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Amount     decimal.Decimal `json:"amount"`
}

// DividendPayment is a dividend credited while entering a month.
type DividendPayment struct {
	Ticker           string          `json:"ticker"`
	DividendPerShare decimal.Decimal `json:"dividend_per_share"`
	Quantity         decimal.Decimal `json:"quantity"`
	Total            decimal.Decimal `json:"total"`
	Date             time.Time       `json:"date"`
}

// SkippedDividend is a dividend that could not be paid.
type SkippedDividend struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// PriceUpdate is the move of one holding's price across a month boundary.
type PriceUpdate struct {
	Ticker        string          `json:"ticker"`
	OldPrice      decimal.Decimal `json:"old_price"`
	NewPrice      decimal.Decimal `json:"new_price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// AdvanceReport describes one month advancement.
type AdvanceReport struct {
	SimulationID           string            `json:"simulation_id"`
	PreviousDate           time.Time         `json:"previous_date"`
	NewDate                time.Time         `json:"new_date"`
	PreviousBalance        decimal.Decimal   `json:"previous_balance"`
	NewBalance             decimal.Decimal   `json:"new_balance"`
	PreviousPortfolioValue decimal.Decimal   `json:"previous_portfolio_value"`
	NewPortfolioValue      decimal.Decimal   `json:"new_portfolio_value"`
	Dividends              []DividendPayment `json:"dividends_received"`
	SkippedDividends       []SkippedDividend `json:"skipped_dividends,omitempty"`
	TotalDividends         decimal.Decimal   `json:"total_dividends"`
	PriceUpdates           []PriceUpdate     `json:"price_updates"`
}

// AdvanceCheck says whether a simulation may move to the next month.
type AdvanceCheck struct {
	CanAdvance     bool       `json:"can_advance"`
	Reason         string     `json:"reason,omitempty"`
	MissingTickers []string   `json:"missing_tickers,omitempty"`
	NextMonth      *time.Time `json:"next_month,omitempty"`
	HoldingsCount  int        `json:"holdings_count"`
}

// PortfolioSummary aggregates a simulation's holdings.
type PortfolioSummary struct {
	TotalHoldings      int             `json:"total_holdings"`
	TotalMarketValue   decimal.Decimal `json:"total_market_value"`
	TotalInvested      decimal.Decimal `json:"total_invested"`
	TotalGainLoss      decimal.Decimal `json:"total_gain_loss"`
	GainLossPercentage decimal.Decimal `json:"gain_loss_percentage"`
}
