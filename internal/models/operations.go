package models

import (
	"strings"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/money"
)

// Direction says whether a ledger operation adds or removes cash.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Sign returns +1 for credits and -1 for debits.
func (d Direction) Sign() decimal.Decimal {
	if d == Debit {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// BalanceOperation is a request to move cash through the ledger.
type BalanceOperation struct {
	Amount          decimal.Decimal `json:"amount"`
	Direction       Direction       `json:"direction"`
	Category        OperationType   `json:"category"`
	Ticker          string          `json:"ticker,omitempty"`
	AdjustInflation bool            `json:"adjust_inflation"`
}

// Normalize lower-cases the enums and upper-cases the ticker.
func (op *BalanceOperation) Normalize() {
	op.Direction = Direction(strings.ToLower(strings.TrimSpace(string(op.Direction))))
	op.Category = OperationType(strings.ToLower(strings.TrimSpace(string(op.Category))))
	op.Ticker = strings.ToUpper(strings.TrimSpace(op.Ticker))
}

// Validate rejects malformed requests before any state is touched.
func (op *BalanceOperation) Validate() error {
	if op.Direction != Credit && op.Direction != Debit {
		return apperrors.Validation("direction", "must be %q or %q, got %q", Credit, Debit, op.Direction)
	}
	if !op.Category.IsValid() {
		return apperrors.Validation("category", "invalid category %q; must be one of contribution, dividend, purchase, sale, withdrawal", op.Category)
	}
	if op.Category.RequiresTicker() && op.Ticker == "" {
		return apperrors.Validation("ticker", "category %q requires a ticker symbol", op.Category)
	}
	if !op.Category.RequiresTicker() && op.Ticker != "" {
		return apperrors.Validation("ticker", "category %q must not carry a ticker", op.Category)
	}
	if len(op.Ticker) > 20 {
		return apperrors.Validation("ticker", "must be at most 20 characters")
	}
	if op.AdjustInflation && op.Category.RequiresTicker() {
		return apperrors.Validation("adjust_inflation", "only applies to contributions and withdrawals")
	}
	return ValidateAmount(op.Amount, op.Category != OperationDividend)
}

// ValidateAmount checks that amount is positive, bounded and, for cash
// amounts, has at most two fractional digits.
func ValidateAmount(amount decimal.Decimal, cash bool) error {
	if !amount.IsPositive() {
		return apperrors.Validation("amount", "must be positive, got %s", amount.String())
	}
	if amount.GreaterThan(money.MaxAmount) {
		return apperrors.Validation("amount", "%s exceeds maximum allowed %s", amount.String(), money.MaxAmount.String())
	}
	if cash {
		if places := money.FractionalDigits(amount); places > money.CashPlaces {
			return apperrors.Validation("amount", "%s has %d decimal places; at most %d allowed", amount.String(), places, money.CashPlaces)
		}
	}
	return nil
}

// TradeRequest asks to buy or sell an amount of an asset, expressed in the
// simulation's currency.
type TradeRequest struct {
	Ticker        string          `json:"ticker"`
	DesiredAmount decimal.Decimal `json:"desired_amount"`
}

// Normalize upper-cases the ticker.
func (r *TradeRequest) Normalize() {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
}

// Validate rejects malformed trade requests.
func (r *TradeRequest) Validate() error {
	if r.Ticker == "" {
		return apperrors.Validation("ticker", "is required")
	}
	if len(r.Ticker) > 20 {
		return apperrors.Validation("ticker", "must be at most 20 characters")
	}
	return ValidateAmount(r.DesiredAmount, true)
}
