package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/money"
	"github.com/simfolio/backend/internal/repositories"
)

// RateCurrencyGateway converts with monthly closing rates kept in the
// exchange_rates table. The latest rate on or before the month applies;
// a missing direct pair falls back to the inverse pair.
type RateCurrencyGateway struct {
	store *repositories.Store
}

func NewRateCurrencyGateway(store *repositories.Store) *RateCurrencyGateway {
	return &RateCurrencyGateway{store: store}
}

func (g *RateCurrencyGateway) Convert(ctx context.Context, amount decimal.Decimal, from, to string, month time.Time) (decimal.Decimal, error) {
	from, to = money.NormalizeCurrency(from), money.NormalizeCurrency(to)
	if from == to {
		return amount, nil
	}

	direct, err := g.store.LatestExchangeRate(ctx, from, to, month)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.KindGateway, err, "exchange rate lookup %s->%s failed", from, to)
	}
	if direct != nil && direct.Rate.IsPositive() {
		return amount.Mul(direct.Rate), nil
	}

	inverse, err := g.store.LatestExchangeRate(ctx, to, from, month)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.KindGateway, err, "exchange rate lookup %s->%s failed", to, from)
	}
	if inverse != nil && inverse.Rate.IsPositive() {
		return money.Div(amount, inverse.Rate), nil
	}

	return decimal.Zero, apperrors.New(apperrors.KindGateway,
		"no exchange rate %s->%s on or before %s", from, to, models.MonthOf(month).Format("2006-01"))
}

// StoreRate records the closing rate of a month, replacing any previous one.
func (g *RateCurrencyGateway) StoreRate(ctx context.Context, from, to string, month time.Time, rate decimal.Decimal, source string) error {
	from, to = money.NormalizeCurrency(from), money.NormalizeCurrency(to)
	if !money.IsCurrencyCode(from) {
		return apperrors.Validation("from", "%q is not a 3-letter ISO 4217 code", from)
	}
	if !money.IsCurrencyCode(to) {
		return apperrors.Validation("to", "%q is not a 3-letter ISO 4217 code", to)
	}
	if from == to {
		return apperrors.Validation("to", "must differ from %q", from)
	}
	if !rate.IsPositive() {
		return apperrors.Validation("rate", "must be positive, got %s", rate.String())
	}
	if source == "" {
		source = "manual"
	}
	return g.store.UpsertExchangeRate(ctx, &models.ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Month:        models.MonthOf(month),
		Rate:         rate,
		Source:       source,
	})
}
