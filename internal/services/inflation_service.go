package services

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/money"
	"github.com/simfolio/backend/internal/repositories"
)

// InflationService deflates amounts with the provider registered for the
// amount's currency.
type InflationService struct {
	mu        sync.RWMutex
	providers map[string]MultiplierProvider
}

func NewInflationService() *InflationService {
	return &InflationService{providers: make(map[string]MultiplierProvider)}
}

// Register installs or replaces the provider for a currency.
func (s *InflationService) Register(currency string, provider MultiplierProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[money.NormalizeCurrency(currency)] = provider
}

func (s *InflationService) Supports(currency string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.providers[money.NormalizeCurrency(currency)]
	return ok
}

// Deflate divides amount by the accumulated multiplier between from and
// to. Amounts are returned unchanged when from is not before to.
func (s *InflationService) Deflate(ctx context.Context, amount decimal.Decimal, currency string, from, to time.Time) (decimal.Decimal, error) {
	from, to = models.MonthOf(from), models.MonthOf(to)
	if !from.Before(to) {
		return amount, nil
	}

	s.mu.RLock()
	provider, ok := s.providers[money.NormalizeCurrency(currency)]
	s.mu.RUnlock()
	if !ok {
		return decimal.Zero, apperrors.New(apperrors.KindGateway, "no inflation index registered for %s", currency)
	}

	multiplier, err := provider.AccumulatedMultiplier(ctx, from, to)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Zero, ctxErr
		}
		if apperrors.KindOf(err) == apperrors.KindGateway {
			return decimal.Zero, err
		}
		return decimal.Zero, apperrors.Wrap(apperrors.KindGateway, err, "%s inflation provider failed", currency)
	}
	if !multiplier.IsPositive() {
		return decimal.Zero, apperrors.New(apperrors.KindGateway, "invalid inflation multiplier %s for %s", multiplier.String(), currency)
	}
	return money.Div(amount, multiplier), nil
}

// IndexMultiplierProvider derives multipliers from monthly index values
// (CPI, IPCA, ...) stored in the inflation_indices table.
type IndexMultiplierProvider struct {
	store    *repositories.Store
	currency string
}

func NewIndexMultiplierProvider(store *repositories.Store, currency string) *IndexMultiplierProvider {
	return &IndexMultiplierProvider{store: store, currency: money.NormalizeCurrency(currency)}
}

func (p *IndexMultiplierProvider) Currency() string {
	return p.currency
}

// AccumulatedMultiplier returns index(to) / index(from), each being the
// latest value published on or before its month.
func (p *IndexMultiplierProvider) AccumulatedMultiplier(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	start, err := p.index(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	end, err := p.index(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}
	return money.Div(end, start), nil
}

func (p *IndexMultiplierProvider) index(ctx context.Context, month time.Time) (decimal.Decimal, error) {
	idx, err := p.store.LatestInflationIndex(ctx, p.currency, month)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.KindGateway, err, "inflation index lookup failed")
	}
	if idx == nil || !idx.Value.IsPositive() {
		return decimal.Zero, apperrors.New(apperrors.KindGateway,
			"no %s inflation index on or before %s", p.currency, models.MonthOf(month).Format("2006-01"))
	}
	return idx.Value, nil
}

// Store records the index value of a month, replacing any previous one.
func (p *IndexMultiplierProvider) Store(ctx context.Context, month time.Time, value decimal.Decimal, source string) error {
	if !value.IsPositive() {
		return apperrors.Validation("value", "must be positive, got %s", value.String())
	}
	if source == "" {
		source = "manual"
	}
	return p.store.UpsertInflationIndex(ctx, &models.InflationIndex{
		Currency: p.currency,
		Month:    models.MonthOf(month),
		Value:    value,
		Source:   source,
	})
}
