package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simfolio/backend/internal/models"
)

// PriceGateway resolves assets and their monthly prices and dividends, in
// the asset's native currency.
type PriceGateway interface {
	// ResolveAsset fails with KindAssetNotFound for unknown tickers.
	ResolveAsset(ctx context.Context, ticker string) (*models.AssetInfo, error)
	// GetPrice fails with KindPriceUnavailable when the month has no record.
	GetPrice(ctx context.Context, ticker string, month time.Time) (decimal.Decimal, error)
	// GetDividend reports false when the month carries no dividend.
	GetDividend(ctx context.Context, ticker string, month time.Time) (decimal.Decimal, bool, error)
}

// CurrencyGateway converts amounts between currencies at a month's rate.
// Same-currency calls return amount unchanged.
type CurrencyGateway interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, month time.Time) (decimal.Decimal, error)
}

// InflationGateway expresses an amount in from-date purchasing power
// given its nominal value at to-date.
type InflationGateway interface {
	Deflate(ctx context.Context, amount decimal.Decimal, currency string, from, to time.Time) (decimal.Decimal, error)
}

// AssetSource loads the full monthly series of an asset.
type AssetSource interface {
	Load(ctx context.Context, ticker string) (*models.AssetData, error)
}

// MultiplierProvider computes how much prices in one currency grew
// between two months.
type MultiplierProvider interface {
	AccumulatedMultiplier(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}
