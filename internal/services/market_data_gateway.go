package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MarketDataGateway serves prices and dividends from an AssetSource,
// keeping recently used series in an AssetCache.
type MarketDataGateway struct {
	source AssetSource
	cache  *AssetCache
	loads  singleflight.Group
	logger *zap.Logger
}

// NewMarketDataGateway creates a gateway. A nil cache gets a default-sized one.
func NewMarketDataGateway(source AssetSource, cache *AssetCache, logger *zap.Logger) *MarketDataGateway {
	if cache == nil {
		cache = NewAssetCache(DefaultAssetCacheSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketDataGateway{source: source, cache: cache, logger: logger}
}

func (g *MarketDataGateway) asset(ctx context.Context, ticker string) (*models.AssetData, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if data, ok := g.cache.Get(ticker); ok {
		return data, nil
	}
	// The shared load outlives any single caller; each caller still gives
	// up on its own deadline.
	loadCtx := context.WithoutCancel(ctx)
	results := g.loads.DoChan(ticker, func() (any, error) {
		data, err := g.source.Load(loadCtx, ticker)
		if err != nil {
			return nil, err
		}
		g.cache.Add(data)
		g.logger.Debug("asset loaded", zap.String("ticker", ticker), zap.Int("months", len(data.Months)))
		return data, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.AssetData), nil
	}
}

func (g *MarketDataGateway) ResolveAsset(ctx context.Context, ticker string) (*models.AssetInfo, error) {
	data, err := g.asset(ctx, ticker)
	if err != nil {
		return nil, err
	}
	info := data.Info()
	return &info, nil
}

func (g *MarketDataGateway) GetPrice(ctx context.Context, ticker string, month time.Time) (decimal.Decimal, error) {
	data, err := g.asset(ctx, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	m, ok := data.Month(month)
	if !ok || !m.Close.IsPositive() {
		return decimal.Zero, apperrors.New(apperrors.KindPriceUnavailable,
			"no price for %s in %s", data.Ticker, models.MonthOf(month).Format("2006-01"))
	}
	return m.Close, nil
}

func (g *MarketDataGateway) GetDividend(ctx context.Context, ticker string, month time.Time) (decimal.Decimal, bool, error) {
	data, err := g.asset(ctx, ticker)
	if err != nil {
		return decimal.Zero, false, err
	}
	m, ok := data.Month(month)
	if !ok || !m.Dividends.IsPositive() {
		return decimal.Zero, false, nil
	}
	return m.Dividends, true, nil
}
