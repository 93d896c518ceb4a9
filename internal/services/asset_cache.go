package services

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/simfolio/backend/internal/models"
)

// DefaultAssetCacheSize is the number of asset series kept in memory.
const DefaultAssetCacheSize = 10

// AssetCache is a bounded LRU of loaded asset series, keyed by ticker.
// Each gateway owns its own instance.
type AssetCache struct {
	entries *lru.Cache[string, *models.AssetData]
}

// NewAssetCache builds a cache holding at most size series. Non-positive
// sizes fall back to DefaultAssetCacheSize.
func NewAssetCache(size int) *AssetCache {
	if size <= 0 {
		size = DefaultAssetCacheSize
	}
	entries, err := lru.New[string, *models.AssetData](size)
	if err != nil {
		// only fails for size <= 0
		panic(err)
	}
	return &AssetCache{entries: entries}
}

func (c *AssetCache) Get(ticker string) (*models.AssetData, bool) {
	return c.entries.Get(ticker)
}

func (c *AssetCache) Add(data *models.AssetData) {
	c.entries.Add(data.Ticker, data)
}

func (c *AssetCache) Len() int {
	return c.entries.Len()
}

func (c *AssetCache) Purge() {
	c.entries.Purge()
}
