package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AssetMonth is one monthly OHLC record of an asset, in its native currency.
type AssetMonth struct {
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Dividends decimal.Decimal `json:"dividends"`
	Splits    decimal.Decimal `json:"splits"`
}

// AssetData is the read-only monthly time series of an asset. Months are
// ordered and contiguous once GapFill has run.
type AssetData struct {
	Ticker   string       `json:"ticker"`
	Name     string       `json:"name"`
	Currency string       `json:"currency"`
	Months   []AssetMonth `json:"months"`
}

// AssetInfo is the resolved identity of an asset.
type AssetInfo struct {
	Ticker         string    `json:"ticker"`
	Name           string    `json:"name"`
	Currency       string    `json:"currency"`
	FirstAvailable time.Time `json:"first_available"`
}

// Info returns the asset's identity and first available month.
func (a *AssetData) Info() AssetInfo {
	info := AssetInfo{Ticker: a.Ticker, Name: a.Name, Currency: a.Currency}
	if len(a.Months) > 0 {
		info.FirstAvailable = a.Months[0].Date
	}
	return info
}

// Month returns the record for month, if any.
func (a *AssetData) Month(month time.Time) (AssetMonth, bool) {
	month = MonthOf(month)
	i := sort.Search(len(a.Months), func(i int) bool { return !a.Months[i].Date.Before(month) })
	if i < len(a.Months) && a.Months[i].Date.Equal(month) {
		return a.Months[i], true
	}
	return AssetMonth{}, false
}

// GapFill normalizes every date to first-of-month, sorts the series, drops
// duplicate months (last wins) and inserts a record for every missing month
// between the first and last one. Inserted months carry the previous close
// forward with no dividend and no split.
func (a *AssetData) GapFill() {
	if len(a.Months) == 0 {
		return
	}
	byMonth := make(map[time.Time]AssetMonth, len(a.Months))
	for _, m := range a.Months {
		m.Date = MonthOf(m.Date)
		byMonth[m.Date] = m
	}
	keys := make([]time.Time, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	filled := make([]AssetMonth, 0, len(keys))
	for month := keys[0]; !month.After(keys[len(keys)-1]); month = AddMonths(month, 1) {
		if m, ok := byMonth[month]; ok {
			filled = append(filled, m)
			continue
		}
		prev := filled[len(filled)-1]
		filled = append(filled, AssetMonth{
			Date:      month,
			Open:      prev.Close,
			High:      prev.Close,
			Low:       prev.Close,
			Close:     prev.Close,
			Dividends: decimal.Zero,
			Splits:    decimal.Zero,
		})
	}
	a.Months = filled
}

// ExchangeRate is the monthly closing rate: 1 unit of FromCurrency buys Rate
// units of ToCurrency.
type ExchangeRate struct {
	ID           uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	FromCurrency string          `json:"from_currency" gorm:"column:from_currency;type:varchar(3);not null;uniqueIndex:idx_rate_pair_month"`
	ToCurrency   string          `json:"to_currency" gorm:"column:to_currency;type:varchar(3);not null;uniqueIndex:idx_rate_pair_month"`
	Month        time.Time       `json:"month" gorm:"column:month;type:date;not null;uniqueIndex:idx_rate_pair_month"`
	Rate         decimal.Decimal `json:"rate" gorm:"column:rate;type:text;not null"`
	Source       string          `json:"source" gorm:"column:source;type:varchar(50);not null;default:'manual'"`
	CreatedAt    time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for the ExchangeRate model
func (ExchangeRate) TableName() string {
	return "exchange_rates"
}

// InflationIndex is the value of a price index (CPI, IPCA, ...) for one
// currency and month.
type InflationIndex struct {
	ID        uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	Currency  string          `json:"currency" gorm:"column:currency;type:varchar(3);not null;uniqueIndex:idx_index_ccy_month"`
	Month     time.Time       `json:"month" gorm:"column:month;type:date;not null;uniqueIndex:idx_index_ccy_month"`
	Value     decimal.Decimal `json:"value" gorm:"column:value;type:text;not null"`
	Source    string          `json:"source" gorm:"column:source;type:varchar(50);not null;default:'manual'"`
	CreatedAt time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for the InflationIndex model
func (InflationIndex) TableName() string {
	return "inflation_indices"
}
