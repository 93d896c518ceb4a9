package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/models"
)

// FileAssetSource reads asset series from <Dir>/<TICKER>.json.
type FileAssetSource struct {
	Dir string
}

func NewFileAssetSource(dir string) *FileAssetSource {
	return &FileAssetSource{Dir: dir}
}

type assetFile struct {
	Ticker   string           `json:"ticker"`
	Name     string           `json:"name"`
	Currency string           `json:"currency"`
	Months   []assetFileMonth `json:"months"`
}

type assetFileMonth struct {
	Date      string              `json:"date"`
	Open      decimal.Decimal     `json:"open"`
	High      decimal.Decimal     `json:"high"`
	Low       decimal.Decimal     `json:"low"`
	Close     decimal.Decimal     `json:"close"`
	Dividends decimal.NullDecimal `json:"dividends"`
	Splits    decimal.NullDecimal `json:"splits"`
}

// Load fails with KindAssetNotFound when the file is missing or holds no
// months, and KindGateway when it cannot be read or parsed.
func (s *FileAssetSource) Load(ctx context.Context, ticker string) (*models.AssetData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" || strings.ContainsAny(ticker, `/\`) || strings.Contains(ticker, "..") {
		return nil, apperrors.New(apperrors.KindAssetNotFound, "asset %q not found", ticker)
	}

	raw, err := os.ReadFile(filepath.Join(s.Dir, ticker+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.New(apperrors.KindAssetNotFound, "asset %q not found", ticker)
		}
		return nil, apperrors.Wrap(apperrors.KindGateway, err, "failed to read asset %s", ticker)
	}

	var file assetFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, apperrors.Wrap(apperrors.KindGateway, err, "failed to parse asset %s", ticker)
	}
	if len(file.Months) == 0 {
		return nil, apperrors.New(apperrors.KindAssetNotFound, "asset %q has no price history", ticker)
	}

	data := &models.AssetData{
		Ticker:   ticker,
		Name:     file.Name,
		Currency: strings.ToUpper(file.Currency),
		Months:   make([]models.AssetMonth, 0, len(file.Months)),
	}
	if data.Name == "" {
		data.Name = ticker
	}
	for _, m := range file.Months {
		date, err := parseMonth(m.Date)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindGateway, err, "asset %s has an invalid date %q", ticker, m.Date)
		}
		data.Months = append(data.Months, models.AssetMonth{
			Date:      date,
			Open:      m.Open,
			High:      m.High,
			Low:       m.Low,
			Close:     m.Close,
			Dividends: m.Dividends.Decimal,
			Splits:    m.Splits.Decimal,
		})
	}
	data.GapFill()
	return data, nil
}

func parseMonth(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return models.MonthOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
