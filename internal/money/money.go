// Package money holds the exact-decimal helpers shared by the ledger, the
// holding ledger and the reports. All monetary arithmetic goes through
// shopspring/decimal; nothing here touches binary floats.
package money

import (
	"regexp"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CashPlaces is the number of fractional digits allowed on cash amounts.
const CashPlaces = 2

var (
	Hundred = decimal.NewFromInt(100)

	// MaxAmount is the largest amount accepted by a single operation.
	MaxAmount = decimal.RequireFromString("999999999999.99")

	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Truncate cuts d to places fractional digits, rounding toward zero.
// Values are never rounded up so that market values are not overstated.
func Truncate(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Truncate(places)
}

// TruncateCash truncates d to cents.
func TruncateCash(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(CashPlaces)
}

// FractionalDigits returns the number of digits after the decimal point as
// written, so "10.50" has two and "10.5" has one.
func FractionalDigits(d decimal.Decimal) int32 {
	if exp := d.Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// Percent returns part/total*100 truncated to two places, or zero when total
// is not positive.
func Percent(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return TruncateCash(part.Div(total).Mul(Hundred))
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCurrencyCode reports whether code is three upper-case letters naming a
// known ISO 4217 currency.
func IsCurrencyCode(code string) bool {
	if !currencyPattern.MatchString(code) {
		return false
	}
	return gomoney.GetCurrency(code) != nil
}

// Format renders amount using the currency's symbol and grouping, e.g.
// "$1,000.50". Extra precision beyond the currency's minor unit is truncated.
func Format(amount decimal.Decimal, code string) string {
	cur := gomoney.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(CashPlaces) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Truncate(0)
	return cur.Formatter().Format(minor.IntPart())
}

// DivisionPlaces is the precision kept when dividing, e.g. amount / price.
const DivisionPlaces = 20

// Div returns a / b rounded half away from zero to DivisionPlaces digits.
func Div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, DivisionPlaces)
}
