package types

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders an amount with thousands separators and two decimals.
func FormatMoney(amount decimal.Decimal) string {
	return moneyPrinter.Sprintf("%.2f", amount.Round(2).InexactFloat64())
}

// FormattedPrice returns the display string for a price, or nil when the price is zero.
func FormattedPrice(amount decimal.Decimal) *string {
	if amount.IsZero() {
		return nil
	}
	formatted := FormatMoney(amount)
	return &formatted
}
