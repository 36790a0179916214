// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount in the given ISO currency with thousands
// separators and the currency symbol. Whole amounts drop the fraction.
// e.g., 15000 USD -> "$15,000", 1200.5 USD -> "$1,200.50"
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		cur = money.GetCurrency(money.USD)
	}

	if amount.Equal(amount.Truncate(0)) {
		f := money.NewFormatter(0, cur.Decimal, cur.Thousand, cur.Grapheme, cur.Template)
		return f.Format(amount.IntPart())
	}

	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a 0-100 percentage, rounded to a whole number.
func FormatPercent(pct int) string {
	return fmt.Sprintf("%d%%", pct)
}

// FormatCount formats "done/total".
func FormatCount(done, total int) string {
	return fmt.Sprintf("%s/%s", FormatNumber(int64(done)), FormatNumber(int64(total)))
}

// FormatDate formats a date as "Jan 2, 2006" in the local time zone.
func FormatDate(t time.Time) string {
	return t.Local().Format("Jan 2, 2006")
}

// FormatRelative formats t relative to now, e.g. "3 minutes ago".
// The zero time renders as "never".
func FormatRelative(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
