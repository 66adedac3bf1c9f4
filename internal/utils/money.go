// internal/utils/money.go
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCRC renders an amount the es-CR way with a currency prefix:
// "CRC 15.000" or "CRC 1.250,50". Cents are shown only when non-zero.
func FormatCRC(amount decimal.Decimal) string {
	return "CRC " + GroupThousands(amount)
}

// GroupThousands formats amount with "." as thousands separator and "," for decimals.
func GroupThousands(amount decimal.Decimal) string {
	amount = amount.Round(2)
	negative := amount.IsNegative()
	amount = amount.Abs()

	whole := amount.Truncate(0).String()
	cents := amount.Sub(amount.Truncate(0)).Mul(decimal.NewFromInt(100)).IntPart()

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if cents > 0 {
		b.WriteByte(',')
		if cents < 10 {
			b.WriteByte('0')
		}
		b.WriteString(decimal.NewFromInt(cents).String())
	}
	return b.String()
}
