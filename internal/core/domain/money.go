package domain

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits carried by every monetary amount.
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds an amount half-even to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyScale)
}

// PercentOf returns amount × pct / 100 rounded half-even to cents.
// Example: PercentOf(333.33, 10) = 33.33
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).RoundBank(MoneyScale)
}

// IsWholeCents reports whether d carries no more than two fractional digits.
func IsWholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// SumMoney adds amounts exactly.
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Ratio returns numerator/denominator rounded to four digits, or zero when the denominator is zero.
func Ratio(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.DivRound(denominator, 4)
}
