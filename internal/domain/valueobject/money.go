package valueobject

import (
	"strings"

	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "TMT"

// MaxAmount соответствует колонкам NUMERIC(20,2): не больше 18 цифр до запятой.
var MaxAmount = decimal.RequireFromString("999999999999999999.99")

const maxAmountInputLength = 32

// ParseAmount разбирает сумму, введённую пользователем: "150", "150.5", "150,5 TMT".
// Возвращает ErrInvalidAmount, если сумма не положительная или не разбирается.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToUpper(s), DefaultCurrency))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" || len(s) > maxAmountInputLength || strings.ContainsAny(s, "eE") {
		return decimal.Zero, apperror.ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperror.Wrap(err, apperror.ErrCodeInvalidAmount, "некорректная сумма")
	}
	amount = amount.Round(2)
	if err := RequirePositive(amount); err != nil {
		return decimal.Zero, err
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, apperror.New(apperror.ErrCodeInvalidAmount, "сумма слишком большая")
	}
	return amount, nil
}

// RequirePositive проверяет, что сумма строго больше нуля.
func RequirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount
	}
	return nil
}

func Format(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return amount.StringFixed(2) + " " + currency
}

// Commission считает комиссию платформы с округлением до копеек.
func Commission(amount, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(rate).Round(2)
}
