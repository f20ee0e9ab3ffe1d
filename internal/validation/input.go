package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

// Константы валидации
const (
	MaxOrderTitleLength       = 200
	MaxOrderDescriptionLength = 5000
	MaxMessageLength          = 2000
	MaxServiceTitleLength     = 200
	MaxCategoryLength         = 50
	MaxCommentLength          = 2000
	MaxPhoneLength            = 32
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()-]*$`)

func invalid(format string, args ...interface{}) error {
	return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return invalid("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return invalid("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// RequiredText обрезает пробелы и проверяет, что строка не пустая и не длиннее max.
func RequiredText(fieldName, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid("%s обязательно", fieldName)
	}
	if err := ValidateLength(fieldName, value, 0, max); err != nil {
		return "", err
	}
	return value, nil
}

// OptionalText обрезает пробелы и проверяет только максимальную длину.
func OptionalText(fieldName, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if err := ValidateLength(fieldName, value, 0, max); err != nil {
		return "", err
	}
	return value, nil
}

// ValidatePhone проверяет номер для выплаты: цифры, ведущий "+", пробелы, скобки и дефисы.
func ValidatePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", invalid("номер телефона обязателен")
	}
	if err := ValidateLength("номер телефона", phone, 0, MaxPhoneLength); err != nil {
		return "", err
	}
	if !phoneRegex.MatchString(phone) {
		return "", invalid("номер телефона содержит недопустимые символы")
	}
	return phone, nil
}

// NormalizeCategory приводит категорию услуги к нижнему регистру, пустая становится "other".
func NormalizeCategory(category string) (string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return "other", nil
	}
	if err := ValidateLength("категория", category, 0, MaxCategoryLength); err != nil {
		return "", err
	}
	return category, nil
}
