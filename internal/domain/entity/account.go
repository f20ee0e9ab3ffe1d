package entity

import (
	"time"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

// Account хранит роль пользователя и два его баланса: доступный и замороженный.
// Оба баланса никогда не уходят в минус: каждый метод проверяет условие до изменения.
type Account struct {
	ID        int64
	Role      valueobject.Role
	Username  string
	FirstName string
	Language  string
	Available decimal.Decimal
	Frozen    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Profile struct {
	Username  string
	FirstName string
	Language  string
}

func NewAccount(id int64, role valueobject.Role, profile Profile) (*Account, error) {
	if id == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "идентификатор пользователя обязателен")
	}
	if !role.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "роль должна быть client или freelancer")
	}
	if profile.Language == "" {
		profile.Language = "ru"
	}
	now := time.Now().UTC()
	return &Account{
		ID:        id,
		Role:      role,
		Username:  profile.Username,
		FirstName: profile.FirstName,
		Language:  profile.Language,
		Available: decimal.Zero,
		Frozen:    decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (a *Account) Credit(amount decimal.Decimal) error {
	if err := valueobject.RequirePositive(amount); err != nil {
		return err
	}
	a.Available = a.Available.Add(amount)
	a.touch()
	return nil
}

func (a *Account) Debit(amount decimal.Decimal) error {
	if err := valueobject.RequirePositive(amount); err != nil {
		return err
	}
	if a.Available.LessThan(amount) {
		return apperror.ErrInsufficientFunds
	}
	a.Available = a.Available.Sub(amount)
	a.touch()
	return nil
}

func (a *Account) Freeze(amount decimal.Decimal) error {
	if err := valueobject.RequirePositive(amount); err != nil {
		return err
	}
	if a.Available.LessThan(amount) {
		return apperror.ErrInsufficientFunds
	}
	a.Available = a.Available.Sub(amount)
	a.Frozen = a.Frozen.Add(amount)
	a.touch()
	return nil
}

func (a *Account) Unfreeze(amount decimal.Decimal) error {
	if err := valueobject.RequirePositive(amount); err != nil {
		return err
	}
	if a.Frozen.LessThan(amount) {
		return apperror.ErrInsufficientFrozen
	}
	a.Frozen = a.Frozen.Sub(amount)
	a.Available = a.Available.Add(amount)
	a.touch()
	return nil
}

// ReleaseFrozen списывает замороженные средства без возврата на доступный баланс.
// Вторая половина перевода: получатель зачисляет ту же сумму через Credit.
func (a *Account) ReleaseFrozen(amount decimal.Decimal) error {
	if err := valueobject.RequirePositive(amount); err != nil {
		return err
	}
	if a.Frozen.LessThan(amount) {
		return apperror.ErrInsufficientFrozen
	}
	a.Frozen = a.Frozen.Sub(amount)
	a.touch()
	return nil
}

func (a *Account) SwitchRole() valueobject.Role {
	a.Role = a.Role.Opposite()
	a.touch()
	return a.Role
}

func (a *Account) Total() decimal.Decimal {
	return a.Available.Add(a.Frozen)
}

func (a *Account) touch() {
	a.UpdatedAt = time.Now().UTC()
}
