package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

// EscrowRequest - заявка на пополнение или вывод, ожидающая решения администратора.
type EscrowRequest struct {
	ID            int64
	UserID        int64
	Type          valueobject.RequestType
	Amount        decimal.Decimal
	Phone         string
	Status        valueobject.RequestStatus
	BalanceBefore decimal.Decimal
	Commission    decimal.Decimal
	Payout        decimal.Decimal
	CreatedAt     time.Time
	ResolvedAt    *time.Time
	ResolvedBy    *int64
}

func NewWithdrawalRequest(userID int64, amount decimal.Decimal, phone string, balanceBefore, commissionRate decimal.Decimal) (*EscrowRequest, error) {
	if err := valueobject.RequirePositive(amount); err != nil {
		return nil, err
	}
	phone, err := validation.ValidatePhone(phone)
	if err != nil {
		return nil, err
	}
	commission := valueobject.Commission(amount, commissionRate)
	return &EscrowRequest{
		UserID:        userID,
		Type:          valueobject.RequestTypeWithdraw,
		Amount:        amount,
		Phone:         phone,
		Status:        valueobject.RequestStatusPending,
		BalanceBefore: balanceBefore,
		Commission:    commission,
		Payout:        amount.Sub(commission),
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func NewTopupRequest(userID int64, amount decimal.Decimal, balanceBefore decimal.Decimal) (*EscrowRequest, error) {
	if err := valueobject.RequirePositive(amount); err != nil {
		return nil, err
	}
	return &EscrowRequest{
		UserID:        userID,
		Type:          valueobject.RequestTypeTopup,
		Amount:        amount,
		Status:        valueobject.RequestStatusPending,
		BalanceBefore: balanceBefore,
		Commission:    decimal.Zero,
		Payout:        amount,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (r *EscrowRequest) IsPending() bool {
	return r.Status == valueobject.RequestStatusPending
}

// Resolve закрывает заявку. Заявку можно обработать только один раз.
func (r *EscrowRequest) Resolve(decision valueobject.Decision, adminID int64, at time.Time) error {
	if !r.IsPending() {
		return apperror.ErrAlreadyResolved
	}
	switch decision {
	case valueobject.DecisionApprove:
		r.Status = valueobject.RequestStatusCompleted
	case valueobject.DecisionReject:
		r.Status = valueobject.RequestStatusRejected
	default:
		return apperror.New(apperror.ErrCodeValidation, "решение должно быть approve или reject")
	}
	resolvedAt := at.UTC()
	r.ResolvedAt = &resolvedAt
	r.ResolvedBy = &adminID
	return nil
}

// NeedsCredit сообщает, нужно ли зачислить сумму пользователю при таком решении.
func (r *EscrowRequest) NeedsCredit(decision valueobject.Decision) bool {
	switch r.Type {
	case valueobject.RequestTypeTopup:
		return decision == valueobject.DecisionApprove
	case valueobject.RequestTypeWithdraw:
		return decision == valueobject.DecisionReject
	}
	return false
}
