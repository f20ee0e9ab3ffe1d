package valueobject

import "github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"

type OrderStatus string

const (
	OrderStatusActive     OrderStatus = "active"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusActive:     {OrderStatusInProgress},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// CanTransitionTo сверяется с таблицей переходов, через неё проходят все
// изменения статуса в entity.Order.
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	for _, status := range orderTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// OrderKind отличает обычный заказ от заказа готовой услуги из каталога.
type OrderKind string

const (
	OrderKindStandard OrderKind = "standard"
	OrderKindService  OrderKind = "service"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
)

func (r Role) IsValid() bool {
	return r == RoleClient || r == RoleFreelancer
}

func (r Role) Opposite() Role {
	if r == RoleClient {
		return RoleFreelancer
	}
	return RoleClient
}

func NewRole(role string) (Role, error) {
	r := Role(role)
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "роль должна быть client или freelancer")
	}
	return r, nil
}

type RequestType string

const (
	RequestTypeTopup    RequestType = "topup"
	RequestTypeWithdraw RequestType = "withdraw"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusRejected  RequestStatus = "rejected"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func NewDecision(decision string) (Decision, error) {
	d := Decision(decision)
	if d != DecisionApprove && d != DecisionReject {
		return "", apperror.New(apperror.ErrCodeValidation, "решение должно быть approve или reject")
	}
	return d, nil
}

type TransactionType string

const (
	TransactionCredit     TransactionType = "credit"
	TransactionDebit      TransactionType = "debit"
	TransactionFreeze     TransactionType = "freeze"
	TransactionUnfreeze   TransactionType = "unfreeze"
	TransactionReleaseOut TransactionType = "release_out"
	TransactionReleaseIn  TransactionType = "release_in"
)
