package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

// Transaction - запись журнала операций по балансу.
type Transaction struct {
	ID        uuid.UUID
	UserID    int64
	OrderID   *int64
	RequestID *int64
	Type      valueobject.TransactionType
	Amount    decimal.Decimal
	CreatedAt time.Time
}

func NewTransaction(userID int64, txType valueobject.TransactionType, amount decimal.Decimal, ref Ref) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		OrderID:   ref.OrderID,
		RequestID: ref.RequestID,
		Type:      txType,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

// Ref связывает операцию по балансу с заказом или заявкой.
type Ref struct {
	OrderID   *int64
	RequestID *int64
}

func OrderRef(orderID int64) Ref {
	return Ref{OrderID: &orderID}
}

func RequestRef(requestID int64) Ref {
	return Ref{RequestID: &requestID}
}
