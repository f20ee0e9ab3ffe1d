package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var _ repository.TransactionRepository = (*TransactionRepository)(nil)

type transactionRow struct {
	ID        uuid.UUID       `db:"id"`
	UserID    int64           `db:"user_id"`
	OrderID   *int64          `db:"order_id"`
	RequestID *int64          `db:"request_id"`
	Type      string          `db:"type"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt time.Time       `db:"created_at"`
}

// TransactionRepository ведёт журнал операций по балансам.
type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *entity.Transaction) error {
	q := common.Executor(ctx, r.db)
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO transactions (id, user_id, order_id, request_id, type, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), t.ID, t.UserID, t.OrderID, t.RequestID, string(t.Type), t.Amount, t.CreatedAt)
	if err != nil {
		return apperror.Persistence(fmt.Errorf("transaction repository: create %w", err))
	}
	return nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*entity.Transaction, error) {
	q := common.Executor(ctx, r.db)
	query, args := paginate(`SELECT * FROM transactions WHERE user_id = ? ORDER BY created_at DESC`, []interface{}{userID}, limit, offset)

	var rows []transactionRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("transaction repository: list %w", err))
	}
	out := make([]*entity.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.Transaction{
			ID:        row.ID,
			UserID:    row.UserID,
			OrderID:   row.OrderID,
			RequestID: row.RequestID,
			Type:      valueobject.TransactionType(row.Type),
			Amount:    row.Amount,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}
