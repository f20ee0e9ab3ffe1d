package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var _ repository.EscrowRequestRepository = (*EscrowRequestRepository)(nil)

type escrowRequestRow struct {
	ID            int64           `db:"id"`
	UserID        int64           `db:"user_id"`
	Type          string          `db:"type"`
	Amount        decimal.Decimal `db:"amount"`
	Phone         string          `db:"phone"`
	Status        string          `db:"status"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	Commission    decimal.Decimal `db:"commission"`
	Payout        decimal.Decimal `db:"payout"`
	CreatedAt     time.Time       `db:"created_at"`
	ResolvedAt    *time.Time      `db:"resolved_at"`
	ResolvedBy    *int64          `db:"resolved_by"`
}

func (r escrowRequestRow) toEntity() *entity.EscrowRequest {
	return &entity.EscrowRequest{
		ID:            r.ID,
		UserID:        r.UserID,
		Type:          valueobject.RequestType(r.Type),
		Amount:        r.Amount,
		Phone:         r.Phone,
		Status:        valueobject.RequestStatus(r.Status),
		BalanceBefore: r.BalanceBefore,
		Commission:    r.Commission,
		Payout:        r.Payout,
		CreatedAt:     r.CreatedAt,
		ResolvedAt:    r.ResolvedAt,
		ResolvedBy:    r.ResolvedBy,
	}
}

// EscrowRequestRepository хранит заявки на пополнение и вывод. Идентификаторы
// у обоих типов общие.
type EscrowRequestRepository struct {
	db *sqlx.DB
}

func NewEscrowRequestRepository(db *sqlx.DB) *EscrowRequestRepository {
	return &EscrowRequestRepository{db: db}
}

func (r *EscrowRequestRepository) Create(ctx context.Context, req *entity.EscrowRequest) error {
	q := common.Executor(ctx, r.db)
	err := sqlx.GetContext(ctx, q, &req.ID, q.Rebind(`
		INSERT INTO escrow_requests (user_id, type, amount, phone, status, balance_before, commission, payout, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), req.UserID, string(req.Type), req.Amount, req.Phone, string(req.Status), req.BalanceBefore,
		req.Commission, req.Payout, req.CreatedAt)
	if err != nil {
		return apperror.Persistence(fmt.Errorf("escrow request repository: create %w", err))
	}
	return nil
}

func (r *EscrowRequestRepository) FindByID(ctx context.Context, id int64) (*entity.EscrowRequest, error) {
	row, err := common.GetByID[escrowRequestRow](ctx, common.Executor(ctx, r.db), "escrow_requests", id, apperror.ErrRequestNotFound)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return row.toEntity(), nil
}

func (r *EscrowRequestRepository) Update(ctx context.Context, req *entity.EscrowRequest) error {
	q := common.Executor(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE escrow_requests SET status = ?, resolved_at = ?, resolved_by = ? WHERE id = ?
	`), string(req.Status), req.ResolvedAt, req.ResolvedBy, req.ID)
	if err != nil {
		return apperror.Persistence(fmt.Errorf("escrow request repository: update %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrRequestNotFound
	}
	return nil
}

func (r *EscrowRequestRepository) List(ctx context.Context, f repository.RequestFilter) ([]*entity.EscrowRequest, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.CreatedBefore != nil {
		where = append(where, "created_at < ?")
		args = append(args, f.CreatedBefore.UTC())
	}

	query := "SELECT * FROM escrow_requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query, args = paginate(query+" ORDER BY id", args, f.Limit, 0)

	q := common.Executor(ctx, r.db)
	var rows []escrowRequestRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("escrow request repository: list %w", err))
	}
	out := make([]*entity.EscrowRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
