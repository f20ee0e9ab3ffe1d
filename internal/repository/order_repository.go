package repository

import (
	"context"
	"database/sql"
	"errors"
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

var (
	_ repository.OrderRepository    = (*OrderRepository)(nil)
	_ repository.ResponseRepository = (*ResponseRepository)(nil)
)

type orderRow struct {
	ID                   int64           `db:"id"`
	Kind                 string          `db:"kind"`
	ClientID             int64           `db:"client_id"`
	Title                string          `db:"title"`
	Description          string          `db:"description"`
	Budget               decimal.Decimal `db:"budget"`
	ServiceID            *int64          `db:"service_id"`
	Status               string          `db:"status"`
	SelectedFreelancerID *int64          `db:"selected_freelancer_id"`
	ClientConfirmed      bool            `db:"client_confirmed"`
	FreelancerConfirmed  bool            `db:"freelancer_confirmed"`
	ConfirmedByAdmin     bool            `db:"confirmed_by_admin"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
	CompletedAt          *time.Time      `db:"completed_at"`
	CancelledAt          *time.Time      `db:"cancelled_at"`
}

func (r orderRow) toEntity() *entity.Order {
	return &entity.Order{
		ID:                   r.ID,
		Kind:                 valueobject.OrderKind(r.Kind),
		ClientID:             r.ClientID,
		Title:                r.Title,
		Description:          r.Description,
		Budget:               r.Budget,
		ServiceID:            r.ServiceID,
		Status:               valueobject.OrderStatus(r.Status),
		SelectedFreelancerID: r.SelectedFreelancerID,
		ClientConfirmed:      r.ClientConfirmed,
		FreelancerConfirmed:  r.FreelancerConfirmed,
		ConfirmedByAdmin:     r.ConfirmedByAdmin,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		CompletedAt:          r.CompletedAt,
		CancelledAt:          r.CancelledAt,
	}
}

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	q := common.Executor(ctx, r.db)
	err := sqlx.GetContext(ctx, q, &o.ID, q.Rebind(`
		INSERT INTO orders (kind, client_id, title, description, budget, service_id, status,
			selected_freelancer_id, client_confirmed, freelancer_confirmed, confirmed_by_admin,
			created_at, updated_at, completed_at, cancelled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), string(o.Kind), o.ClientID, o.Title, o.Description, o.Budget, o.ServiceID, string(o.Status),
		o.SelectedFreelancerID, o.ClientConfirmed, o.FreelancerConfirmed, o.ConfirmedByAdmin,
		o.CreatedAt, o.UpdatedAt, o.CompletedAt, o.CancelledAt)
	if err != nil {
		return apperror.Persistence(fmt.Errorf("order repository: create %w", err))
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	row, err := common.GetByID[orderRow](ctx, common.Executor(ctx, r.db), "orders", id, apperror.ErrOrderNotFound)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return row.toEntity(), nil
}

func (r *OrderRepository) Update(ctx context.Context, o *entity.Order) error {
	q := common.Executor(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE orders
		SET status = ?, selected_freelancer_id = ?, client_confirmed = ?, freelancer_confirmed = ?,
			confirmed_by_admin = ?, updated_at = ?, completed_at = ?, cancelled_at = ?
		WHERE id = ?
	`), string(o.Status), o.SelectedFreelancerID, o.ClientConfirmed, o.FreelancerConfirmed,
		o.ConfirmedByAdmin, o.UpdatedAt, o.CompletedAt, o.CancelledAt, o.ID)
	if err != nil {
		return apperror.Persistence(fmt.Errorf("order repository: update %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.ClientID != nil {
		where = append(where, "client_id = ?")
		args = append(args, *f.ClientID)
	}
	if f.FreelancerID != nil {
		where = append(where, "selected_freelancer_id = ?")
		args = append(args, *f.FreelancerID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.AwaitingAdmin {
		where = append(where, "kind = ?", "confirmed_by_admin = ?")
		args = append(args, string(valueobject.OrderKindService), false)
	}

	query := "SELECT * FROM orders"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query, args = paginate(query+" ORDER BY id DESC", args, f.Limit, f.Offset)

	q := common.Executor(ctx, r.db)
	var rows []orderRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("order repository: list %w", err))
	}
	out := make([]*entity.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[valueobject.OrderStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	q := common.Executor(ctx, r.db)
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT status, COUNT(*) AS count FROM orders GROUP BY status`); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("order repository: count by status %w", err))
	}
	counts := make(map[valueobject.OrderStatus]int, len(rows))
	for _, row := range rows {
		counts[valueobject.OrderStatus(row.Status)] = row.Count
	}
	return counts, nil
}

type responseRow struct {
	OrderID      int64     `db:"order_id"`
	FreelancerID int64     `db:"freelancer_id"`
	Message      string    `db:"message"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r responseRow) toEntity() *entity.Response {
	return &entity.Response{
		OrderID:      r.OrderID,
		FreelancerID: r.FreelancerID,
		Message:      r.Message,
		CreatedAt:    r.CreatedAt,
	}
}

// ResponseRepository хранит отклики; пара (order_id, freelancer_id) уникальна на уровне схемы.
type ResponseRepository struct {
	db *sqlx.DB
}

func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

func (r *ResponseRepository) Create(ctx context.Context, resp *entity.Response) error {
	q := common.Executor(ctx, r.db)
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO responses (order_id, freelancer_id, message, created_at) VALUES (?, ?, ?, ?)
	`), resp.OrderID, resp.FreelancerID, resp.Message, resp.CreatedAt)
	if common.IsUniqueViolation(err) {
		return apperror.ErrDuplicateResponse
	}
	if err != nil {
		return apperror.Persistence(fmt.Errorf("response repository: create %w", err))
	}
	return nil
}

func (r *ResponseRepository) Find(ctx context.Context, orderID, freelancerID int64) (*entity.Response, error) {
	q := common.Executor(ctx, r.db)
	var row responseRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`
		SELECT * FROM responses WHERE order_id = ? AND freelancer_id = ?
	`), orderID, freelancerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("response repository: find %w", err))
	}
	return row.toEntity(), nil
}

func (r *ResponseRepository) ListByOrder(ctx context.Context, orderID int64) ([]*entity.Response, error) {
	return r.list(ctx, `SELECT * FROM responses WHERE order_id = ? ORDER BY created_at, freelancer_id`, orderID)
}

func (r *ResponseRepository) ListByFreelancer(ctx context.Context, freelancerID int64) ([]*entity.Response, error) {
	return r.list(ctx, `SELECT * FROM responses WHERE freelancer_id = ? ORDER BY order_id DESC`, freelancerID)
}

func (r *ResponseRepository) list(ctx context.Context, query string, id int64) ([]*entity.Response, error) {
	q := common.Executor(ctx, r.db)
	var rows []responseRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), id); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("response repository: list %w", err))
	}
	out := make([]*entity.Response, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
