package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var _ repository.AccountRepository = (*AccountRepository)(nil)

type accountRow struct {
	ID        int64           `db:"id"`
	Role      string          `db:"role"`
	Username  string          `db:"username"`
	FirstName string          `db:"first_name"`
	Language  string          `db:"language"`
	Available decimal.Decimal `db:"available"`
	Frozen    decimal.Decimal `db:"frozen"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r accountRow) toEntity() *entity.Account {
	return &entity.Account{
		ID:        r.ID,
		Role:      valueobject.Role(r.Role),
		Username:  r.Username,
		FirstName: r.FirstName,
		Language:  r.Language,
		Available: r.Available,
		Frozen:    r.Frozen,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	q := common.Executor(ctx, r.db)
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO accounts (id, role, username, first_name, language, available, frozen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), a.ID, string(a.Role), a.Username, a.FirstName, a.Language, a.Available, a.Frozen, a.CreatedAt, a.UpdatedAt)
	if common.IsUniqueViolation(err) {
		return apperror.New(apperror.ErrCodeConflict, "пользователь уже зарегистрирован")
	}
	if err != nil {
		return apperror.Persistence(fmt.Errorf("account repository: create %w", err))
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*entity.Account, error) {
	row, err := common.GetByID[accountRow](ctx, common.Executor(ctx, r.db), "accounts", id, apperror.ErrUserNotFound)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return row.toEntity(), nil
}

func (r *AccountRepository) Update(ctx context.Context, a *entity.Account) error {
	q := common.Executor(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE accounts
		SET role = ?, username = ?, first_name = ?, language = ?, available = ?, frozen = ?, updated_at = ?
		WHERE id = ?
	`), string(a.Role), a.Username, a.FirstName, a.Language, a.Available, a.Frozen, a.UpdatedAt, a.ID)
	if err != nil {
		return apperror.Persistence(fmt.Errorf("account repository: update %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrUserNotFound
	}
	return nil
}

func (r *AccountRepository) ListByRole(ctx context.Context, role valueobject.Role, limit, offset int) ([]*entity.Account, error) {
	q := common.Executor(ctx, r.db)
	query, args := paginate(`SELECT * FROM accounts WHERE role = ? ORDER BY id`, []interface{}{string(role)}, limit, offset)

	var rows []accountRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("account repository: list by role %w", err))
	}
	out := make([]*entity.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *AccountRepository) CountByRole(ctx context.Context) (map[valueobject.Role]int, error) {
	var rows []struct {
		Role  string `db:"role"`
		Count int    `db:"count"`
	}
	q := common.Executor(ctx, r.db)
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT role, COUNT(*) AS count FROM accounts GROUP BY role`); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("account repository: count by role %w", err))
	}
	counts := make(map[valueobject.Role]int, len(rows))
	for _, row := range rows {
		counts[valueobject.Role(row.Role)] = row.Count
	}
	return counts, nil
}

// paginate дописывает LIMIT/OFFSET; limit <= 0 означает без ограничения.
func paginate(query string, args []interface{}, limit, offset int) (string, []interface{}) {
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}
	return query, args
}
