package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var _ repository.ServiceListingRepository = (*ServiceListingRepository)(nil)

type serviceListingRow struct {
	ID           int64           `db:"id"`
	FreelancerID int64           `db:"freelancer_id"`
	Title        string          `db:"title"`
	Description  string          `db:"description"`
	Category     string          `db:"category"`
	Price        decimal.Decimal `db:"price"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (r serviceListingRow) toEntity() *entity.ServiceListing {
	return &entity.ServiceListing{
		ID:           r.ID,
		FreelancerID: r.FreelancerID,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		Price:        r.Price,
		CreatedAt:    r.CreatedAt,
	}
}

// ServiceListingRepository - каталог готовых услуг фрилансеров.
type ServiceListingRepository struct {
	db *sqlx.DB
}

func NewServiceListingRepository(db *sqlx.DB) *ServiceListingRepository {
	return &ServiceListingRepository{db: db}
}

func (r *ServiceListingRepository) Create(ctx context.Context, l *entity.ServiceListing) error {
	q := common.Executor(ctx, r.db)
	err := sqlx.GetContext(ctx, q, &l.ID, q.Rebind(`
		INSERT INTO service_listings (freelancer_id, title, description, category, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), l.FreelancerID, l.Title, l.Description, l.Category, l.Price, l.CreatedAt)
	if err != nil {
		return apperror.Persistence(fmt.Errorf("service listing repository: create %w", err))
	}
	return nil
}

func (r *ServiceListingRepository) FindByID(ctx context.Context, id int64) (*entity.ServiceListing, error) {
	row, err := common.GetByID[serviceListingRow](ctx, common.Executor(ctx, r.db), "service_listings", id, apperror.ErrServiceNotFound)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return row.toEntity(), nil
}

func (r *ServiceListingRepository) Delete(ctx context.Context, id int64) error {
	q := common.Executor(ctx, r.db)
	res, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM service_listings WHERE id = ?`), id)
	if err != nil {
		return apperror.Persistence(fmt.Errorf("service listing repository: delete %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrServiceNotFound
	}
	return nil
}

func (r *ServiceListingRepository) ListByFreelancer(ctx context.Context, freelancerID int64) ([]*entity.ServiceListing, error) {
	return r.list(ctx, `SELECT * FROM service_listings WHERE freelancer_id = ? ORDER BY id DESC`, []interface{}{freelancerID})
}

func (r *ServiceListingRepository) ListByCategory(ctx context.Context, category string, limit, offset int) ([]*entity.ServiceListing, error) {
	query, args := `SELECT * FROM service_listings ORDER BY id DESC`, []interface{}{}
	if category != "" {
		query, args = `SELECT * FROM service_listings WHERE category = ? ORDER BY id DESC`, []interface{}{category}
	}
	query, args = paginate(query, args, limit, offset)
	return r.list(ctx, query, args)
}

func (r *ServiceListingRepository) list(ctx context.Context, query string, args []interface{}) ([]*entity.ServiceListing, error) {
	q := common.Executor(ctx, r.db)
	var rows []serviceListingRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("service listing repository: list %w", err))
	}
	out := make([]*entity.ServiceListing, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
