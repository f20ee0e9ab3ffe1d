package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

type reviewRow struct {
	OrderID    int64     `db:"order_id"`
	ReviewerID int64     `db:"reviewer_id"`
	ReviewedID int64     `db:"reviewed_id"`
	Rating     int       `db:"rating"`
	Comment    string    `db:"comment"`
	CreatedAt  time.Time `db:"created_at"`
}

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *entity.Review) error {
	q := common.Executor(ctx, r.db)
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO reviews (order_id, reviewer_id, reviewed_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), rv.OrderID, rv.ReviewerID, rv.ReviewedID, rv.Rating, rv.Comment, rv.CreatedAt)
	if common.IsUniqueViolation(err) {
		return apperror.ErrReviewNotAllowed
	}
	if err != nil {
		return apperror.Persistence(fmt.Errorf("review repository: create %w", err))
	}
	return nil
}

func (r *ReviewRepository) Exists(ctx context.Context, orderID, reviewerID, reviewedID int64) (bool, error) {
	q := common.Executor(ctx, r.db)
	var count int
	err := sqlx.GetContext(ctx, q, &count, q.Rebind(`
		SELECT COUNT(*) FROM reviews WHERE order_id = ? AND reviewer_id = ? AND reviewed_id = ?
	`), orderID, reviewerID, reviewedID)
	if err != nil {
		return false, apperror.Persistence(fmt.Errorf("review repository: exists %w", err))
	}
	return count > 0, nil
}

func (r *ReviewRepository) ListByReviewed(ctx context.Context, reviewedID int64) ([]*entity.Review, error) {
	q := common.Executor(ctx, r.db)
	var rows []reviewRow
	err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(`
		SELECT * FROM reviews WHERE reviewed_id = ? ORDER BY created_at DESC
	`), reviewedID)
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("review repository: list %w", err))
	}
	out := make([]*entity.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.Review{
			OrderID:    row.OrderID,
			ReviewerID: row.ReviewerID,
			ReviewedID: row.ReviewedID,
			Rating:     row.Rating,
			Comment:    row.Comment,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out, nil
}

func (r *ReviewRepository) AverageRating(ctx context.Context, reviewedID int64) (float64, int, error) {
	q := common.Executor(ctx, r.db)
	var agg struct {
		Avg   sql.NullFloat64 `db:"avg"`
		Count int             `db:"count"`
	}
	err := sqlx.GetContext(ctx, q, &agg, q.Rebind(`
		SELECT AVG(rating) AS avg, COUNT(*) AS count FROM reviews WHERE reviewed_id = ?
	`), reviewedID)
	if err != nil {
		return 0, 0, apperror.Persistence(fmt.Errorf("review repository: average %w", err))
	}
	if !agg.Avg.Valid {
		return 0, 0, nil
	}
	return agg.Avg.Float64, agg.Count, nil
}

func (r *ReviewRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, common.Executor(ctx, r.db), &count, `SELECT COUNT(*) FROM reviews`); err != nil {
		return 0, apperror.Persistence(fmt.Errorf("review repository: count %w", err))
	}
	return count, nil
}
