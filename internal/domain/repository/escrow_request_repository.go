package repository

import (
	"context"
	"time"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
)

type EscrowRequestRepository interface {
	// Create присваивает заявке следующий идентификатор.
	Create(ctx context.Context, request *entity.EscrowRequest) error
	// FindByID возвращает apperror.ErrRequestNotFound, если заявки нет.
	FindByID(ctx context.Context, id int64) (*entity.EscrowRequest, error)
	Update(ctx context.Context, request *entity.EscrowRequest) error
	List(ctx context.Context, filter RequestFilter) ([]*entity.EscrowRequest, error)
}

type RequestFilter struct {
	UserID        *int64
	Status        valueobject.RequestStatus
	CreatedBefore *time.Time
	Limit         int
}

type ReviewRepository interface {
	// Create возвращает apperror.ErrReviewNotAllowed, если отзыв с таким ключом уже есть.
	Create(ctx context.Context, review *entity.Review) error
	Exists(ctx context.Context, orderID, reviewerID, reviewedID int64) (bool, error)
	ListByReviewed(ctx context.Context, reviewedID int64) ([]*entity.Review, error)
	// AverageRating возвращает среднюю оценку и число отзывов.
	AverageRating(ctx context.Context, reviewedID int64) (float64, int, error)
	Count(ctx context.Context) (int, error)
}
