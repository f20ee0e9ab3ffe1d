package repository

import (
	"context"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
)

type OrderRepository interface {
	// Create присваивает заказу следующий идентификатор.
	Create(ctx context.Context, order *entity.Order) error
	// FindByID возвращает apperror.ErrOrderNotFound, если заказа нет.
	FindByID(ctx context.Context, id int64) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	List(ctx context.Context, filter OrderFilter) ([]*entity.Order, error)
	CountByStatus(ctx context.Context) (map[valueobject.OrderStatus]int, error)
}

type OrderFilter struct {
	ClientID     *int64
	FreelancerID *int64
	Status       valueobject.OrderStatus
	Kind         valueobject.OrderKind
	// AwaitingAdmin оставляет только заказы услуг без подтверждения администратора.
	AwaitingAdmin bool
	Limit         int
	Offset        int
}

type ResponseRepository interface {
	// Create возвращает apperror.ErrDuplicateResponse для повторного отклика.
	Create(ctx context.Context, response *entity.Response) error
	// Find возвращает nil, nil, если отклика нет.
	Find(ctx context.Context, orderID, freelancerID int64) (*entity.Response, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*entity.Response, error)
	ListByFreelancer(ctx context.Context, freelancerID int64) ([]*entity.Response, error)
}

type ServiceListingRepository interface {
	Create(ctx context.Context, listing *entity.ServiceListing) error
	// FindByID возвращает apperror.ErrServiceNotFound, если услуги нет.
	FindByID(ctx context.Context, id int64) (*entity.ServiceListing, error)
	Delete(ctx context.Context, id int64) error
	ListByFreelancer(ctx context.Context, freelancerID int64) ([]*entity.ServiceListing, error)
	ListByCategory(ctx context.Context, category string, limit, offset int) ([]*entity.ServiceListing, error)
}
