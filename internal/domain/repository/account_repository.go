package repository

import (
	"context"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	// FindByID возвращает apperror.ErrUserNotFound, если аккаунта нет.
	FindByID(ctx context.Context, id int64) (*entity.Account, error)
	Update(ctx context.Context, account *entity.Account) error
	ListByRole(ctx context.Context, role valueobject.Role, limit, offset int) ([]*entity.Account, error)
	CountByRole(ctx context.Context) (map[valueobject.Role]int, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*entity.Transaction, error)
}
