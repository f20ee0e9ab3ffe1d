package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/syncutil"
)

type AccountService struct {
	tx       repository.Transactor
	accounts repository.AccountRepository
	locks    *syncutil.KeyedMutex
}

func NewAccountService(store repository.Store, locks *syncutil.KeyedMutex) *AccountService {
	return &AccountService{tx: store.Tx, accounts: store.Accounts, locks: locks}
}

// Register создаёт аккаунт с нулевыми балансами. Для уже известного
// пользователя возвращает существующий аккаунт без изменений.
func (s *AccountService) Register(ctx context.Context, userID int64, role valueobject.Role, profile entity.Profile) (*entity.Account, bool, error) {
	unlock := s.locks.Lock(syncutil.AccountKey(userID))
	defer unlock()

	existing, err := s.accounts.FindByID(ctx, userID)
	if err == nil {
		return existing, false, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, false, err
	}

	acc, err := entity.NewAccount(userID, role, profile)
	if err != nil {
		return nil, false, err
	}
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.accounts.Create(ctx, acc)
	}); err != nil {
		return nil, false, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"role":    role,
	}).Info("account registered")
	return acc, true, nil
}

// SwitchRole переключает пользователя между клиентом и фрилансером.
func (s *AccountService) SwitchRole(ctx context.Context, userID int64) (*entity.Account, error) {
	unlock := s.locks.Lock(syncutil.AccountKey(userID))
	defer unlock()

	var acc *entity.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if acc, err = s.accounts.FindByID(ctx, userID); err != nil {
			return err
		}
		acc.SwitchRole()
		return s.accounts.Update(ctx, acc)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID, "role": acc.Role}).Info("account role switched")
	return acc, nil
}

func (s *AccountService) Get(ctx context.Context, userID int64) (*entity.Account, error) {
	return s.accounts.FindByID(ctx, userID)
}

func (s *AccountService) ListByRole(ctx context.Context, role valueobject.Role, limit, offset int) ([]*entity.Account, error) {
	if !role.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "роль должна быть client или freelancer")
	}
	return s.accounts.ListByRole(ctx, role, normalizeLimit(limit), offset)
}
