package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/metrics"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/syncutil"
)

// LedgerService владеет балансами пользователей. Экспортируемые методы сами
// берут блокировки аккаунтов и открывают транзакцию. Неэкспортируемые
// предполагают, что вызывающий уже держит блокировки и транзакцию.
type LedgerService struct {
	tx       repository.Transactor
	accounts repository.AccountRepository
	journal  repository.TransactionRepository
	locks    *syncutil.KeyedMutex
	notifier Notifier
}

func NewLedgerService(store repository.Store, locks *syncutil.KeyedMutex, notifier Notifier) *LedgerService {
	return &LedgerService{
		tx:       store.Tx,
		accounts: store.Accounts,
		journal:  store.Transactions,
		locks:    locks,
		notifier: notifierOrNop(notifier),
	}
}

// GetBalance возвращает аккаунт с текущими балансами.
func (s *LedgerService) GetBalance(ctx context.Context, userID int64) (*entity.Account, error) {
	return s.accounts.FindByID(ctx, userID)
}

// ListTransactions возвращает журнал операций пользователя, новые первыми.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, limit, offset int) ([]*entity.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if _, err := s.accounts.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.journal.ListByUser(ctx, userID, limit, offset)
}

func (s *LedgerService) Credit(ctx context.Context, userID int64, amount decimal.Decimal) (*entity.Account, error) {
	return s.single(ctx, userID, amount, func(ctx context.Context) (*entity.Account, error) {
		return s.credit(ctx, userID, amount, entity.Ref{})
	})
}

func (s *LedgerService) Debit(ctx context.Context, userID int64, amount decimal.Decimal) (*entity.Account, error) {
	return s.single(ctx, userID, amount, func(ctx context.Context) (*entity.Account, error) {
		return s.debit(ctx, userID, amount, entity.Ref{})
	})
}

func (s *LedgerService) Freeze(ctx context.Context, userID int64, amount decimal.Decimal) (*entity.Account, error) {
	return s.single(ctx, userID, amount, func(ctx context.Context) (*entity.Account, error) {
		return s.freeze(ctx, userID, amount, entity.Ref{})
	})
}

func (s *LedgerService) Unfreeze(ctx context.Context, userID int64, amount decimal.Decimal) (*entity.Account, error) {
	return s.single(ctx, userID, amount, func(ctx context.Context) (*entity.Account, error) {
		return s.unfreeze(ctx, userID, amount, entity.Ref{})
	})
}

// TransferFrozen переводит замороженные средства from на доступный баланс to.
// Аккаунты блокируются в едином порядке, чтобы встречные переводы не зависли.
func (s *LedgerService) TransferFrozen(ctx context.Context, fromID, toID int64, amount decimal.Decimal) error {
	unlock := s.locks.LockAll(syncutil.AccountKey(fromID), syncutil.AccountKey(toID))
	defer unlock()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.transferFrozen(ctx, fromID, toID, amount, entity.Ref{})
	})
	if err != nil {
		s.declined("transfer_frozen", fromID, amount, err)
		return err
	}
	s.notifier.Notify(ctx, newEvent(EventBalanceChanged, 0, amount, fromID, toID))
	return nil
}

func (s *LedgerService) single(ctx context.Context, userID int64, amount decimal.Decimal, op func(ctx context.Context) (*entity.Account, error)) (*entity.Account, error) {
	unlock := s.locks.Lock(syncutil.AccountKey(userID))
	defer unlock()

	var acc *entity.Account
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		acc, err = op(ctx)
		return err
	})
	if err != nil {
		s.declined("manual", userID, amount, err)
		return nil, err
	}
	s.notifier.Notify(ctx, newEvent(EventBalanceChanged, 0, amount, userID))
	return acc, nil
}

func (s *LedgerService) credit(ctx context.Context, userID int64, amount decimal.Decimal, ref entity.Ref) (*entity.Account, error) {
	return s.apply(ctx, userID, valueobject.TransactionCredit, amount, ref, (*entity.Account).Credit)
}

func (s *LedgerService) debit(ctx context.Context, userID int64, amount decimal.Decimal, ref entity.Ref) (*entity.Account, error) {
	return s.apply(ctx, userID, valueobject.TransactionDebit, amount, ref, (*entity.Account).Debit)
}

func (s *LedgerService) freeze(ctx context.Context, userID int64, amount decimal.Decimal, ref entity.Ref) (*entity.Account, error) {
	return s.apply(ctx, userID, valueobject.TransactionFreeze, amount, ref, (*entity.Account).Freeze)
}

func (s *LedgerService) unfreeze(ctx context.Context, userID int64, amount decimal.Decimal, ref entity.Ref) (*entity.Account, error) {
	return s.apply(ctx, userID, valueobject.TransactionUnfreeze, amount, ref, (*entity.Account).Unfreeze)
}

func (s *LedgerService) transferFrozen(ctx context.Context, fromID, toID int64, amount decimal.Decimal, ref entity.Ref) error {
	if err := valueobject.RequirePositive(amount); err != nil {
		return err
	}
	from, err := s.accounts.FindByID(ctx, fromID)
	if err != nil {
		return err
	}
	to := from
	if toID != fromID {
		if to, err = s.accounts.FindByID(ctx, toID); err != nil {
			return err
		}
	}

	if err := from.ReleaseFrozen(amount); err != nil {
		return err
	}
	if err := to.Credit(amount); err != nil {
		return err
	}

	if err := s.accounts.Update(ctx, from); err != nil {
		return err
	}
	if to != from {
		if err := s.accounts.Update(ctx, to); err != nil {
			return err
		}
	}
	if err := s.record(ctx, fromID, valueobject.TransactionReleaseOut, amount, ref); err != nil {
		return err
	}
	if err := s.record(ctx, toID, valueobject.TransactionReleaseIn, amount, ref); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"from_id": fromID,
		"to_id":   toID,
		"amount":  amount.String(),
	}).Info("ledger: frozen funds transferred")
	return nil
}

func (s *LedgerService) apply(
	ctx context.Context,
	userID int64,
	txType valueobject.TransactionType,
	amount decimal.Decimal,
	ref entity.Ref,
	op func(*entity.Account, decimal.Decimal) error,
) (*entity.Account, error) {
	if err := valueobject.RequirePositive(amount); err != nil {
		return nil, err
	}
	acc, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := op(acc, amount); err != nil {
		return nil, err
	}
	if err := s.accounts.Update(ctx, acc); err != nil {
		return nil, err
	}
	if err := s.record(ctx, userID, txType, amount, ref); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":   userID,
		"type":      txType,
		"amount":    amount.String(),
		"available": acc.Available.String(),
		"frozen":    acc.Frozen.String(),
	}).Info("ledger: balance updated")
	return acc, nil
}

func (s *LedgerService) record(ctx context.Context, userID int64, txType valueobject.TransactionType, amount decimal.Decimal, ref entity.Ref) error {
	if err := s.journal.Create(ctx, entity.NewTransaction(userID, txType, amount, ref)); err != nil {
		return err
	}
	metrics.LedgerOperationsTotal.WithLabelValues(string(txType)).Inc()
	return nil
}

func (s *LedgerService) declined(op string, userID int64, amount decimal.Decimal, err error) {
	kind := apperror.Kind(err)
	metrics.LedgerDeclinedTotal.WithLabelValues(string(kind)).Inc()
	entry := logger.Log.WithFields(logrus.Fields{
		"op":      op,
		"user_id": userID,
		"amount":  amount.String(),
		"kind":    kind,
	})
	if apperror.IsPersistence(err) {
		entry.WithError(err).Error("ledger: storage failure")
		return
	}
	entry.Debug("ledger: operation declined")
}
