package service

import (
	"context"
	"time"

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

// EscrowRequestService ведёт очередь заявок на пополнение и вывод.
// Вывод списывается сразу при создании заявки, отказ возвращает сумму.
// Пополнение ничего не меняет до одобрения.
type EscrowRequestService struct {
	tx             repository.Transactor
	accounts       repository.AccountRepository
	requests       repository.EscrowRequestRepository
	ledger         *LedgerService
	locks          *syncutil.KeyedMutex
	notifier       Notifier
	commissionRate decimal.Decimal
	now            func() time.Time
}

func NewEscrowRequestService(
	store repository.Store,
	ledger *LedgerService,
	locks *syncutil.KeyedMutex,
	notifier Notifier,
	commissionRate decimal.Decimal,
) *EscrowRequestService {
	return &EscrowRequestService{
		tx:             store.Tx,
		accounts:       store.Accounts,
		requests:       store.Requests,
		ledger:         ledger,
		locks:          locks,
		notifier:       notifierOrNop(notifier),
		commissionRate: commissionRate,
		now:            time.Now,
	}
}

// RequestWithdrawal создаёт заявку на вывод и списывает сумму в той же транзакции.
func (s *EscrowRequestService) RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, phone string) (*Result[*entity.EscrowRequest], error) {
	if err := valueobject.RequirePositive(amount); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(syncutil.AccountKey(userID))
	defer unlock()

	var request *entity.EscrowRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		acc, err := s.accounts.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		request, err = entity.NewWithdrawalRequest(userID, amount, phone, acc.Available, s.commissionRate)
		if err != nil {
			return err
		}
		if acc.Available.LessThan(amount) {
			return apperror.ErrInsufficientFunds
		}
		if err := s.requests.Create(ctx, request); err != nil {
			return err
		}
		_, err = s.ledger.debit(ctx, userID, amount, entity.RequestRef(request.ID))
		return err
	})
	if err != nil {
		s.logDeclined("withdraw", userID, amount, err)
		return nil, err
	}

	s.logCreated(request)
	return s.finish(ctx, request, newEvent(EventRequestCreated, userID, amount, userID).
		forRequest(request.ID, string(request.Status)))
}

// RequestTopup ставит в очередь заявку на пополнение. Баланс не меняется.
func (s *EscrowRequestService) RequestTopup(ctx context.Context, userID int64, amount decimal.Decimal) (*Result[*entity.EscrowRequest], error) {
	if err := valueobject.RequirePositive(amount); err != nil {
		return nil, err
	}

	var request *entity.EscrowRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		acc, err := s.accounts.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if request, err = entity.NewTopupRequest(userID, amount, acc.Available); err != nil {
			return err
		}
		return s.requests.Create(ctx, request)
	})
	if err != nil {
		s.logDeclined("topup", userID, amount, err)
		return nil, err
	}

	s.logCreated(request)
	return s.finish(ctx, request, newEvent(EventRequestCreated, userID, amount, userID).
		forRequest(request.ID, string(request.Status)))
}

// Resolve закрывает заявку решением администратора. Одобренное пополнение
// и отклонённый вывод зачисляют сумму пользователю. Повторная обработка
// возвращает ErrAlreadyResolved и баланс не трогает.
func (s *EscrowRequestService) Resolve(ctx context.Context, requestID, adminID int64, decision valueobject.Decision) (*Result[*entity.EscrowRequest], error) {
	peek, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.LockAll(syncutil.RequestKey(requestID), syncutil.AccountKey(peek.UserID))
	defer unlock()

	var request *entity.EscrowRequest
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if request, err = s.requests.FindByID(ctx, requestID); err != nil {
			return err
		}
		if err := request.Resolve(decision, adminID, s.now()); err != nil {
			return err
		}
		if request.NeedsCredit(decision) {
			if _, err := s.ledger.credit(ctx, request.UserID, request.Amount, entity.RequestRef(requestID)); err != nil {
				return err
			}
		}
		return s.requests.Update(ctx, request)
	})
	if err != nil {
		s.logDeclined("resolve", peek.UserID, peek.Amount, err)
		return nil, err
	}

	metrics.EscrowRequestsTotal.WithLabelValues(string(request.Type), string(request.Status)).Inc()
	logger.Log.WithFields(logrus.Fields{
		"request_id": request.ID,
		"user_id":    request.UserID,
		"admin_id":   adminID,
		"type":       request.Type,
		"status":     request.Status,
		"amount":     request.Amount.String(),
	}).Info("escrow request resolved")

	return s.finish(ctx, request, newEvent(EventRequestResolved, adminID, request.Amount, request.UserID).
		forRequest(request.ID, string(request.Status)))
}

// ExpireStale отклоняет заявки, ожидающие дольше ttl. При ttl <= 0 ничего не делает.
func (s *EscrowRequestService) ExpireStale(ctx context.Context, ttl time.Duration, now time.Time) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	before := now.Add(-ttl)
	stale, err := s.requests.List(ctx, repository.RequestFilter{
		Status:        valueobject.RequestStatusPending,
		CreatedBefore: &before,
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, request := range stale {
		if _, err := s.Resolve(ctx, request.ID, 0, valueobject.DecisionReject); err != nil {
			if apperror.IsPersistence(err) {
				return expired, err
			}
			continue
		}
		metrics.EscrowRequestsTotal.WithLabelValues(string(request.Type), "expired").Inc()
		expired++
	}
	return expired, nil
}

func (s *EscrowRequestService) GetRequest(ctx context.Context, requestID int64) (*entity.EscrowRequest, error) {
	return s.requests.FindByID(ctx, requestID)
}

// ListPending возвращает ожидающие заявки, старые первыми.
func (s *EscrowRequestService) ListPending(ctx context.Context, limit int) ([]*entity.EscrowRequest, error) {
	return s.requests.List(ctx, repository.RequestFilter{
		Status: valueobject.RequestStatusPending,
		Limit:  normalizeLimit(limit),
	})
}

func (s *EscrowRequestService) ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.EscrowRequest, error) {
	return s.requests.List(ctx, repository.RequestFilter{UserID: &userID, Limit: normalizeLimit(limit)})
}

// CommissionRate используется только для расчёта суммы к выплате.
func (s *EscrowRequestService) CommissionRate() decimal.Decimal {
	return s.commissionRate
}

func (s *EscrowRequestService) finish(ctx context.Context, request *entity.EscrowRequest, events ...Event) (*Result[*entity.EscrowRequest], error) {
	s.notifier.Notify(ctx, events...)
	return &Result[*entity.EscrowRequest]{Value: request, Events: events}, nil
}

func (s *EscrowRequestService) logCreated(request *entity.EscrowRequest) {
	metrics.EscrowRequestsTotal.WithLabelValues(string(request.Type), "created").Inc()
	logger.Log.WithFields(logrus.Fields{
		"request_id":     request.ID,
		"user_id":        request.UserID,
		"type":           request.Type,
		"amount":         request.Amount.String(),
		"balance_before": request.BalanceBefore.String(),
	}).Info("escrow request created")
}

func (s *EscrowRequestService) logDeclined(op string, userID int64, amount decimal.Decimal, err error) {
	entry := logger.Log.WithFields(logrus.Fields{
		"op":      op,
		"user_id": userID,
		"amount":  amount.String(),
		"kind":    apperror.Kind(err),
	})
	if apperror.IsPersistence(err) {
		entry.WithError(err).Error("escrow request: storage failure")
		return
	}
	entry.Debug("escrow request: declined")
}
