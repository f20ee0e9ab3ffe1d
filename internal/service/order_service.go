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

// OrderService ведёт заказ по конечному автомату и двигает деньги на переходах.
// Проверка статуса и изменение баланса выполняются в одной транзакции под
// блокировками заказа и всех затронутых аккаунтов.
type OrderService struct {
	tx        repository.Transactor
	accounts  repository.AccountRepository
	orders    repository.OrderRepository
	responses repository.ResponseRepository
	services  repository.ServiceListingRepository
	ledger    *LedgerService
	locks     *syncutil.KeyedMutex
	notifier  Notifier
}

func NewOrderService(store repository.Store, ledger *LedgerService, locks *syncutil.KeyedMutex, notifier Notifier) *OrderService {
	return &OrderService{
		tx:        store.Tx,
		accounts:  store.Accounts,
		orders:    store.Orders,
		responses: store.Responses,
		services:  store.Services,
		ledger:    ledger,
		locks:     locks,
		notifier:  notifierOrNop(notifier),
	}
}

// CreateOrder создаёт заказ в статусе active. Деньги не замораживаются.
func (s *OrderService) CreateOrder(ctx context.Context, clientID int64, title, description string, budget decimal.Decimal) (*Result[*entity.Order], error) {
	order, err := entity.NewOrder(clientID, title, description, budget)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.orders.Create(ctx, order)
	}); err != nil {
		return nil, err
	}

	s.logTransition(order, clientID, "order created")
	return s.finish(ctx, order, newEvent(EventOrderCreated, clientID, order.Budget, clientID).
		forOrder(order.ID, string(order.Status)))
}

// RespondToOrder добавляет отклик фрилансера. Повторный отклик и отклик
// на собственный заказ отклоняются.
func (s *OrderService) RespondToOrder(ctx context.Context, orderID, freelancerID int64, message string) (*Result[*entity.Response], error) {
	unlock := s.locks.Lock(syncutil.OrderKey(orderID))
	defer unlock()

	var (
		response *entity.Response
		order    *entity.Order
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if order, err = s.orders.FindByID(ctx, orderID); err != nil {
			return err
		}
		if _, err := s.accounts.FindByID(ctx, freelancerID); err != nil {
			return err
		}
		if err := order.CheckRespond(freelancerID); err != nil {
			return err
		}
		existing, err := s.responses.Find(ctx, orderID, freelancerID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.ErrDuplicateResponse
		}
		response = entity.NewResponse(orderID, freelancerID, message)
		return s.responses.Create(ctx, response)
	})
	if err != nil {
		s.logDeclined("respond", orderID, freelancerID, err)
		return nil, err
	}

	ev := newEvent(EventResponseCreated, freelancerID, order.Budget, order.ClientID).forOrder(orderID, string(order.Status))
	s.notifier.Notify(ctx, ev)
	return &Result[*entity.Response]{Value: response, Events: []Event{ev}}, nil
}

// SelectFreelancer выбирает исполнителя из откликнувшихся и замораживает бюджет.
// При нехватке средств заказ остаётся active и ничего не меняется.
func (s *OrderService) SelectFreelancer(ctx context.Context, orderID, callerID, freelancerID int64) (*Result[*entity.Order], error) {
	peek, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.LockAll(syncutil.OrderKey(orderID), syncutil.AccountKey(peek.ClientID))
	defer unlock()

	var (
		order     *entity.Order
		responses []*entity.Response
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if order, err = s.orders.FindByID(ctx, orderID); err != nil {
			return err
		}
		if err := order.CheckSelect(callerID); err != nil {
			return err
		}
		if responses, err = s.responses.ListByOrder(ctx, orderID); err != nil {
			return err
		}
		if !hasRespondent(responses, freelancerID) {
			return apperror.ErrNotRespondent
		}
		if _, err := s.ledger.freeze(ctx, order.ClientID, order.Budget, entity.OrderRef(orderID)); err != nil {
			return err
		}
		if err := order.Select(callerID, freelancerID); err != nil {
			return err
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		s.logDeclined("select", orderID, callerID, err)
		return nil, err
	}

	s.logTransition(order, callerID, "freelancer selected")
	events := []Event{
		newEvent(EventFreelancerSelected, callerID, order.Budget, order.ClientID, freelancerID).
			forOrder(orderID, string(order.Status)),
	}
	var rejected []int64
	for _, r := range responses {
		if r.FreelancerID != freelancerID {
			rejected = append(rejected, r.FreelancerID)
		}
	}
	if len(rejected) > 0 {
		events = append(events, newEvent(EventResponseRejected, callerID, decimal.Zero, rejected...).
			forOrder(orderID, string(order.Status)))
	}
	return s.finish(ctx, order, events...)
}

// ConfirmCompletion отмечает подтверждение участника. Когда подтвердили обе
// стороны, замороженный бюджет переводится исполнителю. Повторное
// подтверждение той же стороной ничего не меняет.
func (s *OrderService) ConfirmCompletion(ctx context.Context, orderID, callerID int64) (*Result[*entity.Order], error) {
	peek, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	keys := []string{syncutil.OrderKey(orderID), syncutil.AccountKey(peek.ClientID)}
	if peek.SelectedFreelancerID != nil {
		keys = append(keys, syncutil.AccountKey(*peek.SelectedFreelancerID))
	}
	unlock := s.locks.LockAll(keys...)
	defer unlock()

	var (
		order     *entity.Order
		completed bool
		repeated  bool
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if order, err = s.orders.FindByID(ctx, orderID); err != nil {
			return err
		}
		repeated = order.HasConfirmed(callerID)
		if completed, err = order.Confirm(callerID); err != nil {
			return err
		}
		if repeated {
			return nil
		}
		if completed {
			if err := s.ledger.transferFrozen(ctx, order.ClientID, order.FreelancerID(), order.Budget, entity.OrderRef(orderID)); err != nil {
				return err
			}
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		s.logDeclined("confirm", orderID, callerID, err)
		return nil, err
	}

	if repeated {
		return &Result[*entity.Order]{Value: order}, nil
	}
	if completed {
		s.logTransition(order, callerID, "order completed")
		return s.finish(ctx, order, newEvent(EventOrderCompleted, callerID, order.Budget, order.ClientID, order.FreelancerID()).
			forOrder(orderID, string(order.Status)))
	}
	counterpart := order.ClientID
	if callerID == order.ClientID {
		counterpart = order.FreelancerID()
	}
	return s.finish(ctx, order, newEvent(EventCompletionConfirmed, callerID, order.Budget, counterpart).
		forOrder(orderID, string(order.Status)))
}

// PlaceServiceOrder оформляет заказ готовой услуги: цена замораживается сразу,
// заказ ждёт подтверждения администратора.
func (s *OrderService) PlaceServiceOrder(ctx context.Context, clientID, serviceID int64) (*Result[*entity.Order], error) {
	listing, err := s.services.FindByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	order, err := entity.NewServiceOrder(clientID, listing)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(syncutil.AccountKey(clientID))
	defer unlock()

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		client, err := s.accounts.FindByID(ctx, clientID)
		if err != nil {
			return err
		}
		if client.Available.LessThan(order.Budget) {
			return apperror.ErrInsufficientFunds
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		_, err = s.ledger.freeze(ctx, clientID, order.Budget, entity.OrderRef(order.ID))
		return err
	})
	if err != nil {
		s.logDeclined("place_service_order", serviceID, clientID, err)
		return nil, err
	}

	s.logTransition(order, clientID, "service order placed")
	return s.finish(ctx, order, newEvent(EventServiceOrderPlaced, clientID, order.Budget, clientID, order.FreelancerID()).
		forOrder(order.ID, string(order.Status)))
}

// AdminConfirmOrder разрешает начать работу по заказу услуги.
func (s *OrderService) AdminConfirmOrder(ctx context.Context, orderID, adminID int64) (*Result[*entity.Order], error) {
	unlock := s.locks.Lock(syncutil.OrderKey(orderID))
	defer unlock()

	var order *entity.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if order, err = s.orders.FindByID(ctx, orderID); err != nil {
			return err
		}
		if err := order.AdminConfirm(); err != nil {
			return err
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		s.logDeclined("admin_confirm", orderID, adminID, err)
		return nil, err
	}

	s.logTransition(order, adminID, "order confirmed by admin")
	return s.finish(ctx, order, newEvent(EventOrderAdminConfirmed, adminID, order.Budget, order.ClientID, order.FreelancerID()).
		forOrder(orderID, string(order.Status)))
}

// AdminRejectOrder отменяет заказ услуги до подтверждения и возвращает
// замороженную сумму клиенту.
func (s *OrderService) AdminRejectOrder(ctx context.Context, orderID, adminID int64) (*Result[*entity.Order], error) {
	peek, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.LockAll(syncutil.OrderKey(orderID), syncutil.AccountKey(peek.ClientID))
	defer unlock()

	var order *entity.Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if order, err = s.orders.FindByID(ctx, orderID); err != nil {
			return err
		}
		if err := order.AdminReject(); err != nil {
			return err
		}
		if _, err := s.ledger.unfreeze(ctx, order.ClientID, order.Budget, entity.OrderRef(orderID)); err != nil {
			return err
		}
		return s.orders.Update(ctx, order)
	})
	if err != nil {
		s.logDeclined("admin_reject", orderID, adminID, err)
		return nil, err
	}

	s.logTransition(order, adminID, "order cancelled by admin")
	return s.finish(ctx, order, newEvent(EventOrderCancelled, adminID, order.Budget, order.ClientID, order.FreelancerID()).
		forOrder(orderID, string(order.Status)))
}

// ExpireAwaitingAdmin отменяет заказы услуг, которые ждут администратора дольше ttl.
func (s *OrderService) ExpireAwaitingAdmin(ctx context.Context, ttl time.Duration, now time.Time) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	stale, err := s.orders.List(ctx, repository.OrderFilter{
		Status:        valueobject.OrderStatusInProgress,
		AwaitingAdmin: true,
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	deadline := now.Add(-ttl)
	for _, order := range stale {
		if !order.CreatedAt.Before(deadline) {
			continue
		}
		if _, err := s.AdminRejectOrder(ctx, order.ID, 0); err != nil {
			// Заказ мог успеть подтвердиться параллельно.
			if apperror.IsPersistence(err) {
				return expired, err
			}
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

func (s *OrderService) ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]*entity.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{ClientID: &clientID, Limit: normalizeLimit(limit), Offset: offset})
}

// ListAssigned возвращает заказы, где пользователь выбран исполнителем.
func (s *OrderService) ListAssigned(ctx context.Context, freelancerID int64, limit, offset int) ([]*entity.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{FreelancerID: &freelancerID, Limit: normalizeLimit(limit), Offset: offset})
}

// ListActiveForFreelancer возвращает открытые заказы без собственных
// и без тех, на которые фрилансер уже откликнулся.
func (s *OrderService) ListActiveForFreelancer(ctx context.Context, freelancerID int64, limit int) ([]*entity.Order, error) {
	active, err := s.orders.List(ctx, repository.OrderFilter{Status: valueobject.OrderStatusActive})
	if err != nil {
		return nil, err
	}
	mine, err := s.responses.ListByFreelancer(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	responded := make(map[int64]struct{}, len(mine))
	for _, r := range mine {
		responded[r.OrderID] = struct{}{}
	}

	limit = normalizeLimit(limit)
	out := make([]*entity.Order, 0, limit)
	for _, order := range active {
		if order.ClientID == freelancerID {
			continue
		}
		if _, ok := responded[order.ID]; ok {
			continue
		}
		out = append(out, order)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListAwaitingAdmin возвращает заказы услуг, ожидающие решения администратора.
func (s *OrderService) ListAwaitingAdmin(ctx context.Context, limit int) ([]*entity.Order, error) {
	return s.orders.List(ctx, repository.OrderFilter{
		Status:        valueobject.OrderStatusInProgress,
		AwaitingAdmin: true,
		Limit:         normalizeLimit(limit),
	})
}

func (s *OrderService) ListResponses(ctx context.Context, orderID int64) ([]*entity.Response, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.responses.ListByOrder(ctx, orderID)
}

func (s *OrderService) ListFreelancerResponses(ctx context.Context, freelancerID int64) ([]*entity.Response, error) {
	return s.responses.ListByFreelancer(ctx, freelancerID)
}

func (s *OrderService) finish(ctx context.Context, order *entity.Order, events ...Event) (*Result[*entity.Order], error) {
	s.notifier.Notify(ctx, events...)
	return &Result[*entity.Order]{Value: order, Events: events}, nil
}

func (s *OrderService) logTransition(order *entity.Order, actorID int64, msg string) {
	metrics.OrderTransitionsTotal.WithLabelValues(string(order.Status)).Inc()
	logger.Log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"actor_id": actorID,
		"status":   order.Status,
		"budget":   order.Budget.String(),
	}).Info("order: " + msg)
}

func (s *OrderService) logDeclined(op string, orderID, actorID int64, err error) {
	entry := logger.Log.WithFields(logrus.Fields{
		"op":       op,
		"order_id": orderID,
		"actor_id": actorID,
		"kind":     apperror.Kind(err),
	})
	if apperror.IsPersistence(err) {
		entry.WithError(err).Error("order: storage failure")
		return
	}
	entry.Debug("order: action declined")
}

func hasRespondent(responses []*entity.Response, freelancerID int64) bool {
	for _, r := range responses {
		if r.FreelancerID == freelancerID {
			return true
		}
	}
	return false
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
