package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderCreated        EventType = "order_created"
	EventResponseCreated     EventType = "response_created"
	EventFreelancerSelected  EventType = "freelancer_selected"
	EventResponseRejected    EventType = "response_rejected"
	EventCompletionConfirmed EventType = "completion_confirmed"
	EventOrderCompleted      EventType = "order_completed"
	EventServiceOrderPlaced  EventType = "service_order_placed"
	EventOrderAdminConfirmed EventType = "order_admin_confirmed"
	EventOrderCancelled      EventType = "order_cancelled"
	EventRequestCreated      EventType = "request_created"
	EventRequestResolved     EventType = "request_resolved"
	EventReviewAdded         EventType = "review_added"
	EventBalanceChanged      EventType = "balance_changed"
)

// Event описывает изменение, о котором стоит сообщить пользователям.
// Ядро уведомлений не отправляет: решает подписчик.
type Event struct {
	Type      EventType       `json:"type"`
	ActorID   int64           `json:"actor_id,omitempty"`
	UserIDs   []int64         `json:"user_ids"`
	OrderID   *int64          `json:"order_id,omitempty"`
	RequestID *int64          `json:"request_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status,omitempty"`
	At        time.Time       `json:"at"`
}

// Result - значение операции вместе с порождёнными событиями.
type Result[T any] struct {
	Value  T
	Events []Event
}

// Notifier получает события после фиксации транзакции.
// Реализации не должны блокировать вызывающего.
type Notifier interface {
	Notify(ctx context.Context, events ...Event)
}

// Broadcaster раздаёт события всем подписчикам.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers []Notifier
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

func (b *Broadcaster) Subscribe(n Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, n)
}

func (b *Broadcaster) Notify(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}
	b.mu.RLock()
	subs := append([]Notifier(nil), b.subscribers...)
	b.mu.RUnlock()

	for _, n := range subs {
		n.Notify(ctx, events...)
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, ...Event) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func newEvent(t EventType, actorID int64, amount decimal.Decimal, users ...int64) Event {
	return Event{
		Type:    t,
		ActorID: actorID,
		UserIDs: users,
		Amount:  amount,
		At:      time.Now().UTC(),
	}
}

func (e Event) forOrder(orderID int64, status string) Event {
	e.OrderID = &orderID
	e.Status = status
	return e
}

func (e Event) forRequest(requestID int64, status string) Event {
	e.RequestID = &requestID
	e.Status = status
	return e
}
