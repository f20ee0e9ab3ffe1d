// Package memory - хранилище в памяти процесса. Используется в тестах
// и при STORAGE_DRIVER=memory; данные теряются при перезапуске.
package memory

import (
	"context"
	"sync"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
)

type txKey struct{}

type state struct {
	accounts      map[int64]entity.Account
	orders        map[int64]entity.Order
	responses     map[int64][]entity.Response
	requests      map[int64]entity.EscrowRequest
	reviews       map[string]entity.Review
	services      map[int64]entity.ServiceListing
	transactions  []entity.Transaction
	nextOrderID   int64
	nextRequestID int64
	nextServiceID int64
}

func newState() *state {
	return &state{
		accounts:  make(map[int64]entity.Account),
		orders:    make(map[int64]entity.Order),
		responses: make(map[int64][]entity.Response),
		requests:  make(map[int64]entity.EscrowRequest),
		reviews:   make(map[string]entity.Review),
		services:  make(map[int64]entity.ServiceListing),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.responses {
		c.responses[k] = append([]entity.Response(nil), v...)
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	c.transactions = append([]entity.Transaction(nil), s.transactions...)
	c.nextOrderID = s.nextOrderID
	c.nextRequestID = s.nextRequestID
	c.nextServiceID = s.nextServiceID
	return c
}

// Store держит все сущности и реализует Transactor: транзакции выполняются
// по одной, при ошибке состояние откатывается к снимку.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state

	Accounts     *AccountRepository
	Orders       *OrderRepository
	Responses    *ResponseRepository
	Requests     *EscrowRequestRepository
	Reviews      *ReviewRepository
	Services     *ServiceListingRepository
	Transactions *TransactionRepository
}

func NewStore() *Store {
	s := &Store{data: newState()}
	s.Accounts = &AccountRepository{s: s}
	s.Orders = &OrderRepository{s: s}
	s.Responses = &ResponseRepository{s: s}
	s.Requests = &EscrowRequestRepository{s: s}
	s.Reviews = &ReviewRepository{s: s}
	s.Services = &ServiceListingRepository{s: s}
	s.Transactions = &TransactionRepository{s: s}
	return s
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Repositories возвращает репозитории хранилища в виде общего набора.
func (s *Store) Repositories() repository.Store {
	return repository.Store{
		Tx:           s,
		Accounts:     s.Accounts,
		Orders:       s.Orders,
		Responses:    s.Responses,
		Requests:     s.Requests,
		Reviews:      s.Reviews,
		Services:     s.Services,
		Transactions: s.Transactions,
	}
}
