package service

import (
	"context"

	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
)

type Stats struct {
	Users           int `json:"users"`
	Clients         int `json:"clients"`
	Freelancers     int `json:"freelancers"`
	Orders          int `json:"orders"`
	ActiveOrders    int `json:"active_orders"`
	InProgress      int `json:"in_progress_orders"`
	CompletedOrders int `json:"completed_orders"`
	Reviews         int `json:"reviews"`
	PendingRequests int `json:"pending_requests"`
}

type StatsService struct {
	accounts repository.AccountRepository
	orders   repository.OrderRepository
	reviews  repository.ReviewRepository
	requests repository.EscrowRequestRepository
}

func NewStatsService(store repository.Store) *StatsService {
	return &StatsService{
		accounts: store.Accounts,
		orders:   store.Orders,
		reviews:  store.Reviews,
		requests: store.Requests,
	}
}

func (s *StatsService) Stats(ctx context.Context) (*Stats, error) {
	roles, err := s.accounts.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.requests.List(ctx, repository.RequestFilter{Status: valueobject.RequestStatusPending})
	if err != nil {
		return nil, err
	}

	st := &Stats{
		Clients:         roles[valueobject.RoleClient],
		Freelancers:     roles[valueobject.RoleFreelancer],
		ActiveOrders:    statuses[valueobject.OrderStatusActive],
		InProgress:      statuses[valueobject.OrderStatusInProgress],
		CompletedOrders: statuses[valueobject.OrderStatusCompleted],
		Reviews:         reviews,
		PendingRequests: len(pending),
	}
	st.Users = st.Clients + st.Freelancers
	for _, n := range statuses {
		st.Orders += n
	}
	return st, nil
}
