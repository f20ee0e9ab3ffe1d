package memory

import (
	"context"
	"sort"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

var (
	_ repository.Transactor               = (*Store)(nil)
	_ repository.AccountRepository        = (*AccountRepository)(nil)
	_ repository.OrderRepository          = (*OrderRepository)(nil)
	_ repository.ResponseRepository       = (*ResponseRepository)(nil)
	_ repository.EscrowRequestRepository  = (*EscrowRequestRepository)(nil)
	_ repository.ReviewRepository         = (*ReviewRepository)(nil)
	_ repository.ServiceListingRepository = (*ServiceListingRepository)(nil)
	_ repository.TransactionRepository    = (*TransactionRepository)(nil)
)

type AccountRepository struct{ s *Store }

func (r *AccountRepository) Create(_ context.Context, account *entity.Account) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.accounts[account.ID]; ok {
			return apperror.New(apperror.ErrCodeConflict, "пользователь уже зарегистрирован")
		}
		d.accounts[account.ID] = *account
		return nil
	})
}

func (r *AccountRepository) FindByID(_ context.Context, id int64) (*entity.Account, error) {
	var (
		acc entity.Account
		ok  bool
	)
	r.s.read(func(d *state) { acc, ok = d.accounts[id] })
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return &acc, nil
}

func (r *AccountRepository) Update(_ context.Context, account *entity.Account) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.accounts[account.ID]; !ok {
			return apperror.ErrUserNotFound
		}
		d.accounts[account.ID] = *account
		return nil
	})
}

func (r *AccountRepository) ListByRole(_ context.Context, role valueobject.Role, limit, offset int) ([]*entity.Account, error) {
	var out []*entity.Account
	r.s.read(func(d *state) {
		for _, acc := range d.accounts {
			if acc.Role == role {
				a := acc
				out = append(out, &a)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

func (r *AccountRepository) CountByRole(_ context.Context) (map[valueobject.Role]int, error) {
	counts := make(map[valueobject.Role]int)
	r.s.read(func(d *state) {
		for _, acc := range d.accounts {
			counts[acc.Role]++
		}
	})
	return counts, nil
}

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(_ context.Context, order *entity.Order) error {
	return r.s.write(func(d *state) error {
		d.nextOrderID++
		order.ID = d.nextOrderID
		d.orders[order.ID] = *order
		return nil
	})
}

func (r *OrderRepository) FindByID(_ context.Context, id int64) (*entity.Order, error) {
	var (
		order entity.Order
		ok    bool
	)
	r.s.read(func(d *state) { order, ok = d.orders[id] })
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return &order, nil
}

func (r *OrderRepository) Update(_ context.Context, order *entity.Order) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.orders[order.ID]; !ok {
			return apperror.ErrOrderNotFound
		}
		d.orders[order.ID] = *order
		return nil
	})
}

func (r *OrderRepository) List(_ context.Context, f repository.OrderFilter) ([]*entity.Order, error) {
	var out []*entity.Order
	r.s.read(func(d *state) {
		for _, order := range d.orders {
			if !matchOrder(&order, f) {
				continue
			}
			o := order
			out = append(out, &o)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

func matchOrder(o *entity.Order, f repository.OrderFilter) bool {
	if f.ClientID != nil && o.ClientID != *f.ClientID {
		return false
	}
	if f.FreelancerID != nil && o.FreelancerID() != *f.FreelancerID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Kind != "" && o.Kind != f.Kind {
		return false
	}
	if f.AwaitingAdmin && (o.Kind != valueobject.OrderKindService || o.ConfirmedByAdmin) {
		return false
	}
	return true
}

func (r *OrderRepository) CountByStatus(_ context.Context) (map[valueobject.OrderStatus]int, error) {
	counts := make(map[valueobject.OrderStatus]int)
	r.s.read(func(d *state) {
		for _, order := range d.orders {
			counts[order.Status]++
		}
	})
	return counts, nil
}

type ResponseRepository struct{ s *Store }

func (r *ResponseRepository) Create(_ context.Context, response *entity.Response) error {
	return r.s.write(func(d *state) error {
		for _, existing := range d.responses[response.OrderID] {
			if existing.FreelancerID == response.FreelancerID {
				return apperror.ErrDuplicateResponse
			}
		}
		d.responses[response.OrderID] = append(d.responses[response.OrderID], *response)
		return nil
	})
}

func (r *ResponseRepository) Find(_ context.Context, orderID, freelancerID int64) (*entity.Response, error) {
	var found *entity.Response
	r.s.read(func(d *state) {
		for _, existing := range d.responses[orderID] {
			if existing.FreelancerID == freelancerID {
				resp := existing
				found = &resp
				return
			}
		}
	})
	return found, nil
}

func (r *ResponseRepository) ListByOrder(_ context.Context, orderID int64) ([]*entity.Response, error) {
	var out []*entity.Response
	r.s.read(func(d *state) {
		for _, existing := range d.responses[orderID] {
			resp := existing
			out = append(out, &resp)
		}
	})
	return out, nil
}

func (r *ResponseRepository) ListByFreelancer(_ context.Context, freelancerID int64) ([]*entity.Response, error) {
	var out []*entity.Response
	r.s.read(func(d *state) {
		for _, list := range d.responses {
			for _, existing := range list {
				if existing.FreelancerID == freelancerID {
					resp := existing
					out = append(out, &resp)
				}
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID > out[j].OrderID })
	return out, nil
}

type EscrowRequestRepository struct{ s *Store }

func (r *EscrowRequestRepository) Create(_ context.Context, request *entity.EscrowRequest) error {
	return r.s.write(func(d *state) error {
		d.nextRequestID++
		request.ID = d.nextRequestID
		d.requests[request.ID] = *request
		return nil
	})
}

func (r *EscrowRequestRepository) FindByID(_ context.Context, id int64) (*entity.EscrowRequest, error) {
	var (
		req entity.EscrowRequest
		ok  bool
	)
	r.s.read(func(d *state) { req, ok = d.requests[id] })
	if !ok {
		return nil, apperror.ErrRequestNotFound
	}
	return &req, nil
}

func (r *EscrowRequestRepository) Update(_ context.Context, request *entity.EscrowRequest) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.requests[request.ID]; !ok {
			return apperror.ErrRequestNotFound
		}
		d.requests[request.ID] = *request
		return nil
	})
}

func (r *EscrowRequestRepository) List(_ context.Context, f repository.RequestFilter) ([]*entity.EscrowRequest, error) {
	var out []*entity.EscrowRequest
	r.s.read(func(d *state) {
		for _, req := range d.requests {
			if f.UserID != nil && req.UserID != *f.UserID {
				continue
			}
			if f.Status != "" && req.Status != f.Status {
				continue
			}
			if f.CreatedBefore != nil && !req.CreatedAt.Before(*f.CreatedBefore) {
				continue
			}
			rq := req
			out = append(out, &rq)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Limit, 0), nil
}

type ReviewRepository struct{ s *Store }

func (r *ReviewRepository) Create(_ context.Context, review *entity.Review) error {
	return r.s.write(func(d *state) error {
		key := review.Key()
		if _, ok := d.reviews[key]; ok {
			return apperror.ErrReviewNotAllowed
		}
		d.reviews[key] = *review
		return nil
	})
}

func (r *ReviewRepository) Exists(_ context.Context, orderID, reviewerID, reviewedID int64) (bool, error) {
	var ok bool
	r.s.read(func(d *state) { _, ok = d.reviews[entity.ReviewKey(orderID, reviewerID, reviewedID)] })
	return ok, nil
}

func (r *ReviewRepository) ListByReviewed(_ context.Context, reviewedID int64) ([]*entity.Review, error) {
	var out []*entity.Review
	r.s.read(func(d *state) {
		for _, review := range d.reviews {
			if review.ReviewedID == reviewedID {
				rv := review
				out = append(out, &rv)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ReviewRepository) AverageRating(_ context.Context, reviewedID int64) (float64, int, error) {
	var sum, count int
	r.s.read(func(d *state) {
		for _, review := range d.reviews {
			if review.ReviewedID == reviewedID {
				sum += review.Rating
				count++
			}
		}
	})
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (r *ReviewRepository) Count(_ context.Context) (int, error) {
	var n int
	r.s.read(func(d *state) { n = len(d.reviews) })
	return n, nil
}

type ServiceListingRepository struct{ s *Store }

func (r *ServiceListingRepository) Create(_ context.Context, listing *entity.ServiceListing) error {
	return r.s.write(func(d *state) error {
		d.nextServiceID++
		listing.ID = d.nextServiceID
		d.services[listing.ID] = *listing
		return nil
	})
}

func (r *ServiceListingRepository) FindByID(_ context.Context, id int64) (*entity.ServiceListing, error) {
	var (
		listing entity.ServiceListing
		ok      bool
	)
	r.s.read(func(d *state) { listing, ok = d.services[id] })
	if !ok {
		return nil, apperror.ErrServiceNotFound
	}
	return &listing, nil
}

func (r *ServiceListingRepository) Delete(_ context.Context, id int64) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.services[id]; !ok {
			return apperror.ErrServiceNotFound
		}
		delete(d.services, id)
		return nil
	})
}

func (r *ServiceListingRepository) ListByFreelancer(_ context.Context, freelancerID int64) ([]*entity.ServiceListing, error) {
	return r.list(func(l *entity.ServiceListing) bool { return l.FreelancerID == freelancerID }, 0, 0), nil
}

func (r *ServiceListingRepository) ListByCategory(_ context.Context, category string, limit, offset int) ([]*entity.ServiceListing, error) {
	return r.list(func(l *entity.ServiceListing) bool { return category == "" || l.Category == category }, limit, offset), nil
}

func (r *ServiceListingRepository) list(match func(*entity.ServiceListing) bool, limit, offset int) []*entity.ServiceListing {
	var out []*entity.ServiceListing
	r.s.read(func(d *state) {
		for _, listing := range d.services {
			l := listing
			if match(&l) {
				out = append(out, &l)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset)
}

type TransactionRepository struct{ s *Store }

func (r *TransactionRepository) Create(_ context.Context, tx *entity.Transaction) error {
	return r.s.write(func(d *state) error {
		d.transactions = append(d.transactions, *tx)
		return nil
	})
}

func (r *TransactionRepository) ListByUser(_ context.Context, userID int64, limit, offset int) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	r.s.read(func(d *state) {
		for i := len(d.transactions) - 1; i >= 0; i-- {
			if d.transactions[i].UserID == userID {
				tx := d.transactions[i]
				out = append(out, &tx)
			}
		}
	})
	return page(out, limit, offset), nil
}
