package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/syncutil"
)

type ReviewService struct {
	tx       repository.Transactor
	reviews  repository.ReviewRepository
	orders   repository.OrderRepository
	locks    *syncutil.KeyedMutex
	notifier Notifier
}

func NewReviewService(store repository.Store, locks *syncutil.KeyedMutex, notifier Notifier) *ReviewService {
	return &ReviewService{
		tx:       store.Tx,
		reviews:  store.Reviews,
		orders:   store.Orders,
		locks:    locks,
		notifier: notifierOrNop(notifier),
	}
}

// CanReview разрешает отзыв только по завершённому заказу, только от участника
// о его контрагенте и только один раз на тройку (заказ, автор, адресат).
func (s *ReviewService) CanReview(ctx context.Context, orderID, reviewerID, reviewedID int64) (bool, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if order.Status != valueobject.OrderStatusCompleted {
		return false, nil
	}
	if !order.IsParticipant(reviewerID) || !order.IsParticipant(reviewedID) || reviewerID == reviewedID {
		return false, nil
	}
	exists, err := s.reviews.Exists(ctx, orderID, reviewerID, reviewedID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *ReviewService) AddReview(ctx context.Context, orderID, reviewerID, reviewedID int64, rating int, comment string) (*Result[*entity.Review], error) {
	unlock := s.locks.Lock(syncutil.OrderKey(orderID))
	defer unlock()

	var review *entity.Review
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.CanReview(ctx, orderID, reviewerID, reviewedID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ErrReviewNotAllowed
		}
		if review, err = entity.NewReview(orderID, reviewerID, reviewedID, rating, comment); err != nil {
			return err
		}
		return s.reviews.Create(ctx, review)
	})
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"order_id":    orderID,
			"reviewer_id": reviewerID,
			"kind":        apperror.Kind(err),
		}).Debug("review: declined")
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"review":  review.Key(),
		"rating":  review.Rating,
		"user_id": reviewedID,
	}).Info("review added")

	ev := newEvent(EventReviewAdded, reviewerID, decimal.Zero, reviewedID).forOrder(orderID, "")
	s.notifier.Notify(ctx, ev)
	return &Result[*entity.Review]{Value: review, Events: []Event{ev}}, nil
}

// AverageRating возвращает среднюю оценку и число отзывов. Без отзывов 0 и 0.
func (s *ReviewService) AverageRating(ctx context.Context, userID int64) (float64, int, error) {
	return s.reviews.AverageRating(ctx, userID)
}

func (s *ReviewService) ListUserReviews(ctx context.Context, userID int64) ([]*entity.Review, error) {
	return s.reviews.ListByReviewed(ctx, userID)
}
