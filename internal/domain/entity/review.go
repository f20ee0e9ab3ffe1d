package entity

import (
	"fmt"
	"time"

	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

type Review struct {
	OrderID    int64
	ReviewerID int64
	ReviewedID int64
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

func NewReview(orderID, reviewerID, reviewedID int64, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperror.New(apperror.ErrCodeValidation, "оценка должна быть от 1 до 5")
	}
	if reviewerID == reviewedID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя оставить отзыв самому себе")
	}
	comment, err := validation.OptionalText("комментарий", comment, validation.MaxCommentLength)
	if err != nil {
		return nil, err
	}
	return &Review{
		OrderID:    orderID,
		ReviewerID: reviewerID,
		ReviewedID: reviewedID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Key - составной ключ отзыва "{order}_{reviewer}_{reviewed}".
func (r *Review) Key() string {
	return ReviewKey(r.OrderID, r.ReviewerID, r.ReviewedID)
}

func ReviewKey(orderID, reviewerID, reviewedID int64) string {
	return fmt.Sprintf("%d_%d_%d", orderID, reviewerID, reviewedID)
}
