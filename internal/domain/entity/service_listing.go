package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

// ServiceListing - готовая услуга фрилансера с фиксированной ценой.
type ServiceListing struct {
	ID           int64
	FreelancerID int64
	Title        string
	Description  string
	Category     string
	Price        decimal.Decimal
	CreatedAt    time.Time
}

func NewServiceListing(freelancerID int64, title, description, category string, price decimal.Decimal) (*ServiceListing, error) {
	title, err := validation.RequiredText("название услуги", title, validation.MaxServiceTitleLength)
	if err != nil {
		return nil, err
	}
	description, err = validation.OptionalText("описание услуги", description, validation.MaxOrderDescriptionLength)
	if err != nil {
		return nil, err
	}
	if category, err = validation.NormalizeCategory(category); err != nil {
		return nil, err
	}
	if err := valueobject.RequirePositive(price); err != nil {
		return nil, err
	}
	return &ServiceListing{
		FreelancerID: freelancerID,
		Title:        title,
		Description:  description,
		Category:     category,
		Price:        price,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
