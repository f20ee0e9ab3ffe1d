package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

// CatalogService - каталог готовых услуг фрилансеров.
type CatalogService struct {
	tx       repository.Transactor
	accounts repository.AccountRepository
	services repository.ServiceListingRepository
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{tx: store.Tx, accounts: store.Accounts, services: store.Services}
}

func (s *CatalogService) Create(ctx context.Context, freelancerID int64, title, description, category string, price decimal.Decimal) (*entity.ServiceListing, error) {
	listing, err := entity.NewServiceListing(freelancerID, title, description, category, price)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.FindByID(ctx, freelancerID); err != nil {
		return nil, err
	}
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.services.Create(ctx, listing)
	}); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"service_id":    listing.ID,
		"freelancer_id": freelancerID,
		"price":         listing.Price.String(),
	}).Info("service listing created")
	return listing, nil
}

func (s *CatalogService) Get(ctx context.Context, serviceID int64) (*entity.ServiceListing, error) {
	return s.services.FindByID(ctx, serviceID)
}

// ListByCategory с пустой категорией возвращает все услуги.
func (s *CatalogService) ListByCategory(ctx context.Context, category string, limit, offset int) ([]*entity.ServiceListing, error) {
	return s.services.ListByCategory(ctx, category, normalizeLimit(limit), offset)
}

func (s *CatalogService) ListByFreelancer(ctx context.Context, freelancerID int64) ([]*entity.ServiceListing, error) {
	return s.services.ListByFreelancer(ctx, freelancerID)
}

// Delete удаляет услугу. Удалить может только её владелец.
func (s *CatalogService) Delete(ctx context.Context, serviceID, callerID int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		listing, err := s.services.FindByID(ctx, serviceID)
		if err != nil {
			return err
		}
		if listing.FreelancerID != callerID {
			return apperror.ErrForbidden
		}
		return s.services.Delete(ctx, serviceID)
	})
}
