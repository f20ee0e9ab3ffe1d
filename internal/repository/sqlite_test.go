package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-escrow/internal/db"
	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	domainrepo "github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
)

func newSQLiteStore(t *testing.T) domainrepo.Store {
	t.Helper()
	logger.Silence()
	ctx := context.Background()

	conn, err := db.NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(ctx, conn))

	return repository.NewStore(conn)
}

func seedAccount(t *testing.T, s domainrepo.Store, id int64, role valueobject.Role, available int64) *entity.Account {
	t.Helper()
	acc, err := entity.NewAccount(id, role, entity.Profile{Username: "u"})
	require.NoError(t, err)
	if available > 0 {
		require.NoError(t, acc.Credit(decimal.NewFromInt(available)))
	}
	require.NoError(t, s.Accounts.Create(context.Background(), acc))
	return acc
}

func TestAccountRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	acc := seedAccount(t, s, 100, valueobject.RoleClient, 0)
	require.NoError(t, acc.Credit(decimal.RequireFromString("150.25")))
	require.NoError(t, acc.Freeze(decimal.RequireFromString("50.25")))
	require.NoError(t, s.Accounts.Update(ctx, acc))

	got, err := s.Accounts.FindByID(ctx, 100)
	require.NoError(t, err)
	assert.True(t, got.Available.Equal(decimal.NewFromInt(100)), got.Available.String())
	assert.True(t, got.Frozen.Equal(decimal.RequireFromString("50.25")), got.Frozen.String())
	assert.Equal(t, valueobject.RoleClient, got.Role)

	_, err = s.Accounts.FindByID(ctx, 999)
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)

	err = s.Accounts.Create(ctx, acc)
	assert.Equal(t, apperror.ErrCodeConflict, apperror.Kind(err))

	seedAccount(t, s, 200, valueobject.RoleFreelancer, 0)
	counts, err := s.Accounts.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[valueobject.RoleClient])
	assert.Equal(t, 1, counts[valueobject.RoleFreelancer])
}

func TestOrderRepository_CreateUpdateList(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	seedAccount(t, s, 100, valueobject.RoleClient, 0)

	first, _ := entity.NewOrder(100, "Логотип", "svg", decimal.NewFromInt(150))
	second, _ := entity.NewOrder(100, "Сайт", "", decimal.NewFromInt(300))
	require.NoError(t, s.Orders.Create(ctx, first))
	require.NoError(t, s.Orders.Create(ctx, second))
	assert.Equal(t, first.ID+1, second.ID)

	require.NoError(t, first.Select(100, 200))
	require.NoError(t, s.Orders.Update(ctx, first))

	got, err := s.Orders.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusInProgress, got.Status)
	require.NotNil(t, got.SelectedFreelancerID)
	assert.Equal(t, int64(200), *got.SelectedFreelancerID)
	assert.True(t, got.Budget.Equal(decimal.NewFromInt(150)))
	assert.Nil(t, got.CompletedAt)

	active, err := s.Orders.List(ctx, domainrepo.OrderFilter{Status: valueobject.OrderStatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	freelancer := int64(200)
	assigned, err := s.Orders.List(ctx, domainrepo.OrderFilter{FreelancerID: &freelancer})
	require.NoError(t, err)
	require.Len(t, assigned, 1)

	counts, err := s.Orders.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[valueobject.OrderStatusActive])
	assert.Equal(t, 1, counts[valueobject.OrderStatusInProgress])

	_, err = s.Orders.FindByID(ctx, 404)
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
}

func TestResponseRepository_UniquePair(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	seedAccount(t, s, 100, valueobject.RoleClient, 0)
	order, _ := entity.NewOrder(100, "Логотип", "", decimal.NewFromInt(150))
	require.NoError(t, s.Orders.Create(ctx, order))

	require.NoError(t, s.Responses.Create(ctx, entity.NewResponse(order.ID, 200, "готов")))
	err := s.Responses.Create(ctx, entity.NewResponse(order.ID, 200, "ещё раз"))
	assert.ErrorIs(t, err, apperror.ErrDuplicateResponse)

	found, err := s.Responses.Find(ctx, order.ID, 200)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "готов", found.Message)

	missing, err := s.Responses.Find(ctx, order.ID, 300)
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := s.Responses.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEscrowRequestRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	seedAccount(t, s, 100, valueobject.RoleClient, 0)

	req, err := entity.NewWithdrawalRequest(100, decimal.NewFromInt(40), "+99365000000", decimal.NewFromInt(100), decimal.RequireFromString("0.1"))
	require.NoError(t, err)
	require.NoError(t, s.Requests.Create(ctx, req))
	topup, _ := entity.NewTopupRequest(100, decimal.NewFromInt(10), decimal.NewFromInt(60))
	require.NoError(t, s.Requests.Create(ctx, topup))
	assert.Equal(t, req.ID+1, topup.ID)

	pending, err := s.Requests.List(ctx, domainrepo.RequestFilter{Status: valueobject.RequestStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, req.Resolve(valueobject.DecisionReject, 1, req.CreatedAt))
	require.NoError(t, s.Requests.Update(ctx, req))

	got, err := s.Requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.RequestStatusRejected, got.Status)
	assert.True(t, got.BalanceBefore.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.Payout.Equal(decimal.NewFromInt(36)))
	require.NotNil(t, got.ResolvedBy)

	_, err = s.Requests.FindByID(ctx, 77)
	assert.ErrorIs(t, err, apperror.ErrRequestNotFound)
}

func TestReviewRepository_AverageAndUniqueness(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	seedAccount(t, s, 100, valueobject.RoleClient, 0)
	order, _ := entity.NewOrder(100, "Логотип", "", decimal.NewFromInt(150))
	require.NoError(t, s.Orders.Create(ctx, order))

	avg, n, err := s.Reviews.AverageRating(ctx, 200)
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, n)

	review, _ := entity.NewReview(order.ID, 100, 200, 4, "хорошо")
	require.NoError(t, s.Reviews.Create(ctx, review))
	assert.ErrorIs(t, s.Reviews.Create(ctx, review), apperror.ErrReviewNotAllowed)

	exists, err := s.Reviews.Exists(ctx, order.ID, 100, 200)
	require.NoError(t, err)
	assert.True(t, exists)

	avg, n, err = s.Reviews.AverageRating(ctx, 200)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, avg, 0.0001)
	assert.Equal(t, 1, n)
}

func TestTransactor_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	seedAccount(t, s, 100, valueobject.RoleClient, 0)

	boom := errors.New("boom")
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		acc, err := s.Accounts.FindByID(ctx, 100)
		if err != nil {
			return err
		}
		if err := acc.Credit(decimal.NewFromInt(500)); err != nil {
			return err
		}
		if err := s.Accounts.Update(ctx, acc); err != nil {
			return err
		}
		return s.Transactions.Create(ctx, entity.NewTransaction(100, valueobject.TransactionCredit, decimal.NewFromInt(500), entity.Ref{}))
	})
	require.NoError(t, err)

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		acc, _ := s.Accounts.FindByID(ctx, 100)
		_ = acc.Debit(decimal.NewFromInt(500))
		if err := s.Accounts.Update(ctx, acc); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	acc, err := s.Accounts.FindByID(ctx, 100)
	require.NoError(t, err)
	assert.True(t, acc.Available.Equal(decimal.NewFromInt(500)))

	txs, err := s.Transactions.ListByUser(ctx, 100, 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, valueobject.TransactionCredit, txs[0].Type)
}

func TestServiceListingRepository(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	seedAccount(t, s, 200, valueobject.RoleFreelancer, 0)

	listing, err := entity.NewServiceListing(200, "Лендинг", "", "Web", decimal.NewFromInt(80))
	require.NoError(t, err)
	require.NoError(t, s.Services.Create(ctx, listing))

	byCategory, err := s.Services.ListByCategory(ctx, "web", 10, 0)
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.True(t, byCategory[0].Price.Equal(decimal.NewFromInt(80)))

	require.NoError(t, s.Services.Delete(ctx, listing.ID))
	assert.ErrorIs(t, s.Services.Delete(ctx, listing.ID), apperror.ErrServiceNotFound)
}

func TestTransactor_ClosedConnectionIsPersistence(t *testing.T) {
	logger.Silence()
	ctx := context.Background()

	conn, err := db.NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(ctx, conn))
	s := repository.NewStore(conn)
	require.NoError(t, conn.Close())

	called := false
	err = s.Tx.WithinTx(ctx, func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, apperror.IsPersistence(err), err.Error())
}

func TestTransactor_KeepsDomainErrors(t *testing.T) {
	s := newSQLiteStore(t)

	err := s.Tx.WithinTx(context.Background(), func(context.Context) error {
		return apperror.ErrInsufficientFunds
	})
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)
	assert.False(t, apperror.IsPersistence(err))
}
