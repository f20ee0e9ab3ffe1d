package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

func (e *testEnv) completedOrder(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()
	orderID := e.orderWithResponses(t, "150", "150", freelancerA)
	_, err := e.orders.SelectFreelancer(ctx, orderID, client, freelancerA)
	require.NoError(t, err)
	_, err = e.orders.ConfirmCompletion(ctx, orderID, client)
	require.NoError(t, err)
	_, err = e.orders.ConfirmCompletion(ctx, orderID, freelancerA)
	require.NoError(t, err)
	return orderID
}

func TestReviewService_GatedOnCompletedOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orderID := env.orderWithResponses(t, "150", "150", freelancerA)

	ok, err := env.reviews.CanReview(ctx, orderID, client, freelancerA)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = env.reviews.AddReview(ctx, orderID, client, freelancerA, 5, "")
	assert.ErrorIs(t, err, apperror.ErrReviewNotAllowed)

	ok, err = env.reviews.CanReview(ctx, 9999, client, freelancerA)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReviewService_AddOncePerTriple(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orderID := env.completedOrder(t)

	res, err := env.reviews.AddReview(ctx, orderID, client, freelancerA, 5, "отлично")
	require.NoError(t, err)
	assert.Equal(t, EventReviewAdded, res.Events[0].Type)

	_, err = env.reviews.AddReview(ctx, orderID, client, freelancerA, 4, "ещё раз")
	assert.ErrorIs(t, err, apperror.ErrReviewNotAllowed)

	_, err = env.reviews.AddReview(ctx, orderID, freelancerA, client, 3, "")
	require.NoError(t, err)

	avg, count, err := env.reviews.AverageRating(ctx, freelancerA)
	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 1, count)

	reviews, err := env.reviews.ListUserReviews(ctx, client)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestReviewService_RejectsOutsidersAndBadRating(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orderID := env.completedOrder(t)

	_, err := env.reviews.AddReview(ctx, orderID, stranger, freelancerA, 5, "")
	assert.ErrorIs(t, err, apperror.ErrReviewNotAllowed)
	_, err = env.reviews.AddReview(ctx, orderID, client, stranger, 5, "")
	assert.ErrorIs(t, err, apperror.ErrReviewNotAllowed)

	_, err = env.reviews.AddReview(ctx, orderID, client, freelancerA, 6, "")
	assert.True(t, apperror.IsValidation(err))
	ok, err := env.reviews.CanReview(ctx, orderID, client, freelancerA)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReviewService_AverageWithoutReviews(t *testing.T) {
	env := newTestEnv(t)
	avg, count, err := env.reviews.AverageRating(context.Background(), freelancerA)
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, count)
}

func TestAccountService_RegisterIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acc, created, err := env.accounts.Register(ctx, client, valueobject.RoleClient, entityProfile("anna"))
	require.NoError(t, err)
	assert.True(t, created)
	_, err = env.ledger.Credit(ctx, client, dec("10"))
	require.NoError(t, err)

	again, created, err := env.accounts.Register(ctx, client, valueobject.RoleFreelancer, entityProfile("other"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, acc.Role, again.Role)
	requireDec(t, "10", again.Available)

	switched, err := env.accounts.SwitchRole(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, valueobject.RoleFreelancer, switched.Role)

	list, err := env.accounts.ListByRole(ctx, valueobject.RoleFreelancer, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStatsService_Counts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orderID := env.completedOrder(t)
	_, err := env.reviews.AddReview(ctx, orderID, client, freelancerA, 4, "")
	require.NoError(t, err)
	_, err = env.orders.CreateOrder(ctx, client, "ещё", "", dec("5"))
	require.NoError(t, err)
	_, err = env.requests.RequestTopup(ctx, client, dec("5"))
	require.NoError(t, err)

	st, err := env.stats.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Users)
	assert.Equal(t, 1, st.Clients)
	assert.Equal(t, 1, st.Freelancers)
	assert.Equal(t, 2, st.Orders)
	assert.Equal(t, 1, st.ActiveOrders)
	assert.Equal(t, 1, st.CompletedOrders)
	assert.Equal(t, 1, st.Reviews)
	assert.Equal(t, 1, st.PendingRequests)
}

func TestCatalogService_DeleteOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, freelancerA, valueobject.RoleFreelancer, "")
	listing, err := env.catalog.Create(ctx, freelancerA, "Перевод", "", "text", dec("15"))
	require.NoError(t, err)

	assert.ErrorIs(t, env.catalog.Delete(ctx, listing.ID, freelancerB), apperror.ErrForbidden)
	require.NoError(t, env.catalog.Delete(ctx, listing.ID, freelancerA))
	_, err = env.catalog.Get(ctx, listing.ID)
	assert.ErrorIs(t, err, apperror.ErrServiceNotFound)
}
