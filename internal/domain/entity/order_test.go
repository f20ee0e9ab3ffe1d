package entity

import (
	"testing"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	clientID     int64 = 100
	freelancerID int64 = 200
	strangerID   int64 = 300
)

func newActiveOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder(clientID, "Логотип", "Нужен логотип", dec(150))
	require.NoError(t, err)
	order.ID = 1
	return order
}

func newInProgressOrder(t *testing.T) *Order {
	t.Helper()
	order := newActiveOrder(t)
	require.NoError(t, order.Select(clientID, freelancerID))
	return order
}

func TestNewOrder_Validation(t *testing.T) {
	_, err := NewOrder(clientID, "  ", "x", dec(10))
	assert.True(t, apperror.IsValidation(err))

	_, err = NewOrder(clientID, "Сайт", "x", dec(0))
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)

	order := newActiveOrder(t)
	assert.Equal(t, valueobject.OrderStatusActive, order.Status)
	assert.Nil(t, order.SelectedFreelancerID)
	assert.Equal(t, valueobject.OrderKindStandard, order.Kind)
}

func TestOrder_CheckRespond(t *testing.T) {
	order := newActiveOrder(t)
	assert.NoError(t, order.CheckRespond(freelancerID))
	assert.ErrorIs(t, order.CheckRespond(clientID), apperror.ErrSelfResponseForbidden)

	order = newInProgressOrder(t)
	assert.ErrorIs(t, order.CheckRespond(strangerID), apperror.ErrOrderNotActive)
}

func TestOrder_Select(t *testing.T) {
	order := newActiveOrder(t)

	assert.ErrorIs(t, order.Select(strangerID, freelancerID), apperror.ErrNotOrderOwner)
	assert.Equal(t, valueobject.OrderStatusActive, order.Status)

	require.NoError(t, order.Select(clientID, freelancerID))
	assert.Equal(t, valueobject.OrderStatusInProgress, order.Status)
	assert.Equal(t, freelancerID, order.FreelancerID())
	assert.False(t, order.ClientConfirmed)
	assert.False(t, order.FreelancerConfirmed)

	assert.ErrorIs(t, order.Select(clientID, strangerID), apperror.ErrOrderNotActive)
	assert.Equal(t, freelancerID, order.FreelancerID())
}

func TestOrder_SelectChecksStatusBeforeOwner(t *testing.T) {
	order := newInProgressOrder(t)
	assert.ErrorIs(t, order.Select(strangerID, freelancerID), apperror.ErrOrderNotActive)
}

func TestOrder_ConfirmRequiresBothParties(t *testing.T) {
	order := newInProgressOrder(t)

	completed, err := order.Confirm(freelancerID)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.True(t, order.FreelancerConfirmed)
	assert.False(t, order.ClientConfirmed)
	assert.Equal(t, valueobject.OrderStatusInProgress, order.Status)

	stamp := order.UpdatedAt
	completed, err = order.Confirm(freelancerID)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, valueobject.OrderStatusInProgress, order.Status)
	assert.Equal(t, stamp, order.UpdatedAt)
	assert.True(t, order.HasConfirmed(freelancerID))
	assert.False(t, order.HasConfirmed(clientID))

	completed, err = order.Confirm(clientID)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, valueobject.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.CompletedAt)

	_, err = order.Confirm(clientID)
	assert.ErrorIs(t, err, apperror.ErrOrderNotInProgress)
}

func TestOrder_ConfirmErrors(t *testing.T) {
	order := newInProgressOrder(t)
	_, err := order.Confirm(strangerID)
	assert.ErrorIs(t, err, apperror.ErrNotParticipant)

	active := newActiveOrder(t)
	_, err = active.Confirm(clientID)
	assert.ErrorIs(t, err, apperror.ErrOrderNotInProgress)
}

func newServiceOrder(t *testing.T) *Order {
	t.Helper()
	listing, err := NewServiceListing(freelancerID, "Лендинг", "", "web", dec(80))
	require.NoError(t, err)
	listing.ID = 5
	order, err := NewServiceOrder(clientID, listing)
	require.NoError(t, err)
	order.ID = 2
	return order
}

func TestNewServiceOrder(t *testing.T) {
	order := newServiceOrder(t)
	assert.Equal(t, valueobject.OrderKindService, order.Kind)
	assert.Equal(t, valueobject.OrderStatusInProgress, order.Status)
	assert.Equal(t, freelancerID, order.FreelancerID())
	require.NotNil(t, order.ServiceID)
	assert.Equal(t, int64(5), *order.ServiceID)
	assert.True(t, order.Budget.Equal(dec(80)))

	listing, _ := NewServiceListing(clientID, "Своя услуга", "", "", dec(10))
	_, err := NewServiceOrder(clientID, listing)
	assert.ErrorIs(t, err, apperror.ErrSelfResponseForbidden)
}

func TestOrder_ServiceOrderNeedsAdmin(t *testing.T) {
	order := newServiceOrder(t)

	_, err := order.Confirm(freelancerID)
	assert.ErrorIs(t, err, apperror.ErrOrderAwaitingAdmin)

	require.NoError(t, order.AdminConfirm())
	assert.ErrorIs(t, order.AdminConfirm(), apperror.ErrOrderAlreadyConfirmed)
	assert.ErrorIs(t, order.AdminReject(), apperror.ErrOrderAlreadyConfirmed)

	_, err = order.Confirm(freelancerID)
	require.NoError(t, err)
	completed, err := order.Confirm(clientID)
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestOrder_AdminReject(t *testing.T) {
	order := newServiceOrder(t)
	require.NoError(t, order.AdminReject())
	assert.Equal(t, valueobject.OrderStatusCancelled, order.Status)
	assert.NotNil(t, order.CancelledAt)
	assert.Equal(t, freelancerID, order.FreelancerID())

	assert.ErrorIs(t, order.AdminReject(), apperror.ErrOrderNotInProgress)

	standard := newInProgressOrder(t)
	assert.ErrorIs(t, standard.AdminReject(), apperror.ErrNotServiceOrder)
}
