package entity

import (
	"math/rand"
	"testing"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newTestAccount(t *testing.T, available int64) *Account {
	t.Helper()
	acc, err := NewAccount(1, valueobject.RoleClient, Profile{Username: "client"})
	require.NoError(t, err)
	if available > 0 {
		require.NoError(t, acc.Credit(dec(available)))
	}
	return acc
}

func TestNewAccount(t *testing.T) {
	acc, err := NewAccount(42, valueobject.RoleFreelancer, Profile{})
	require.NoError(t, err)
	assert.True(t, acc.Available.IsZero())
	assert.True(t, acc.Frozen.IsZero())
	assert.Equal(t, "ru", acc.Language)

	_, err = NewAccount(0, valueobject.RoleClient, Profile{})
	assert.True(t, apperror.IsValidation(err))
	_, err = NewAccount(1, valueobject.Role("admin"), Profile{})
	assert.True(t, apperror.IsValidation(err))
}

func TestAccount_RejectsNonPositiveAmounts(t *testing.T) {
	acc := newTestAccount(t, 100)
	for _, amount := range []decimal.Decimal{decimal.Zero, dec(-1)} {
		assert.ErrorIs(t, acc.Credit(amount), apperror.ErrInvalidAmount)
		assert.ErrorIs(t, acc.Debit(amount), apperror.ErrInvalidAmount)
		assert.ErrorIs(t, acc.Freeze(amount), apperror.ErrInvalidAmount)
		assert.ErrorIs(t, acc.Unfreeze(amount), apperror.ErrInvalidAmount)
		assert.ErrorIs(t, acc.ReleaseFrozen(amount), apperror.ErrInvalidAmount)
	}
	assert.True(t, acc.Available.Equal(dec(100)))
}

func TestAccount_InsufficientLeavesBalancesUntouched(t *testing.T) {
	acc := newTestAccount(t, 100)

	assert.ErrorIs(t, acc.Debit(dec(101)), apperror.ErrInsufficientFunds)
	assert.ErrorIs(t, acc.Freeze(dec(101)), apperror.ErrInsufficientFunds)
	assert.ErrorIs(t, acc.Unfreeze(dec(1)), apperror.ErrInsufficientFrozen)
	assert.ErrorIs(t, acc.ReleaseFrozen(dec(1)), apperror.ErrInsufficientFrozen)

	assert.True(t, acc.Available.Equal(dec(100)))
	assert.True(t, acc.Frozen.IsZero())
}

func TestAccount_FreezeUnfreezeKeepsTotal(t *testing.T) {
	acc := newTestAccount(t, 100)

	require.NoError(t, acc.Freeze(dec(60)))
	assert.True(t, acc.Available.Equal(dec(40)))
	assert.True(t, acc.Frozen.Equal(dec(60)))
	assert.True(t, acc.Total().Equal(dec(100)))

	require.NoError(t, acc.Unfreeze(dec(60)))
	assert.True(t, acc.Available.Equal(dec(100)))
	assert.True(t, acc.Frozen.IsZero())
}

func TestAccount_NeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	acc := newTestAccount(t, 0)

	for i := 0; i < 2000; i++ {
		amount := decimal.NewFromInt(int64(rng.Intn(200) - 20))
		switch rng.Intn(5) {
		case 0:
			_ = acc.Credit(amount)
		case 1:
			_ = acc.Debit(amount)
		case 2:
			_ = acc.Freeze(amount)
		case 3:
			_ = acc.Unfreeze(amount)
		case 4:
			_ = acc.ReleaseFrozen(amount)
		}
		require.False(t, acc.Available.IsNegative(), "step %d", i)
		require.False(t, acc.Frozen.IsNegative(), "step %d", i)
	}
}

func TestAccount_SwitchRole(t *testing.T) {
	acc := newTestAccount(t, 0)
	assert.Equal(t, valueobject.RoleFreelancer, acc.SwitchRole())
	assert.Equal(t, valueobject.RoleClient, acc.SwitchRole())
}
