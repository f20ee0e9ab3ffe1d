package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
)

func TestLedgerService_CreditDebit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, 1, valueobject.RoleClient, "100")

	_, err := env.ledger.Debit(ctx, 1, dec("40"))
	require.NoError(t, err)
	avail, frozen := env.balance(t, 1)
	requireDec(t, "60", avail)
	requireDec(t, "0", frozen)

	_, err = env.ledger.Debit(ctx, 1, dec("61"))
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)
	avail, _ = env.balance(t, 1)
	requireDec(t, "60", avail)
}

func TestLedgerService_RejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, 1, valueobject.RoleClient, "10")

	_, err := env.ledger.Credit(ctx, 1, dec("0"))
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)
	_, err = env.ledger.Freeze(ctx, 1, dec("-5"))
	assert.ErrorIs(t, err, apperror.ErrInvalidAmount)
	_, err = env.ledger.Credit(ctx, 404, dec("5"))
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
	_, err = env.ledger.Unfreeze(ctx, 1, dec("1"))
	assert.ErrorIs(t, err, apperror.ErrInsufficientFrozen)
	err = env.ledger.TransferFrozen(ctx, 1, 404, dec("1"))
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestLedgerService_FreezeTransferConserves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, 1, valueobject.RoleClient, "200")
	env.user(t, 2, valueobject.RoleFreelancer, "5")

	_, err := env.ledger.Freeze(ctx, 1, dec("150"))
	require.NoError(t, err)
	require.NoError(t, env.ledger.TransferFrozen(ctx, 1, 2, dec("150")))

	a1, f1 := env.balance(t, 1)
	a2, f2 := env.balance(t, 2)
	requireDec(t, "50", a1)
	requireDec(t, "0", f1)
	requireDec(t, "155", a2)
	requireDec(t, "0", f2)

	err = env.ledger.TransferFrozen(ctx, 1, 2, dec("1"))
	assert.ErrorIs(t, err, apperror.ErrInsufficientFrozen)
	a2, _ = env.balance(t, 2)
	requireDec(t, "155", a2)
}

func TestLedgerService_FreezeUnfreezeIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, 1, valueobject.RoleClient, "75.50")

	_, err := env.ledger.Freeze(ctx, 1, dec("30.25"))
	require.NoError(t, err)
	acc, err := env.ledger.Unfreeze(ctx, 1, dec("30.25"))
	require.NoError(t, err)
	requireDec(t, "75.50", acc.Available)
	requireDec(t, "0", acc.Frozen)
}

func TestLedgerService_JournalRecordsEveryOperation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, 1, valueobject.RoleClient, "100")
	env.user(t, 2, valueobject.RoleFreelancer, "")

	_, err := env.ledger.Freeze(ctx, 1, dec("60"))
	require.NoError(t, err)
	require.NoError(t, env.ledger.TransferFrozen(ctx, 1, 2, dec("60")))

	txs, err := env.ledger.ListTransactions(ctx, 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, valueobject.TransactionReleaseOut, txs[0].Type)
	assert.Equal(t, valueobject.TransactionFreeze, txs[1].Type)
	assert.Equal(t, valueobject.TransactionCredit, txs[2].Type)

	txs, err = env.ledger.ListTransactions(ctx, 2, 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, valueobject.TransactionReleaseIn, txs[0].Type)
}

func TestLedgerService_RandomSequenceNeverNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, 1, valueobject.RoleClient, "50")
	env.user(t, 2, valueobject.RoleFreelancer, "50")

	rnd := rand.New(rand.NewSource(7))
	amounts := []string{"0.01", "1", "5.5", "10", "25", "49.99", "100"}
	for i := 0; i < 500; i++ {
		amount := dec(amounts[rnd.Intn(len(amounts))])
		user := int64(rnd.Intn(2) + 1)
		switch rnd.Intn(5) {
		case 0:
			_, _ = env.ledger.Credit(ctx, user, amount)
		case 1:
			_, _ = env.ledger.Debit(ctx, user, amount)
		case 2:
			_, _ = env.ledger.Freeze(ctx, user, amount)
		case 3:
			_, _ = env.ledger.Unfreeze(ctx, user, amount)
		case 4:
			_ = env.ledger.TransferFrozen(ctx, user, 3-user, amount)
		}
		for _, id := range []int64{1, 2} {
			avail, frozen := env.balance(t, id)
			require.False(t, avail.IsNegative(), "available went negative at step %d", i)
			require.False(t, frozen.IsNegative(), "frozen went negative at step %d", i)
		}
	}
}

func TestLedgerService_ConcurrentOppositeTransfers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, 1, valueobject.RoleClient, "1000")
	env.user(t, 2, valueobject.RoleClient, "1000")
	_, err := env.ledger.Freeze(ctx, 1, dec("1000"))
	require.NoError(t, err)
	_, err = env.ledger.Freeze(ctx, 2, dec("1000"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = env.ledger.TransferFrozen(ctx, 1, 2, dec("3"))
		}()
		go func() {
			defer wg.Done()
			_ = env.ledger.TransferFrozen(ctx, 2, 1, dec("3"))
		}()
	}
	wg.Wait()

	a1, f1 := env.balance(t, 1)
	a2, f2 := env.balance(t, 2)
	requireDec(t, "2000", a1.Add(f1).Add(a2).Add(f2))
	requireDec(t, "850", f1)
	requireDec(t, "850", f2)
}
