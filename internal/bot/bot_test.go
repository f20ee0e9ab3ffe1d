package bot

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/repository/memory"
	"github.com/ignatzorin/freelance-escrow/internal/service"
	"github.com/ignatzorin/freelance-escrow/internal/syncutil"
)

const (
	adminID      int64 = 1
	clientID     int64 = 100
	freelancerID int64 = 200
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

// fakeContext подменяет только те методы tele.Context, которые используют команды.
type fakeContext struct {
	tele.Context
	sender  *tele.User
	args    []string
	data    string
	sent    []string
	markups []*tele.ReplyMarkup
}

func (f *fakeContext) Sender() *tele.User { return f.sender }
func (f *fakeContext) Args() []string     { return f.args }
func (f *fakeContext) Text() string       { return "" }

func (f *fakeContext) Callback() *tele.Callback {
	return &tele.Callback{Data: f.data}
}

func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, what.(string))
	for _, o := range opts {
		if m, ok := o.(*tele.ReplyMarkup); ok {
			f.markups = append(f.markups, m)
		}
	}
	return nil
}

func (f *fakeContext) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeContext) buttons() []string {
	var out []string
	for _, m := range f.markups {
		for _, row := range m.InlineKeyboard {
			for _, btn := range row {
				out = append(out, btn.Data)
			}
		}
	}
	return out
}

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	repos := memory.NewStore().Repositories()
	locks := &syncutil.KeyedMutex{}
	ledger := service.NewLedgerService(repos, locks, nil)
	orders := service.NewOrderService(repos, ledger, locks, nil)

	return newBot(Services{
		Accounts: service.NewAccountService(repos, locks),
		Ledger:   ledger,
		Orders:   orders,
		Requests: service.NewEscrowRequestService(repos, ledger, locks, nil, decimal.RequireFromString("0.10")),
		Reviews:  service.NewReviewService(repos, locks, nil),
		Catalog:  service.NewCatalogService(repos),
		Stats:    service.NewStatsService(repos),
		Auth: service.NewAuthService(repos.Accounts,
			service.NewTokenManager("bot-test-secret-bot-test-secret-xx", time.Hour), []int64{adminID}, ""),
	}, "TMT")
}

func run(t *testing.T, h tele.HandlerFunc, userID int64, args ...string) *fakeContext {
	t.Helper()
	c := &fakeContext{sender: &tele.User{ID: userID, FirstName: "Тест"}, args: args}
	require.NoError(t, h(c))
	return c
}

func press(t *testing.T, b *Bot, userID int64, data string) *fakeContext {
	t.Helper()
	c := &fakeContext{sender: &tele.User{ID: userID}, data: data}
	require.NoError(t, b.onCallback(c))
	return c
}

func TestStart_RegistersOnce(t *testing.T) {
	b := newTestBot(t)

	c := run(t, b.onStart, clientID)
	assert.Contains(t, c.last(), "Добро пожаловать")
	assert.Contains(t, c.last(), "заказчик")

	c = run(t, b.onStart, clientID, "freelancer")
	assert.Contains(t, c.last(), "С возвращением")
	assert.Contains(t, c.last(), "заказчик")

	c = run(t, b.onStart, freelancerID, "nobody")
	assert.Contains(t, c.last(), "роль должна быть")
}

func TestFullOrderFlowThroughCommands(t *testing.T) {
	b := newTestBot(t)
	run(t, b.onStart, clientID)
	run(t, b.onStart, freelancerID, "freelancer")

	c := run(t, b.onTopup, clientID, "500")
	assert.Contains(t, c.last(), "Заявка #1")
	c = press(t, b, adminID, "approve_1")
	assert.Contains(t, c.last(), "completed")

	c = run(t, b.onBalance, clientID)
	assert.Contains(t, c.last(), "500.00 TMT")

	c = run(t, b.onOrder, clientID, "150", "Логотип", "для", "кафе")
	assert.Contains(t, c.last(), "Заказ #1 «Логотип для кафе»")

	c = run(t, b.onBrowse, freelancerID)
	assert.Equal(t, []string{"respond_1"}, c.buttons())
	press(t, b, freelancerID, "respond_1")

	c = run(t, b.onResponses, clientID, "1")
	assert.Equal(t, []string{"select_1_200"}, c.buttons())
	c = press(t, b, clientID, "select_1_200")
	assert.Contains(t, c.last(), "150.00 TMT заморожены")

	c = run(t, b.onConfirm, freelancerID, "1")
	assert.Contains(t, c.last(), "Ждём вторую сторону")
	c = press(t, b, clientID, "confirm_1")
	assert.Contains(t, c.last(), "завершён")

	c = run(t, b.onBalance, freelancerID)
	assert.Contains(t, c.last(), "Доступно: 150.00 TMT")

	c = run(t, b.onReview, clientID, "1", "200", "5", "отлично")
	assert.Contains(t, c.last(), "Спасибо")
	c = run(t, b.onRating, clientID, "200")
	assert.Contains(t, c.last(), "5.0 (1 отзывов)")
}

func TestWithdrawShowsCommission(t *testing.T) {
	b := newTestBot(t)
	run(t, b.onStart, clientID)
	_, err := b.svc.Ledger.Credit(context.Background(), clientID, decimal.NewFromInt(300))
	require.NoError(t, err)

	c := run(t, b.onWithdraw, clientID, "100", "+99365123456")
	assert.Contains(t, c.last(), "Комиссия: 10.00 TMT")
	assert.Contains(t, c.last(), "К выплате: 90.00 TMT")

	c = run(t, b.onWithdraw, clientID, "1000", "+99365123456")
	assert.Contains(t, c.last(), "недостаточно средств")
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	b := newTestBot(t)
	run(t, b.onStart, clientID)

	c := run(t, b.adminOnly(b.onPending), clientID)
	assert.Contains(t, c.last(), "только администратору")

	c = press(t, b, clientID, "approve_1")
	assert.Contains(t, c.last(), "только администратору")

	c = run(t, b.adminOnly(b.onPending), adminID)
	assert.Equal(t, "Очередь пуста.", c.last())
}

func TestServiceOrderModeratedFromPending(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()
	run(t, b.onStart, clientID)
	run(t, b.onStart, freelancerID, "freelancer")
	_, err := b.svc.Ledger.Credit(ctx, clientID, decimal.NewFromInt(100))
	require.NoError(t, err)

	c := run(t, b.onAddService, freelancerID, "80", "design", "Баннер")
	assert.Contains(t, c.last(), "Услуга #1")

	c = run(t, b.onServices, clientID, "design")
	assert.Equal(t, []string{"buy_1"}, c.buttons())
	c = press(t, b, clientID, "buy_1")
	assert.Contains(t, c.last(), "80.00 TMT заморожены")

	c = run(t, b.onPending, adminID)
	assert.Equal(t, []string{"adminconfirm_1", "adminreject_1"}, c.buttons())

	c = press(t, b, adminID, "adminreject_1")
	assert.Contains(t, c.last(), "возвращено 80.00 TMT")

	acc, err := b.svc.Ledger.GetBalance(ctx, clientID)
	require.NoError(t, err)
	assert.True(t, acc.Available.Equal(decimal.NewFromInt(100)))
	assert.True(t, acc.Frozen.IsZero())
}

func TestStaleCallback(t *testing.T) {
	b := newTestBot(t)
	c := press(t, b, clientID, "lang_ru")
	assert.Empty(t, c.sent)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "Сначала зарегистрируйтесь: /start", errorText(apperror.ErrUserNotFound))
	assert.Equal(t, "❌ заявка уже обработана", errorText(apperror.ErrAlreadyResolved))
	assert.True(t, strings.HasPrefix(errorText(apperror.Persistence(errors.New("db down"))), "⚠️ Сервис"))
	assert.True(t, strings.HasPrefix(errorText(errors.New("boom")), "⚠️ Внутренняя"))
}

type fakeSender struct {
	mu   sync.Mutex
	sent map[int64][]string
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[int64][]string)
	}
	u := to.(*tele.User)
	f.sent[u.ID] = append(f.sent[u.ID], what.(string))
	return &tele.Message{}, nil
}

func (f *fakeSender) count(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent[id])
}

func TestNotifier_SkipsActorAndAddsAdmins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &fakeSender{}
	n := NewNotifier(sender, "TMT", []int64{adminID})
	n.Start(ctx)

	orderID := int64(5)
	n.Notify(ctx,
		service.Event{Type: service.EventFreelancerSelected, ActorID: clientID, UserIDs: []int64{clientID, freelancerID}, OrderID: &orderID, Amount: decimal.NewFromInt(150)},
		service.Event{Type: service.EventRequestCreated, ActorID: clientID, UserIDs: []int64{clientID}, Amount: decimal.NewFromInt(10)},
		service.Event{Type: service.EventBalanceChanged, UserIDs: []int64{clientID}},
	)

	require.Eventually(t, func() bool {
		return sender.count(freelancerID) == 1 && sender.count(adminID) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, sender.count(clientID))
}

func TestEventText(t *testing.T) {
	requestID := int64(3)
	text := EventText(service.Event{
		Type:      service.EventRequestResolved,
		RequestID: &requestID,
		Amount:    decimal.NewFromInt(40),
		Status:    "rejected",
	}, "TMT")
	assert.Equal(t, "❌ Заявка #3 на 40.00 TMT отклонена.", text)

	assert.Empty(t, EventText(service.Event{Type: service.EventBalanceChanged}, "TMT"))
}
