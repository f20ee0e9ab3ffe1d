// Package bot - разговорный слой Telegram поверх сервисов эскроу.
// Команды разбирают аргументы, вызывают ядро и показывают результат;
// вся бизнес-логика остаётся в internal/service.
package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"

	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

const requestTimeout = 10 * time.Second

// Services - зависимости бота.
type Services struct {
	Accounts *service.AccountService
	Ledger   *service.LedgerService
	Orders   *service.OrderService
	Requests *service.EscrowRequestService
	Reviews  *service.ReviewService
	Catalog  *service.CatalogService
	Stats    *service.StatsService
	Auth     *service.AuthService
}

type Bot struct {
	tb       *tele.Bot
	svc      Services
	currency string
	log      *logrus.Entry
}

// New подключается к Telegram и регистрирует команды.
func New(token string, svc Services, currency string) (*Bot, error) {
	b := newBot(svc, currency)

	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			entry := b.log.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("user_id", c.Sender().ID)
			}
			entry.Error("ошибка обработки обновления")
		},
	})
	if err != nil {
		return nil, err
	}
	b.tb = tb
	b.register(tb)
	return b, nil
}

func newBot(svc Services, currency string) *Bot {
	return &Bot{svc: svc, currency: currency, log: logger.Component("bot")}
}

func (b *Bot) register(tb *tele.Bot) {
	tb.Use(b.logUpdate)

	tb.Handle("/start", b.onStart)
	tb.Handle("/help", b.onHelp)
	tb.Handle("/role", b.onRole)
	tb.Handle("/balance", b.onBalance)
	tb.Handle("/topup", b.onTopup)
	tb.Handle("/withdraw", b.onWithdraw)
	tb.Handle("/order", b.onOrder)
	tb.Handle("/orders", b.onOrders)
	tb.Handle("/browse", b.onBrowse)
	tb.Handle("/respond", b.onRespond)
	tb.Handle("/responses", b.onResponses)
	tb.Handle("/select", b.onSelect)
	tb.Handle("/confirm", b.onConfirm)
	tb.Handle("/review", b.onReview)
	tb.Handle("/rating", b.onRating)
	tb.Handle("/services", b.onServices)
	tb.Handle("/addservice", b.onAddService)
	tb.Handle("/buy", b.onBuy)
	tb.Handle("/token", b.onToken)

	tb.Handle("/pending", b.onPending, b.adminOnly)
	tb.Handle("/approve", b.onApprove, b.adminOnly)
	tb.Handle("/reject", b.onReject, b.adminOnly)
	tb.Handle("/confirmorder", b.onConfirmOrder, b.adminOnly)
	tb.Handle("/rejectorder", b.onRejectOrder, b.adminOnly)
	tb.Handle("/stats", b.onStats, b.adminOnly)

	tb.Handle(tele.OnCallback, b.onCallback)
}

// Start блокирует до вызова Stop.
func (b *Bot) Start() {
	b.log.Info("telegram bot started")
	b.tb.Start()
}

func (b *Bot) Stop() {
	b.tb.Stop()
}

// Sender возвращает клиент Telegram для уведомлений.
func (b *Bot) Sender() Sender {
	return b.tb
}

func (b *Bot) logUpdate(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if s := c.Sender(); s != nil {
			b.log.WithFields(logrus.Fields{"user_id": s.ID, "text": c.Text()}).Debug("update")
		}
		return next(c)
	}
}

func (b *Bot) adminOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !b.svc.Auth.IsAdmin(c.Sender().ID) {
			return c.Send("⛔ Команда доступна только администратору.")
		}
		return next(c)
	}
}

func (b *Bot) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// fail показывает пользователю понятную причину отказа.
func (b *Bot) fail(c tele.Context, err error) error {
	return c.Send(errorText(err))
}

func errorText(err error) string {
	var appErr *apperror.AppError
	switch {
	case errors.Is(err, apperror.ErrUserNotFound):
		return "Сначала зарегистрируйтесь: /start"
	case apperror.IsPersistence(err):
		return "⚠️ Сервис временно недоступен, попробуйте позже."
	case errors.As(err, &appErr) && appErr.HTTPStatus < 500:
		return "❌ " + appErr.Message
	default:
		return "⚠️ Внутренняя ошибка, попробуйте позже."
	}
}

func argID(args []string, i int) (int64, bool) {
	if i >= len(args) {
		return 0, false
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
