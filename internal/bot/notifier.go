package bot

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-escrow/internal/goroutine"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// Sender - часть *tele.Bot, нужная для отправки сообщений.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type outgoing struct {
	userID int64
	text   string
}

// Notifier пересылает события ядра адресатам в Telegram.
// Инициатор события сообщение не получает. Новые заявки и заказы услуг
// дополнительно уходят администраторам.
type Notifier struct {
	sender   Sender
	currency string
	admins   []int64
	queue    chan outgoing
	log      *logrus.Entry
}

var adminEvents = map[service.EventType]bool{
	service.EventRequestCreated:     true,
	service.EventServiceOrderPlaced: true,
}

func NewNotifier(sender Sender, currency string, adminIDs []int64) *Notifier {
	return &Notifier{
		sender:   sender,
		currency: currency,
		admins:   adminIDs,
		queue:    make(chan outgoing, 256),
		log:      logger.Component("bot-notifier"),
	}
}

// Start запускает отправку сообщений из очереди до отмены ctx.
func (n *Notifier) Start(ctx context.Context) {
	goroutine.SafeGoWithContext(ctx, "bot-notifier", n.run)
}

func (n *Notifier) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-n.queue:
			if _, err := n.sender.Send(&tele.User{ID: msg.userID}, msg.text); err != nil {
				n.log.WithError(err).WithField("user_id", msg.userID).Warn("не удалось отправить уведомление")
			}
		}
	}
}

// Notify реализует service.Notifier и не блокирует вызывающего.
func (n *Notifier) Notify(_ context.Context, events ...service.Event) {
	for _, ev := range events {
		text := EventText(ev, n.currency)
		if text == "" {
			continue
		}
		seen := make(map[int64]struct{}, len(ev.UserIDs))
		for _, uid := range n.recipients(ev) {
			if _, dup := seen[uid]; dup || uid == ev.ActorID || uid == 0 {
				continue
			}
			seen[uid] = struct{}{}
			select {
			case n.queue <- outgoing{userID: uid, text: text}:
			default:
				n.log.WithFields(logrus.Fields{"user_id": uid, "type": ev.Type}).Warn("очередь уведомлений переполнена")
			}
		}
	}
}

func (n *Notifier) recipients(ev service.Event) []int64 {
	if !adminEvents[ev.Type] {
		return ev.UserIDs
	}
	out := make([]int64, 0, len(ev.UserIDs)+len(n.admins))
	out = append(out, ev.UserIDs...)
	return append(out, n.admins...)
}

// EventText возвращает текст уведомления или пустую строку, если событие
// пользователю не показывается.
func EventText(ev service.Event, currency string) string {
	amount := valueobject.Format(ev.Amount, currency)
	order := idOrZero(ev.OrderID)
	request := idOrZero(ev.RequestID)

	switch ev.Type {
	case service.EventResponseCreated:
		return fmt.Sprintf("📩 Новый отклик на заказ #%d. Посмотреть: /responses %d", order, order)
	case service.EventFreelancerSelected:
		return fmt.Sprintf("✅ Вас выбрали исполнителем заказа #%d. Бюджет %s заморожен.", order, amount)
	case service.EventResponseRejected:
		return fmt.Sprintf("Заказчик выбрал другого исполнителя для заказа #%d.", order)
	case service.EventCompletionConfirmed:
		return fmt.Sprintf("Вторая сторона подтвердила выполнение заказа #%d. Подтвердите: /confirm %d", order, order)
	case service.EventOrderCompleted:
		return fmt.Sprintf("🎉 Заказ #%d завершён, %s переведены исполнителю. Оставьте отзыв: /review", order, amount)
	case service.EventServiceOrderPlaced:
		return fmt.Sprintf("🛒 Заказана ваша услуга, заказ #%d на %s. Ожидается подтверждение администратора.", order, amount)
	case service.EventOrderAdminConfirmed:
		return fmt.Sprintf("Администратор подтвердил заказ #%d, можно приступать к работе.", order)
	case service.EventOrderCancelled:
		return fmt.Sprintf("❌ Заказ #%d отменён, %s разморожены.", order, amount)
	case service.EventRequestCreated:
		return fmt.Sprintf("🔔 Новая заявка #%d на %s. Очередь: /pending", request, amount)
	case service.EventRequestResolved:
		if ev.Status == string(valueobject.RequestStatusCompleted) {
			return fmt.Sprintf("✅ Заявка #%d на %s одобрена.", request, amount)
		}
		return fmt.Sprintf("❌ Заявка #%d на %s отклонена.", request, amount)
	case service.EventReviewAdded:
		return fmt.Sprintf("⭐ Вам оставили отзыв по заказу #%d. Рейтинг: /rating", order)
	default:
		return ""
	}
}

func idOrZero(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
