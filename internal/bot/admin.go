package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
)

func (b *Bot) onPending(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	requests, err := b.svc.Requests.ListPending(ctx, listLimit)
	if err != nil {
		return b.fail(c, err)
	}
	orders, err := b.svc.Orders.ListAwaitingAdmin(ctx, listLimit)
	if err != nil {
		return b.fail(c, err)
	}
	if len(requests) == 0 && len(orders) == 0 {
		return c.Send("Очередь пуста.")
	}

	var sb strings.Builder
	markup := &tele.ReplyMarkup{}
	for _, r := range requests {
		kind := "пополнение"
		if r.Type == valueobject.RequestTypeWithdraw {
			kind = "вывод"
		}
		fmt.Fprintf(&sb, "Заявка #%d: %s %s от %d", r.ID, kind, b.money(r.Amount), r.UserID)
		if r.Phone != "" {
			fmt.Fprintf(&sb, ", тел. %s", r.Phone)
		}
		sb.WriteString("\n")
		markup.InlineKeyboard = append(markup.InlineKeyboard, []tele.InlineButton{
			{Text: fmt.Sprintf("✅ #%d", r.ID), Data: callbackData(ActionApprove, r.ID)},
			{Text: fmt.Sprintf("❌ #%d", r.ID), Data: callbackData(ActionReject, r.ID)},
		})
	}
	for _, o := range orders {
		fmt.Fprintf(&sb, "Заказ услуги #%d: %s, %s, клиент %d\n", o.ID, o.Title, b.money(o.Budget), o.ClientID)
		markup.InlineKeyboard = append(markup.InlineKeyboard, []tele.InlineButton{
			{Text: fmt.Sprintf("✅ заказ #%d", o.ID), Data: callbackData(ActionAdminConfirm, o.ID)},
			{Text: fmt.Sprintf("❌ заказ #%d", o.ID), Data: callbackData(ActionAdminReject, o.ID)},
		})
	}
	return c.Send(sb.String(), markup)
}

func (b *Bot) onApprove(c tele.Context) error {
	return b.resolveCommand(c, valueobject.DecisionApprove)
}

func (b *Bot) onReject(c tele.Context) error {
	return b.resolveCommand(c, valueobject.DecisionReject)
}

func (b *Bot) resolveCommand(c tele.Context, decision valueobject.Decision) error {
	requestID, ok := argID(c.Args(), 0)
	if !ok {
		return c.Send(fmt.Sprintf("Использование: /%s <заявка>", decision))
	}
	return b.resolve(c, requestID, decision)
}

func (b *Bot) resolve(c tele.Context, requestID int64, decision valueobject.Decision) error {
	ctx, cancel := b.ctx()
	defer cancel()

	res, err := b.svc.Requests.Resolve(ctx, requestID, c.Sender().ID, decision)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("Заявка #%d: %s", requestID, res.Value.Status))
}

func (b *Bot) onConfirmOrder(c tele.Context) error {
	orderID, ok := argID(c.Args(), 0)
	if !ok {
		return c.Send("Использование: /confirmorder <заказ>")
	}
	return b.adminConfirm(c, orderID)
}

func (b *Bot) adminConfirm(c tele.Context, orderID int64) error {
	ctx, cancel := b.ctx()
	defer cancel()

	if _, err := b.svc.Orders.AdminConfirmOrder(ctx, orderID, c.Sender().ID); err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("✅ Заказ #%d подтверждён.", orderID))
}

func (b *Bot) onRejectOrder(c tele.Context) error {
	orderID, ok := argID(c.Args(), 0)
	if !ok {
		return c.Send("Использование: /rejectorder <заказ>")
	}
	return b.adminReject(c, orderID)
}

func (b *Bot) adminReject(c tele.Context, orderID int64) error {
	ctx, cancel := b.ctx()
	defer cancel()

	res, err := b.svc.Orders.AdminRejectOrder(ctx, orderID, c.Sender().ID)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("❌ Заказ #%d отменён, клиенту возвращено %s.", orderID, b.money(res.Value.Budget)))
}

func (b *Bot) onStats(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	st, err := b.svc.Stats.Stats(ctx)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("📊 Статистика\nПользователи: %d (заказчики %d, фрилансеры %d)\n"+
		"Заказы: %d (открыто %d, в работе %d, завершено %d)\nОтзывы: %d\nЗаявки в очереди: %d",
		st.Users, st.Clients, st.Freelancers,
		st.Orders, st.ActiveOrders, st.InProgress, st.CompletedOrders,
		st.Reviews, st.PendingRequests))
}

// onCallback разбирает данные inline-кнопки и вызывает ту же логику, что и команда.
func (b *Bot) onCallback(c tele.Context) error {
	cb, err := ParseCallback(c.Callback().Data)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Кнопка устарела"})
	}
	_ = c.Respond()

	switch cb.Action {
	case ActionRespond:
		return b.respond(c, cb.IDs[0], "")
	case ActionSelect:
		return b.selectFreelancer(c, cb.IDs[0], cb.IDs[1])
	case ActionConfirm:
		return b.confirm(c, cb.IDs[0])
	case ActionBuy:
		return b.buy(c, cb.IDs[0])
	}

	if !b.svc.Auth.IsAdmin(c.Sender().ID) {
		return c.Send("⛔ Действие доступно только администратору.")
	}
	switch cb.Action {
	case ActionApprove:
		return b.resolve(c, cb.IDs[0], valueobject.DecisionApprove)
	case ActionReject:
		return b.resolve(c, cb.IDs[0], valueobject.DecisionReject)
	case ActionAdminConfirm:
		return b.adminConfirm(c, cb.IDs[0])
	case ActionAdminReject:
		return b.adminReject(c, cb.IDs[0])
	}
	return nil
}
