package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"

	"github.com/ignatzorin/freelance-escrow/internal/domain/entity"
	"github.com/ignatzorin/freelance-escrow/internal/domain/valueobject"
)

const listLimit = 10

const helpText = `Команды:
/start [client|freelancer] - регистрация
/role - сменить роль
/balance - баланс
/topup <сумма> - заявка на пополнение
/withdraw <сумма> <телефон> - заявка на вывод
/order <бюджет> <название> - создать заказ
/orders - мои заказы
/browse - открытые заказы
/respond <заказ> [сообщение] - откликнуться
/responses <заказ> - отклики на заказ
/select <заказ> <фрилансер> - выбрать исполнителя
/confirm <заказ> - подтвердить выполнение
/review <заказ> <пользователь> <1-5> [текст] - отзыв
/rating [пользователь] - рейтинг
/services [категория] - каталог услуг
/addservice <цена> <категория> <название> - добавить услугу
/buy <услуга> - заказать услугу
/token - токен для API`

func (b *Bot) onStart(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	role := valueobject.RoleClient
	if args := c.Args(); len(args) > 0 {
		r, err := valueobject.NewRole(strings.ToLower(args[0]))
		if err != nil {
			return b.fail(c, err)
		}
		role = r
	}

	s := c.Sender()
	acc, created, err := b.svc.Accounts.Register(ctx, s.ID, role, entity.Profile{
		Username:  s.Username,
		FirstName: s.FirstName,
		Language:  s.LanguageCode,
	})
	if err != nil {
		return b.fail(c, err)
	}

	greeting := "С возвращением"
	if created {
		greeting = "Добро пожаловать"
	}
	return c.Send(fmt.Sprintf("👋 %s, %s!\nРоль: %s\nБаланс: %s\n\n%s",
		greeting, acc.FirstName, roleTitle(acc.Role), b.money(acc.Available), helpText))
}

func (b *Bot) onHelp(c tele.Context) error {
	return c.Send(helpText)
}

func (b *Bot) onRole(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	acc, err := b.svc.Accounts.SwitchRole(ctx, c.Sender().ID)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send("Роль изменена: " + roleTitle(acc.Role))
}

func (b *Bot) onBalance(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	acc, err := b.svc.Ledger.GetBalance(ctx, c.Sender().ID)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("💰 Доступно: %s\n🔒 Заморожено: %s", b.money(acc.Available), b.money(acc.Frozen)))
}

func (b *Bot) onTopup(c tele.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return c.Send("Использование: /topup <сумма>")
	}
	amount, err := valueobject.ParseAmount(args[0])
	if err != nil {
		return b.fail(c, err)
	}

	ctx, cancel := b.ctx()
	defer cancel()
	res, err := b.svc.Requests.RequestTopup(ctx, c.Sender().ID, amount)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("📝 Заявка #%d на пополнение %s отправлена администратору.",
		res.Value.ID, b.money(res.Value.Amount)))
}

func (b *Bot) onWithdraw(c tele.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send("Использование: /withdraw <сумма> <телефон>")
	}
	amount, err := valueobject.ParseAmount(args[0])
	if err != nil {
		return b.fail(c, err)
	}

	ctx, cancel := b.ctx()
	defer cancel()
	res, err := b.svc.Requests.RequestWithdrawal(ctx, c.Sender().ID, amount, args[1])
	if err != nil {
		return b.fail(c, err)
	}
	r := res.Value
	return c.Send(fmt.Sprintf("📝 Заявка #%d на вывод %s создана.\nКомиссия: %s\nК выплате: %s\nСумма списана с баланса до решения администратора.",
		r.ID, b.money(r.Amount), b.money(r.Commission), b.money(r.Payout)))
}

func (b *Bot) onOrder(c tele.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send("Использование: /order <бюджет> <название>")
	}
	budget, err := valueobject.ParseAmount(args[0])
	if err != nil {
		return b.fail(c, err)
	}
	title := strings.Join(args[1:], " ")

	ctx, cancel := b.ctx()
	defer cancel()
	res, err := b.svc.Orders.CreateOrder(ctx, c.Sender().ID, title, title, budget)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("✅ Заказ #%d «%s» опубликован, бюджет %s.", res.Value.ID, res.Value.Title, b.money(res.Value.Budget)))
}

func (b *Bot) onOrders(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	userID := c.Sender().ID
	acc, err := b.svc.Accounts.Get(ctx, userID)
	if err != nil {
		return b.fail(c, err)
	}

	var orders []*entity.Order
	if acc.Role == valueobject.RoleFreelancer {
		orders, err = b.svc.Orders.ListAssigned(ctx, userID, listLimit, 0)
	} else {
		orders, err = b.svc.Orders.ListByClient(ctx, userID, listLimit, 0)
	}
	if err != nil {
		return b.fail(c, err)
	}
	if len(orders) == 0 {
		return c.Send("Заказов пока нет.")
	}

	var sb strings.Builder
	sb.WriteString("📋 Ваши заказы:\n")
	for _, o := range orders {
		sb.WriteString(b.orderLine(o))
	}
	return c.Send(sb.String())
}

func (b *Bot) onBrowse(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	orders, err := b.svc.Orders.ListActiveForFreelancer(ctx, c.Sender().ID, listLimit)
	if err != nil {
		return b.fail(c, err)
	}
	if len(orders) == 0 {
		return c.Send("Открытых заказов нет.")
	}

	var sb strings.Builder
	markup := &tele.ReplyMarkup{}
	sb.WriteString("🔎 Открытые заказы:\n")
	for _, o := range orders {
		sb.WriteString(b.orderLine(o))
		markup.InlineKeyboard = append(markup.InlineKeyboard, []tele.InlineButton{{
			Text: fmt.Sprintf("Откликнуться на #%d", o.ID),
			Data: callbackData(ActionRespond, o.ID),
		}})
	}
	return c.Send(sb.String(), markup)
}

func (b *Bot) onRespond(c tele.Context) error {
	args := c.Args()
	orderID, ok := argID(args, 0)
	if !ok {
		return c.Send("Использование: /respond <заказ> [сообщение]")
	}
	return b.respond(c, orderID, strings.Join(args[1:], " "))
}

func (b *Bot) respond(c tele.Context, orderID int64, message string) error {
	ctx, cancel := b.ctx()
	defer cancel()

	if _, err := b.svc.Orders.RespondToOrder(ctx, orderID, c.Sender().ID, message); err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("📨 Отклик на заказ #%d отправлен заказчику.", orderID))
}

func (b *Bot) onResponses(c tele.Context) error {
	orderID, ok := argID(c.Args(), 0)
	if !ok {
		return c.Send("Использование: /responses <заказ>")
	}

	ctx, cancel := b.ctx()
	defer cancel()

	order, err := b.svc.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return b.fail(c, err)
	}
	if order.ClientID != c.Sender().ID {
		return c.Send("❌ Отклики видит только автор заказа.")
	}
	responses, err := b.svc.Orders.ListResponses(ctx, orderID)
	if err != nil {
		return b.fail(c, err)
	}
	if len(responses) == 0 {
		return c.Send("Откликов пока нет.")
	}

	var sb strings.Builder
	markup := &tele.ReplyMarkup{}
	fmt.Fprintf(&sb, "Отклики на заказ #%d:\n", orderID)
	for _, r := range responses {
		fmt.Fprintf(&sb, "• фрилансер %d: %s\n", r.FreelancerID, r.Message)
		if order.Status == valueobject.OrderStatusActive {
			markup.InlineKeyboard = append(markup.InlineKeyboard, []tele.InlineButton{{
				Text: fmt.Sprintf("✅ Выбрать %d", r.FreelancerID),
				Data: callbackData(ActionSelect, orderID, r.FreelancerID),
			}})
		}
	}
	return c.Send(sb.String(), markup)
}

func (b *Bot) onSelect(c tele.Context) error {
	args := c.Args()
	orderID, ok1 := argID(args, 0)
	freelancerID, ok2 := argID(args, 1)
	if !ok1 || !ok2 {
		return c.Send("Использование: /select <заказ> <фрилансер>")
	}
	return b.selectFreelancer(c, orderID, freelancerID)
}

func (b *Bot) selectFreelancer(c tele.Context, orderID, freelancerID int64) error {
	ctx, cancel := b.ctx()
	defer cancel()

	res, err := b.svc.Orders.SelectFreelancer(ctx, orderID, c.Sender().ID, freelancerID)
	if err != nil {
		return b.fail(c, err)
	}
	markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{{
		Text: "Подтвердить выполнение",
		Data: callbackData(ActionConfirm, orderID),
	}}}}
	return c.Send(fmt.Sprintf("🤝 Исполнитель выбран, %s заморожены до завершения заказа #%d.",
		b.money(res.Value.Budget), orderID), markup)
}

func (b *Bot) onConfirm(c tele.Context) error {
	orderID, ok := argID(c.Args(), 0)
	if !ok {
		return c.Send("Использование: /confirm <заказ>")
	}
	return b.confirm(c, orderID)
}

func (b *Bot) confirm(c tele.Context, orderID int64) error {
	ctx, cancel := b.ctx()
	defer cancel()

	res, err := b.svc.Orders.ConfirmCompletion(ctx, orderID, c.Sender().ID)
	if err != nil {
		return b.fail(c, err)
	}
	if res.Value.Status == valueobject.OrderStatusCompleted {
		return c.Send(fmt.Sprintf("🎉 Заказ #%d завершён, оплата переведена исполнителю.", orderID))
	}
	return c.Send(fmt.Sprintf("Подтверждение принято. Ждём вторую сторону по заказу #%d.", orderID))
}

func (b *Bot) onReview(c tele.Context) error {
	args := c.Args()
	orderID, ok1 := argID(args, 0)
	reviewedID, ok2 := argID(args, 1)
	if !ok1 || !ok2 || len(args) < 3 {
		return c.Send("Использование: /review <заказ> <пользователь> <1-5> [текст]")
	}
	rating, err := strconv.Atoi(args[2])
	if err != nil {
		return c.Send("Оценка должна быть числом от 1 до 5.")
	}

	ctx, cancel := b.ctx()
	defer cancel()
	if _, err := b.svc.Reviews.AddReview(ctx, orderID, c.Sender().ID, reviewedID, rating, strings.Join(args[3:], " ")); err != nil {
		return b.fail(c, err)
	}
	return c.Send("⭐ Спасибо за отзыв!")
}

func (b *Bot) onRating(c tele.Context) error {
	userID := c.Sender().ID
	if id, ok := argID(c.Args(), 0); ok {
		userID = id
	}

	ctx, cancel := b.ctx()
	defer cancel()
	avg, count, err := b.svc.Reviews.AverageRating(ctx, userID)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("Рейтинг пользователя %d: %.1f (%d отзывов)", userID, avg, count))
}

func (b *Bot) onServices(c tele.Context) error {
	category := ""
	if args := c.Args(); len(args) > 0 {
		category = args[0]
	}

	ctx, cancel := b.ctx()
	defer cancel()
	listings, err := b.svc.Catalog.ListByCategory(ctx, category, listLimit, 0)
	if err != nil {
		return b.fail(c, err)
	}
	if len(listings) == 0 {
		return c.Send("Услуг пока нет.")
	}

	var sb strings.Builder
	markup := &tele.ReplyMarkup{}
	sb.WriteString("🧰 Услуги:\n")
	for _, l := range listings {
		fmt.Fprintf(&sb, "#%d %s [%s] - %s\n", l.ID, l.Title, l.Category, b.money(l.Price))
		markup.InlineKeyboard = append(markup.InlineKeyboard, []tele.InlineButton{{
			Text: fmt.Sprintf("Заказать #%d", l.ID),
			Data: callbackData(ActionBuy, l.ID),
		}})
	}
	return c.Send(sb.String(), markup)
}

func (b *Bot) onAddService(c tele.Context) error {
	args := c.Args()
	if len(args) < 3 {
		return c.Send("Использование: /addservice <цена> <категория> <название>")
	}
	price, err := valueobject.ParseAmount(args[0])
	if err != nil {
		return b.fail(c, err)
	}
	title := strings.Join(args[2:], " ")

	ctx, cancel := b.ctx()
	defer cancel()
	listing, err := b.svc.Catalog.Create(ctx, c.Sender().ID, title, title, args[1], price)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("✅ Услуга #%d «%s» добавлена в каталог.", listing.ID, listing.Title))
}

func (b *Bot) onBuy(c tele.Context) error {
	serviceID, ok := argID(c.Args(), 0)
	if !ok {
		return c.Send("Использование: /buy <услуга>")
	}
	return b.buy(c, serviceID)
}

func (b *Bot) buy(c tele.Context, serviceID int64) error {
	ctx, cancel := b.ctx()
	defer cancel()

	res, err := b.svc.Orders.PlaceServiceOrder(ctx, c.Sender().ID, serviceID)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("🛒 Заказ #%d создан, %s заморожены. Ожидайте подтверждения администратора.",
		res.Value.ID, b.money(res.Value.Budget)))
}

func (b *Bot) onToken(c tele.Context) error {
	ctx, cancel := b.ctx()
	defer cancel()

	token, err := b.svc.Auth.IssueUserToken(ctx, c.Sender().ID)
	if err != nil {
		return b.fail(c, err)
	}
	return c.Send(fmt.Sprintf("🔑 Токен для API (действует до %s):\n%s",
		token.ExpiresAt.Format("02.01.2006 15:04"), token.Token))
}

func (b *Bot) orderLine(o *entity.Order) string {
	return fmt.Sprintf("#%d %s - %s [%s]\n", o.ID, o.Title, b.money(o.Budget), o.Status)
}

func (b *Bot) money(amount decimal.Decimal) string {
	return valueobject.Format(amount, b.currency)
}

func roleTitle(r valueobject.Role) string {
	if r == valueobject.RoleFreelancer {
		return "фрилансер"
	}
	return "заказчик"
}
