package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kursBot/internal/database"
	"kursBot/internal/report"
)

// /пр 1 500 000 от 1 480 000/97,5 — получаем, отдаем, курс.
var orderRe = regexp.MustCompile(`^([\d\s.,]+?)\s+от\s+([\d\s.,]+)/([\d.,]+)$`)

func parseOrderArgs(args string) (get, give, rate decimal.Decimal, ok bool) {
	m := orderRe.FindStringSubmatch(strings.TrimSpace(args))
	if m == nil {
		return
	}
	parse := func(s string) (decimal.Decimal, bool) {
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		d, err := decimal.NewFromString(s)
		return d, err == nil
	}
	var okGet, okGive, okRate bool
	get, okGet = parse(m[1])
	give, okGive = parse(m[2])
	rate, okRate = parse(m[3])
	ok = okGet && okGive && okRate && rate.IsPositive() && get.IsPositive() && give.IsPositive()
	return
}

// splitSendArgs выделяет необязательный номер заявки из аргументов /отпр:
// первый токен считается номером, только если за ним идет сумма.
func splitSendArgs(args string) (id uint64, hasID bool, rest string) {
	fields := strings.Fields(args)
	if len(fields) > 1 {
		if n, err := strconv.ParseUint(fields[0], 10, 32); err == nil {
			return n, true, strings.TrimSpace(strings.TrimPrefix(args, fields[0]))
		}
	}
	return 0, false, args
}

// recalcOrder пересчитывает остаток и статус после изменения условий или
// отправки. Остаток не уходит в минус: излишек просто закрывает заявку.
func recalcOrder(o *database.Order) {
	o.RemainingUsdt = o.UsdtAmount.Sub(o.SentUsdt)
	switch {
	case !o.RemainingUsdt.IsPositive():
		o.RemainingUsdt = decimal.Zero
		o.Status = database.OrderDone
	case o.SentUsdt.IsZero():
		o.Status = database.OrderCreated
	default:
		o.Status = database.OrderPartial
	}
}

func isAdmin(u *database.User) bool {
	return u != nil && u.Role == "admin"
}

func statusLabel(status string) string {
	switch status {
	case database.OrderCreated:
		return "🆕 создана"
	case database.OrderPartial:
		return "🔄 частично отправлена"
	case database.OrderDone:
		return "✅ закрыта"
	}
	return status
}

func orderCard(o *database.Order) string {
	return fmt.Sprintf(
		"📋 Заявка #%d\n"+
			"Получаем: <code>%s</code> RUB\n"+
			"Отдаем: <code>%s</code> RUB\n"+
			"Курс: <code>%s</code>\n"+
			"USDT: <code>%s</code>\n"+
			"Отправлено: <code>%s</code>\n"+
			"Остаток: <code>%s</code>\n"+
			"Статус: %s",
		o.ID,
		o.RubGet.StringFixed(2), o.RubGive.StringFixed(2),
		o.Rate.String(), o.UsdtAmount.StringFixed(2),
		o.SentUsdt.StringFixed(2), o.RemainingUsdt.StringFixed(2),
		statusLabel(o.Status))
}

// handleOrderCreate — /пр <получаем> от <отдаем>/<курс>: заводит заявку,
// USDT считается как отдаем/курс.
func (b *Bot) handleOrderCreate(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user := b.requireUser(chatID, msg.From.ID)
	if user == nil {
		return
	}

	get, give, rate, ok := parseOrderArgs(commandArgs(msg.Text))
	if !ok {
		b.reply(chatID, "⚙️ Формат: /пр <получаем RUB> от <отдаем RUB>/<курс>\nПример: /пр 1500000 от 1480000/97,5")
		return
	}

	usdt := give.Div(rate).Round(2)
	order := &database.Order{
		UserID:        user.ID,
		ChatID:        chatID,
		RubGet:        get,
		RubGive:       give,
		Rate:          rate,
		UsdtAmount:    usdt,
		RemainingUsdt: usdt,
		Status:        database.OrderCreated,
	}
	if err := b.orders.Create(order); err != nil {
		b.log.Error("Ошибка создания заявки", zap.Error(err))
		b.reply(chatID, "❌ Не удалось создать заявку.")
		return
	}

	m := tgbotapi.NewMessage(chatID, orderCard(order))
	m.ParseMode = tgbotapi.ModeHTML
	sent, err := b.api.Send(m)
	if err != nil {
		b.log.Error("Ошибка отправки карточки заявки", zap.Error(err))
		return
	}
	// Привязываем карточку, чтобы /изм и /отпр могли ее редактировать.
	if err := b.orders.SetMessage(order.ID, chatID, sent.MessageID); err != nil {
		b.log.Error("Ошибка привязки сообщения заявки", zap.Error(err))
	}
}

// handleOrderUpdate — /изм <id> <получаем> от <отдаем>/<курс>. Только для
// админов: правит условия заявки и редактирует ее карточку.
func (b *Bot) handleOrderUpdate(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user := b.requireUser(chatID, msg.From.ID)
	if user == nil {
		return
	}
	if !isAdmin(user) {
		b.reply(chatID, "❌ Менять заявки могут только администраторы.")
		return
	}

	args := commandArgs(msg.Text)
	fields := strings.Fields(args)
	if len(fields) < 2 {
		b.reply(chatID, "⚙️ Формат: /изм <id> <получаем RUB> от <отдаем RUB>/<курс>")
		return
	}
	id, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		b.reply(chatID, "❌ Первый аргумент — номер заявки.")
		return
	}

	order, err := b.orders.GetByID(uint(id), chatID)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("❌ Заявки #%d в этом чате нет.", id))
		return
	}
	if err != nil {
		b.log.Error("Ошибка чтения заявки", zap.Error(err))
		b.reply(chatID, "❌ Не удалось найти заявку.")
		return
	}

	get, give, rate, ok := parseOrderArgs(strings.TrimSpace(strings.TrimPrefix(args, fields[0])))
	if !ok {
		b.reply(chatID, "⚙️ Формат: /изм <id> <получаем RUB> от <отдаем RUB>/<курс>")
		return
	}

	old := *order
	order.RubGet = get
	order.RubGive = give
	order.Rate = rate
	order.UsdtAmount = give.Div(rate).Round(2)
	recalcOrder(order)

	if err := b.orders.Update(order); err != nil {
		b.log.Error("Ошибка обновления заявки", zap.Error(err))
		b.reply(chatID, "❌ Не удалось обновить заявку.")
		return
	}

	b.editOrderCard(order)
	b.reply(chatID, fmt.Sprintf(
		"✏️ Заявка #%d изменена:\nБыло: %s от %s/%s\nСтало: %s от %s/%s",
		order.ID,
		old.RubGet.StringFixed(2), old.RubGive.StringFixed(2), old.Rate.String(),
		get.StringFixed(2), give.StringFixed(2), rate.String()))
}

// handleOrderSend — /отпр [id] <сумма USDT|пара сумма>: фиксирует отправку
// по заявке. Заявка ищется по номеру, по реплаю на карточку или берется
// последняя открытая. Сумма может прийти через конвертацию.
func (b *Bot) handleOrderSend(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user := b.requireUser(chatID, msg.From.ID)
	if user == nil {
		return
	}

	args := strings.TrimSpace(commandArgs(msg.Text))
	if args == "" {
		b.reply(chatID, "⚙️ Формат: /отпр [id] <сумма USDT>\nПримеры: /отпр 5000, /отпр 12 5000, реплаем на карточку: /отпр 5000")
		return
	}

	var order *database.Order
	var err error
	// "/отпр 12 5000" — первый аргумент может быть номером заявки.
	// Несуществующий номер — ошибка, а не откат к последней открытой:
	// иначе опечатка в номере проводит сумму по чужой заявке.
	if id, hasID, rest := splitSendArgs(args); hasID {
		order, err = b.orders.GetByID(uint(id), chatID)
		if errors.Is(err, database.ErrNotFound) {
			b.reply(chatID, fmt.Sprintf("❌ Заявки #%d в этом чате нет.", id))
			return
		}
		if err != nil {
			b.log.Error("Ошибка поиска заявки", zap.Error(err))
			b.reply(chatID, "❌ Не удалось найти заявку.")
			return
		}
		args = rest
	}
	if order == nil && msg.ReplyToMessage != nil {
		if o, getErr := b.orders.GetByMessage(chatID, msg.ReplyToMessage.MessageID); getErr == nil {
			order = o
		}
	}
	if order == nil {
		order, err = b.orders.LastOpen(user.ID, chatID)
		if errors.Is(err, database.ErrNotFound) {
			b.reply(chatID, "❌ Открытых заявок нет. Создай заявку: /пр")
			return
		}
		if err != nil {
			b.log.Error("Ошибка поиска заявки", zap.Error(err))
			b.reply(chatID, "❌ Не удалось найти заявку.")
			return
		}
	}
	if order.Status == database.OrderDone {
		b.reply(chatID, fmt.Sprintf("❌ Заявка #%d уже закрыта.", order.ID))
		return
	}

	amount, ok := b.resolveSendAmount(ctx, chatID, args)
	if !ok {
		return
	}
	if !amount.IsPositive() {
		b.reply(chatID, "❌ Сумма отправки должна быть больше нуля.")
		return
	}

	order.SentUsdt = order.SentUsdt.Add(amount).Round(2)
	recalcOrder(order)

	if err := b.orders.Update(order); err != nil {
		b.log.Error("Ошибка обновления заявки", zap.Error(err))
		b.reply(chatID, "❌ Не удалось сохранить отправку.")
		return
	}

	b.editOrderCard(order)

	text := fmt.Sprintf("📤 Заявка #%d: отправлено <code>%s</code> USDT, остаток <code>%s</code>.",
		order.ID, amount.StringFixed(2), order.RemainingUsdt.StringFixed(2))
	if order.Status == database.OrderDone {
		text = fmt.Sprintf("✅ Заявка #%d закрыта: отправлено <code>%s</code> USDT.",
			order.ID, order.SentUsdt.StringFixed(2))
	}
	b.reply(chatID, text)
}

// resolveSendAmount разбирает сумму отправки: число либо "пара сумма"
// с конвертацией через XE.
func (b *Bot) resolveSendAmount(ctx context.Context, chatID int64, args string) (decimal.Decimal, bool) {
	first := args[0]
	if first >= '0' && first <= '9' {
		s := strings.ReplaceAll(strings.ReplaceAll(args, " ", ""), ",", ".")
		d, err := decimal.NewFromString(s)
		if err != nil {
			b.reply(chatID, "❌ Не удалось разобрать сумму: "+args)
			return decimal.Zero, false
		}
		return d, true
	}

	req, ok := parsePairArgs(args)
	if !ok {
		b.reply(chatID, "❌ Не удалось разобрать сумму: "+args)
		return decimal.Zero, false
	}
	res, err := b.conv.ConvertXE(ctx, req)
	if err != nil {
		b.log.Error("Ошибка конвертации для отправки", zap.Error(err))
		b.reply(chatID, b.convErrorText(err, "XE.com"))
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(res.FinalAmount).Round(2), true
}

// editOrderCard перерисовывает привязанную карточку заявки, если она есть.
func (b *Bot) editOrderCard(o *database.Order) {
	if o.MessageID == 0 {
		return
	}
	edit := tgbotapi.NewEditMessageText(o.ChatID, o.MessageID, orderCard(o))
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(edit); err != nil {
		b.log.Warn("Не удалось отредактировать карточку заявки", zap.Error(err))
	}
}

// handleOrdersList — /заявки: список заявок чата плюс кнопки выгрузки.
func (b *Bot) handleOrdersList(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.requireUser(chatID, msg.From.ID) == nil {
		return
	}

	orders, err := b.orders.ListByChat(chatID, 0)
	if err != nil {
		b.log.Error("Ошибка чтения заявок", zap.Error(err))
		b.reply(chatID, "❌ Не удалось получить заявки.")
		return
	}
	if len(orders) == 0 {
		b.reply(chatID, "📭 Заявок в этом чате еще нет.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Заявки чата:\n")
	for _, o := range orders {
		sb.WriteString(fmt.Sprintf("#%d %s — %s RUB по %s, остаток %s USDT\n",
			o.ID, statusLabel(o.Status), o.RubGet.StringFixed(0),
			o.Rate.String(), o.RemainingUsdt.StringFixed(2)))
	}

	m := tgbotapi.NewMessage(chatID, sb.String())
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 Все XLSX", "orders_xls:all"),
			tgbotapi.NewInlineKeyboardButtonData("📥 Мои XLSX", "orders_xls:mine"),
		),
	)
	if _, err := b.api.Send(m); err != nil {
		b.log.Error("Ошибка отправки списка заявок", zap.Error(err))
	}
}

// handleCallback обрабатывает кнопки выгрузки отчетов.
func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.log.Debug("Ошибка ответа на callback", zap.Error(err))
		}
	}()

	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	user := b.requireUser(chatID, cb.From.ID)
	if user == nil {
		return
	}

	data := cb.Data
	switch {
	case data == "report_xls" || strings.HasPrefix(data, "report_xls:code:"):
		code := strings.TrimPrefix(data, "report_xls:code:")
		if code == data {
			code = ""
		}
		txs, err := b.wallets.ListTxs(user.ID, chatID, code)
		if err != nil {
			b.log.Error("Ошибка чтения проводок", zap.Error(err))
			b.reply(chatID, "❌ Не удалось собрать выписку.")
			return
		}
		file, name, err := report.WalletStatement(txs, code)
		if err != nil {
			b.log.Error("Ошибка формирования выписки", zap.Error(err))
			b.reply(chatID, "❌ Не удалось сформировать файл.")
			return
		}
		b.replyDocument(chatID, file, name)

	case data == "orders_xls:all" || data == "orders_xls:mine":
		userID := uint(0)
		all := data == "orders_xls:all"
		if all && !isAdmin(user) {
			b.reply(chatID, "⛔ Выгрузка всех заявок доступна только администраторам.")
			return
		}
		if !all {
			userID = user.ID
		}
		orders, err := b.orders.ListByChat(chatID, userID)
		if err != nil {
			b.log.Error("Ошибка чтения заявок", zap.Error(err))
			b.reply(chatID, "❌ Не удалось собрать отчет по заявкам.")
			return
		}
		file, name, err := report.Orders(orders, all)
		if err != nil {
			b.log.Error("Ошибка формирования отчета", zap.Error(err))
			b.reply(chatID, "❌ Не удалось сформировать файл.")
			return
		}
		b.replyDocument(chatID, file, name)
	}
}
