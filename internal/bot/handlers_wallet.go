package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kursBot/internal/calc"
	"kursBot/internal/converter"
	"kursBot/internal/database"
)

var walletCodeRe = regexp.MustCompile(`^[\p{L}]{2,8}$`)

// handleWalletAdd — /добавь <код> [точность]: заводит счет в чате либо
// меняет точность существующего.
func (b *Bot) handleWalletAdd(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user := b.requireUser(chatID, msg.From.ID)
	if user == nil {
		return
	}

	fields := strings.Fields(commandArgs(msg.Text))
	if len(fields) == 0 {
		b.reply(chatID, "⚙️ Формат: /добавь <код> [точность]\nПример: /добавь uah 2")
		return
	}

	code := strings.ToUpper(fields[0])
	if !walletCodeRe.MatchString(code) {
		b.reply(chatID, "❌ Код счета — от 2 до 8 букв, например uah или btc.")
		return
	}

	precision := 2
	if len(fields) > 1 {
		p, err := strconv.Atoi(fields[1])
		if err != nil || p < 0 || p > 8 {
			b.reply(chatID, "❌ Точность — целое число от 0 до 8.")
			return
		}
		precision = p
	}

	existing, err := b.wallets.GetByChatAndCode(chatID, code)
	if err == nil {
		if err := b.wallets.UpdatePrecision(existing.ID, precision); err != nil {
			b.log.Error("Ошибка обновления счета", zap.Error(err))
			b.reply(chatID, "❌ Не удалось обновить счет.")
			return
		}
		b.reply(chatID, fmt.Sprintf("✅ Счет %s уже есть, точность обновлена: %d.", code, precision))
		return
	}
	if !errors.Is(err, database.ErrNotFound) {
		b.log.Error("Ошибка чтения счета", zap.Error(err))
		b.reply(chatID, "❌ Не удалось проверить счет.")
		return
	}

	w := &database.Wallet{UserID: user.ID, ChatID: chatID, Code: code, Precision: precision}
	if err := b.wallets.Create(w); err != nil {
		b.log.Error("Ошибка создания счета", zap.Error(err))
		b.reply(chatID, "❌ Не удалось создать счет.")
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Счет %s создан (точность %d). Пополнение: /%s <сумма>.",
		code, precision, strings.ToLower(code)))
}

// handleWalletRemove — /удали <код>: удаляет счет чата, только если его
// баланс нулевой. Историю с деньгами молча выбрасывать нельзя.
func (b *Bot) handleWalletRemove(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.requireUser(chatID, msg.From.ID) == nil {
		return
	}

	fields := strings.Fields(commandArgs(msg.Text))
	if len(fields) == 0 {
		b.reply(chatID, "⚙️ Формат: /удали <код>")
		return
	}
	code := strings.ToUpper(fields[0])

	w, err := b.wallets.GetByChatAndCode(chatID, code)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("❌ Счета %s в этом чате нет.", code))
		return
	}
	if err != nil {
		b.log.Error("Ошибка чтения счета", zap.Error(err))
		b.reply(chatID, "❌ Не удалось проверить счет.")
		return
	}

	balance, err := b.wallets.ChatBalance(chatID, code)
	if err != nil {
		b.log.Error("Ошибка подсчета баланса", zap.Error(err))
		b.reply(chatID, "❌ Не удалось посчитать баланс счета.")
		return
	}
	if !balance.IsZero() {
		b.reply(chatID, fmt.Sprintf("❌ На счете %s есть остаток: %s. Сначала обнули его (/%s -%s).",
			code, formatDecimal(balance, w.Precision), strings.ToLower(code), balance.String()))
		return
	}

	if err := b.wallets.Delete(w); err != nil {
		b.log.Error("Ошибка удаления счета", zap.Error(err))
		b.reply(chatID, "❌ Не удалось удалить счет.")
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Счет %s удален.", code))
}

// balanceCodes возвращает коды счетов для вывода: с фильтром по коду —
// только его (пусто, если счета нет), иначе все по алфавиту; UAH
// показывается всегда, даже по нулям.
func balanceCodes(balances map[string]decimal.Decimal, only string) []string {
	if only != "" {
		if _, ok := balances[only]; !ok {
			return nil
		}
		return []string{only}
	}
	if _, ok := balances["UAH"]; !ok {
		balances["UAH"] = decimal.Zero
	}
	codes := make([]string, 0, len(balances))
	for code := range balances {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// handleBalanceShow — /дай [код]: балансы пользователя по счетам чата
// плюс кнопки выгрузки выписок в XLSX.
func (b *Bot) handleBalanceShow(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user := b.requireUser(chatID, msg.From.ID)
	if user == nil {
		return
	}

	only := strings.ToUpper(strings.TrimSpace(commandArgs(msg.Text)))

	balances, err := b.wallets.UserBalances(user.ID, chatID)
	if err != nil {
		b.log.Error("Ошибка подсчета балансов", zap.Error(err))
		b.reply(chatID, "❌ Не удалось посчитать балансы.")
		return
	}

	precisions := map[string]int{}
	if ws, err := b.wallets.ListByChat(chatID); err == nil {
		for _, w := range ws {
			precisions[w.Code] = w.Precision
		}
	}

	codes := balanceCodes(balances, only)
	if len(codes) == 0 {
		b.reply(chatID, fmt.Sprintf("❌ Движений по счету %s у тебя нет.", only))
		return
	}

	var sb strings.Builder
	sb.WriteString("💰 Твои балансы:\n")
	for _, code := range codes {
		precision, ok := precisions[code]
		if !ok {
			precision = 2
		}
		sb.WriteString(fmt.Sprintf("%s: <code>%s</code>\n",
			code, formatDecimal(balances[code], precision)))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if only == "" {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("📥 Выписка XLSX", "report_xls"),
		})
	}
	for _, code := range codes {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("📥 "+code, "report_xls:code:"+code),
		})
	}

	m := tgbotapi.NewMessage(chatID, sb.String())
	m.ParseMode = tgbotapi.ModeHTML
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(m); err != nil {
		b.log.Error("Ошибка отправки балансов", zap.Error(err))
	}
}

// handleWalletAdjust — /<код> <выражение>: проводка по счету. Сумма —
// арифметическое выражение либо конвертация ("/uah eurusd 100" зачислит
// результат конвертации).
func (b *Bot) handleWalletAdjust(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user := b.requireUser(chatID, msg.From.ID)
	if user == nil {
		return
	}

	fields := strings.Fields(strings.TrimSpace(msg.Text))
	code := strings.ToUpper(strings.TrimPrefix(fields[0], "/"))
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msg.Text), fields[0]))

	w, err := b.wallets.GetByChatAndCode(chatID, code)
	if errors.Is(err, database.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("❌ Счета %s нет. Создай его: /добавь %s", code, strings.ToLower(code)))
		return
	}
	if err != nil {
		b.log.Error("Ошибка чтения счета", zap.Error(err))
		b.reply(chatID, "❌ Не удалось проверить счет.")
		return
	}

	// Без аргументов — просто баланс счета.
	if rest == "" {
		balance, err := b.wallets.ChatBalance(chatID, code)
		if err != nil {
			b.log.Error("Ошибка подсчета баланса", zap.Error(err))
			b.reply(chatID, "❌ Не удалось посчитать баланс.")
			return
		}
		b.reply(chatID, fmt.Sprintf("%s: <code>%s</code>", code, formatDecimal(balance, w.Precision)))
		return
	}

	var amount float64
	first := rest[0]
	if (first >= '0' && first <= '9') || first == '+' || first == '-' || first == '(' {
		amount, err = calc.Evaluate(exprNormalizer.Replace(rest))
		if err != nil {
			b.reply(chatID, "❌ Не удалось вычислить сумму: "+rest)
			return
		}
	} else {
		// Сумма через конвертацию: /uah eurusd 100
		req, ok := parsePairArgs(rest)
		if !ok {
			b.reply(chatID, "⚙️ Формат: /"+strings.ToLower(code)+" <сумма|выражение|пара сумма>")
			return
		}
		res, convErr := b.conv.ConvertXE(ctx, req)
		if convErr != nil {
			b.log.Error("Ошибка конвертации для проводки", zap.Error(convErr))
			b.reply(chatID, b.convErrorText(convErr, "XE.com"))
			return
		}
		amount = res.FinalAmount
	}

	tx := &database.WalletTx{
		UserID:  user.ID,
		ChatID:  chatID,
		Code:    code,
		Amount:  decimal.NewFromFloat(amount).Round(8),
		Comment: rest,
	}
	if err := b.wallets.AddTx(tx); err != nil {
		b.log.Error("Ошибка записи проводки", zap.Error(err))
		b.reply(chatID, "❌ Не удалось записать проводку.")
		return
	}

	balance, err := b.wallets.ChatBalance(chatID, code)
	if err != nil {
		b.log.Error("Ошибка подсчета баланса", zap.Error(err))
		b.reply(chatID, "✅ Проводка записана.")
		return
	}

	sign := "+"
	if amount < 0 {
		sign = ""
	}
	b.reply(chatID, fmt.Sprintf("✅ %s%s %s\nБаланс %s: <code>%s</code>",
		sign, converter.FormatRu(amount, 0, w.Precision), code,
		code, formatDecimal(balance, w.Precision)))
}

// formatDecimal выводит decimal с апострофами-разрядами: 1'234.56.
func formatDecimal(d decimal.Decimal, precision int) string {
	f, _ := d.Float64()
	return converter.FormatApostrophe(f, precision)
}
