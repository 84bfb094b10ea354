package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kursBot/internal/browser"
	"kursBot/internal/calc"
	"kursBot/internal/converter"
)

var (
	// Блоки расширенного режима: "<пара> (выражение)" и "<пара> <число><операции...>"
	complexBlockRe = regexp.MustCompile(`(?i)([a-z]{3,10})\s*\(([^()]+)\)`)
	simpleBlockRe  = regexp.MustCompile(`(?i)([a-z]{3,10})\s+(\d+(?:\.\d+)?(?:[+\-*/]\d+(?:\.\d+)?)+)`)

	exprNormalizer = strings.NewReplacer(",", ".", "–", "-", "—", "-", "−", "-")
)

// convErrorText переводит ошибку конвертации в сообщение пользователю.
// Технические детали остаются в логе; пользователю — различимые категории:
// сайт недоступен, валюта не нашлась, верстка сменилась.
func (b *Bot) convErrorText(err error, site string) string {
	var selErr *converter.CurrencySelectionError
	if errors.As(err, &selErr) {
		return fmt.Sprintf("❌ Валюта %s не поддерживается на %s.", selErr.Code, site)
	}
	var notFound *browser.BrowserNotFoundError
	if errors.As(err, &notFound) {
		return "⚠️ Браузер не настроен на сервере, сообщите администратору."
	}
	return fmt.Sprintf("⚠️ Не удалось получить данные с %s.", site)
}

type exprSegment struct {
	full      string
	base      string
	quote     string
	amount    float64
	converted float64
}

// parseExprSegments выделяет блоки "<пара> (expr)" и "<пара> <число><ops>"
// из расширенного выражения и считает их суммы.
func parseExprSegments(exprPart string) ([]exprSegment, error) {
	var segments []exprSegment
	seen := map[string]bool{}

	add := func(pairRaw, innerExpr, full string) error {
		if seen[full] {
			return nil
		}
		amount, err := calc.Evaluate(innerExpr)
		if err != nil {
			return fmt.Errorf("не удалось вычислить выражение для суммы конвертации: %w", err)
		}
		base, quote, ok := parsePair(pairRaw)
		if !ok {
			return fmt.Errorf("неверная валютная пара: %s", pairRaw)
		}
		seen[full] = true
		segments = append(segments, exprSegment{
			full: full, base: base, quote: quote, amount: amount,
		})
		return nil
	}

	for _, m := range complexBlockRe.FindAllStringSubmatch(exprPart, -1) {
		if err := add(m[1], m[2], m[0]); err != nil {
			return nil, err
		}
	}
	for _, m := range simpleBlockRe.FindAllStringSubmatch(exprPart, -1) {
		if err := add(m[1], m[2], m[0]); err != nil {
			return nil, err
		}
	}
	return segments, nil
}

// handleRate — /курс: одна пара с суммой и делителем либо расширенное
// выражение с несколькими конвертациями внутри.
func (b *Bot) handleRate(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := commandArgs(msg.Text)
	if args == "" {
		b.reply(chatID, "⚙️ Формат: /курс <пара> [сумма] [/делитель]\nПримеры: /курс eurusd 100, /курс eurusd 10000/1,015")
		return
	}

	// Штатный формат разбирается первым: "eurusd 10000/1,015" — это
	// делитель, а не арифметика внутри выражения.
	req, ok := parsePairArgs(args)
	if !ok {
		exprPart := exprNormalizer.Replace(args)
		segments, err := parseExprSegments(exprPart)
		if err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		if len(segments) == 0 {
			b.reply(chatID, "⚙️ Формат: /курс <пара> [сумма] [/делитель]\nПримеры: /курс eurusd 100, /курс eurusd 10000/1,015")
			return
		}
		// Расширенный режим: каждую пару конвертируем отдельно, итог
		// считаем по собранному выражению.
		b.handleRateExpression(ctx, chatID, exprPart, segments)
		return
	}

	res, err := b.conv.ConvertXE(ctx, req)
	if err != nil {
		b.log.Error("Ошибка /курс", zap.Error(err))
		b.reply(chatID, b.convErrorText(err, "XE.com"))
		return
	}

	if res.Screenshot != nil {
		b.replyPhoto(chatID, res.Screenshot, res.Caption)
	} else {
		b.reply(chatID, res.Caption)
	}
}

func (b *Bot) handleRateExpression(ctx context.Context, chatID int64, exprPart string, segments []exprSegment) {
	for i := range segments {
		res, err := b.conv.ConvertXE(ctx, converter.Request{
			Base:   segments[i].base,
			Quote:  segments[i].quote,
			Amount: segments[i].amount,
		})
		if err != nil {
			b.log.Error("Ошибка конвертации сегмента", zap.Error(err))
			b.reply(chatID, b.convErrorText(err, "XE.com"))
			return
		}
		segments[i].converted = res.ConvertedAmount
	}

	exprForCalc := exprPart
	for _, seg := range segments {
		exprForCalc = strings.Replace(exprForCalc, seg.full,
			strconv.FormatFloat(seg.converted, 'f', -1, 64), 1)
	}

	final, err := calc.Evaluate(exprForCalc)
	if err != nil {
		b.reply(chatID, "❌ Не удалось вычислить итоговое выражение.")
		return
	}

	var lines []string
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf("%s %s → %s = %s",
			converter.FormatRu(seg.amount, 0, 6), seg.base, seg.quote,
			converter.FormatRu(seg.converted, 2, 6)))
	}

	displayExpr := strings.ReplaceAll(exprForCalc, " ", "")
	b.reply(chatID, fmt.Sprintf("<code>%s</code>\n\n<code>%s</code> = <code>%s</code>",
		strings.Join(lines, "\n"), displayExpr, converter.FormatRu(final, 0, 6)))
}

// kursiCalcInfo — разбор расширенного выражения /ккурс для подписи к фото.
type kursiCalcInfo struct {
	lines          []string
	exprDisplay    string
	finalFormatted string
}

// handleKursiRate — /ккурс через kursi.ge. Сайт заточен на одну пару за
// раз, поэтому в расширенном режиме допускается только одна пара: суммы
// сегментов складываются, итог идет штатным путем.
func (b *Bot) handleKursiRate(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := commandArgs(msg.Text)

	const usage = "⚙️ Формат: /ккурс <пара> [сумма][/делитель]\nПримеры: /ккурс gelusd 100, /ккурс gelusd 10000/1,015\nДопустимые валюты: EUR, GEL, USD, RUB"

	req, standardOk := parseKursiArgs(args)
	var calcInfo *kursiCalcInfo

	// Расширенный режим включается, только если стандартный формат не подошел.
	if !standardOk && args != "" {
		exprPart := exprNormalizer.Replace(args)
		segments, err := parseExprSegments(exprPart)
		if err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		if len(segments) == 0 {
			b.reply(chatID, usage)
			return
		}

		base, quote := segments[0].base, segments[0].quote
		total := 0.0
		for _, seg := range segments {
			if seg.base != base || seg.quote != quote {
				b.reply(chatID, "❌ Для /ккурс в одном выражении должна использоваться одна и та же валютная пара.")
				return
			}
			total += seg.amount
		}
		if !kursiAllowed[base] || !kursiAllowed[quote] {
			b.reply(chatID, usage)
			return
		}

		exprForCalc := exprPart
		var lines []string
		for _, seg := range segments {
			exprForCalc = strings.Replace(exprForCalc, seg.full,
				strconv.FormatFloat(seg.amount, 'f', -1, 64), 1)
			lines = append(lines, fmt.Sprintf("%s %s → %s",
				converter.FormatRu(seg.amount, 0, 6), seg.base, seg.quote))
		}
		final, err := calc.Evaluate(exprForCalc)
		if err != nil {
			b.reply(chatID, "❌ Не удалось вычислить выражение.")
			return
		}

		req = converter.Request{Base: base, Quote: quote, Amount: total}
		calcInfo = &kursiCalcInfo{
			lines:          lines,
			exprDisplay:    strings.ReplaceAll(exprForCalc, " ", ""),
			finalFormatted: converter.FormatRu(final, 0, 6),
		}
	} else if !standardOk {
		b.reply(chatID, usage)
		return
	}

	res, err := b.conv.ConvertKursi(ctx, req)
	if err != nil {
		b.log.Error("Ошибка /ккурс", zap.Error(err))
		b.reply(chatID, b.convErrorText(err, "kursi.ge"))
		return
	}

	caption := res.Caption
	if calcInfo != nil {
		caption += fmt.Sprintf("\n\n<code>%s</code>\n\n<code>%s</code> = <code>%s</code>",
			strings.Join(calcInfo.lines, "\n"), calcInfo.exprDisplay, calcInfo.finalFormatted)
	}
	if res.Unconfirmed {
		caption += "\n\n⚠️ Значение не подтвердилось, проверьте скриншот."
	}

	if res.Screenshot != nil {
		b.replyPhoto(chatID, res.Screenshot, caption)
	} else {
		b.reply(chatID, caption)
	}
}

var calcCurrencyRe = regexp.MustCompile(`(?i)^([a-z]{3,10})\s+(\d+(?:[.,]\d+)?)\s*([+\-*/][\d.,+\-*/()\s]+)$`)

// handleCalc — /калк и команды-выражения вида /123+123*2. Помимо чистой
// арифметики поддерживает форматы с конвертацией: "<пара> <сумма><ops>"
// и "<пара> <сумма>/<делитель>".
func (b *Bot) handleCalc(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	var args string
	if strings.HasPrefix(text, "/калк") {
		args = commandArgs(text)
	} else {
		// Прямой формат: /<выражение>
		args = strings.TrimPrefix(text, "/")
	}
	if args == "" {
		b.reply(chatID, "⚙️ Форматы:\n• /калк <выражение> или /<выражение>\n• /калк <пара> <сумма><операция><число> (например: /калк usdkzt 1000-117000)\n• /калк <пара> <сумма>/<делитель> (например: /калк eurusd 10000/1,015)\nПримеры: /калк 500000/0.994-300*924, /123+123*2")
		return
	}

	// "<пара> <сумма><операции>" — конвертируем сумму, затем применяем выражение
	if m := calcCurrencyRe.FindStringSubmatch(args); m != nil {
		base, quote, ok := parsePair(m[1])
		if ok {
			amount, _ := converter.ParseFlexibleNumber(m[2])
			b.handleCalcWithConversion(ctx, chatID, base, quote, amount, m[3])
			return
		}
	}

	// "<пара> <сумма>/<делитель>" — если начинается не с числа
	if args != "" && !(args[0] >= '0' && args[0] <= '9') {
		if req, ok := parsePairArgs(args); ok {
			b.handleCalcConversion(ctx, chatID, req)
			return
		}
	}

	normalized := exprNormalizer.Replace(args)
	result, err := calc.Evaluate(normalized)
	if err != nil {
		b.log.Debug("Ошибка /калк", zap.Error(err))
		b.reply(chatID, "❌ Не удалось вычислить выражение.")
		return
	}

	displayExpr := strings.ReplaceAll(normalized, " ", "")
	b.reply(chatID, fmt.Sprintf("<code>%s</code> = <code>%s</code>",
		displayExpr, converter.FormatRu(result, 0, 6)))
}

func (b *Bot) handleCalcWithConversion(ctx context.Context, chatID int64, base, quote string, amount float64, mathExpr string) {
	res, err := b.conv.ConvertXE(ctx, converter.Request{Base: base, Quote: quote, Amount: amount})
	if err != nil {
		b.log.Error("Ошибка /калк с конвертацией", zap.Error(err))
		b.reply(chatID, b.convErrorText(err, "XE.com"))
		return
	}

	normExpr := exprNormalizer.Replace(strings.TrimSpace(mathExpr))
	final, err := calc.Evaluate(strconv.FormatFloat(res.ConvertedAmount, 'f', -1, 64) + normExpr)
	if err != nil {
		b.reply(chatID, "❌ Не удалось вычислить выражение.")
		return
	}

	b.reply(chatID, fmt.Sprintf(
		"<code>%s %s → %s = %s</code>\n<code>%s %s = %s</code>",
		converter.FormatRu(amount, 0, 6), base, quote,
		converter.FormatRu(res.ConvertedAmount, 2, 2),
		converter.FormatRu(res.ConvertedAmount, 2, 2),
		strings.ReplaceAll(normExpr, " ", ""),
		converter.FormatRu(final, 0, 6)))
}

func (b *Bot) handleCalcConversion(ctx context.Context, chatID int64, req converter.Request) {
	res, err := b.conv.ConvertXE(ctx, req)
	if err != nil {
		b.log.Error("Ошибка /калк с конвертацией", zap.Error(err))
		b.reply(chatID, b.convErrorText(err, "XE.com"))
		return
	}

	message := fmt.Sprintf("%s %s → %s = %.2f",
		converter.FormatRu(req.Amount, 0, 6), req.Base, req.Quote, res.ConvertedAmount)
	if req.Divisor > 0 {
		message += fmt.Sprintf("\n%.2f / %s = %.2f",
			res.ConvertedAmount, divisorDisplay(req.Divisor), res.FinalAmount)
	}
	b.reply(chatID, "<code>"+message+"</code>")
}

func divisorDisplay(d float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(d, 'f', -1, 64), ".", ",")
}
