package converter

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"kursBot/internal/browser"
)

const (
	xeBaseURL        = "https://www.xe.com/currencyconverter/convert/"
	xeWidgetSelector = `div[data-testid="conversion"]`
	// Селекторы классов генерируются styled-components и периодически
	// меняются при редеплое xe.com. TODO: перейти на data-testid,
	// когда xe проставит его на блок результата.
	xeResultSelector = "p.sc-c5062ab2-1.jKDFIr"
	xeRatesSelector  = "div.sc-98b4ec47-0.jnAVFH"
	xeCardSelector   = "div.relative.bg-gradient-to-l.from-blue-850.to-blue-700"
	xeInputFallback  = `fieldset:last-of-type input[aria-label="Receiving amount"]`
)

func xeURL(req Request) string {
	q := url.Values{}
	q.Set("Amount", fmt.Sprintf("%g", req.Amount))
	q.Set("From", req.Base)
	q.Set("To", req.Quote)
	return xeBaseURL + "?" + q.Encode()
}

// ConvertXE конвертирует через форму xe.com. Сайт пересчитывает результат
// по URL-параметрам, ввод в поля не нужен: достаточно открыть страницу,
// дождаться виджета и прочитать готовый текст.
func (s *Service) ConvertXE(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := s.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.mgr.Release(session)

	target := xeURL(req)
	s.log.Info("Конвертация через xe.com",
		zap.String("base", req.Base), zap.String("quote", req.Quote),
		zap.Float64("amount", req.Amount))

	page, err := s.mgr.OpenPage(ctx, session, target, browser.DeviceIPhone)
	if err != nil {
		return nil, err
	}
	if err := s.mgr.WaitForWidget(page, xeWidgetSelector); err != nil {
		return nil, err
	}

	extracted, err := s.extractXE(page)
	if err != nil {
		return nil, err
	}

	shot := s.captureXE(page)

	res := &Result{
		ConvertedAmount: extracted.ConvertedAmount,
		FinalAmount:     FinalAmount(extracted.ConvertedAmount, req),
		Caption:         xeCaption(req, extracted),
		Screenshot:      shot,
	}
	return res, nil
}

func (s *Service) extractXE(page playwright.Page) (*ExtractedRate, error) {
	raw, err := page.Evaluate(`(sel) => {
		const el = document.querySelector(sel);
		if (!el) return null;
		return (el.textContent || "").trim() || null;
	}`, xeResultSelector)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения результата: %w", err)
	}

	text, _ := raw.(string)
	if text == "" {
		// Верстка результата иногда меняется; поле вывода формы стабильнее.
		raw, err = page.Evaluate(`(sel) => {
			const input = document.querySelector(sel);
			return input && input.value ? input.value.trim() : null;
		}`, xeInputFallback)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения поля вывода: %w", err)
		}
		text, _ = raw.(string)
	}
	if text == "" {
		return nil, &UnparsableResultError{Raw: ""}
	}

	amount, err := ParseLeadingNumber(text)
	if err != nil {
		s.log.Error("Не удалось разобрать результат xe", zap.String("raw", text))
		return nil, err
	}

	return &ExtractedRate{
		ConvertedText:   text,
		ConvertedAmount: amount,
		RateLines:       s.xeRateLines(page),
	}, nil
}

// xeRateLines собирает человекочитаемые строки курса рядом с результатом.
// Их отсутствие не ошибка.
func (s *Service) xeRateLines(page playwright.Page) []string {
	raw, err := page.Evaluate(`(sel) => {
		const el = document.querySelector(sel);
		if (!el) return [];
		const out = [];
		el.querySelectorAll("p").forEach((p) => {
			const t = (p.textContent || "").trim();
			if (t) out.push(t);
		});
		return out;
	}`, xeRatesSelector)
	if err != nil {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		if t, ok := it.(string); ok && t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

func (s *Service) captureXE(page playwright.Page) []byte {
	card, err := page.QuerySelector(xeCardSelector)
	if err != nil || card == nil {
		return nil
	}
	buf, err := card.Screenshot(playwright.ElementHandleScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		s.log.Warn("Скриншот xe не получился", zap.Error(err))
		return nil
	}
	return buf
}

func xeCaption(req Request, extracted *ExtractedRate) string {
	now := time.Now().UTC()
	dateStr := fmt.Sprintf("%02d-%02d-%04d", now.Day(), int(now.Month()), now.Year())

	caption := fmt.Sprintf("%s %s → %s\n\n", FormatRu(req.Amount, 2, 2), req.Base, req.Quote)
	caption += fmt.Sprintf("XE Rate, %s\n", dateStr)
	for i, line := range extracted.RateLines {
		if i == 2 {
			break
		}
		caption += line + "\n"
	}
	caption += fmt.Sprintf("\n<code>%s</code> %s", FormatRu(extracted.ConvertedAmount, 2, 8), req.Quote)

	if req.Divisor > 0 {
		final := extracted.ConvertedAmount / req.Divisor
		caption += fmt.Sprintf("\n\n📊Расчет с делителем %s:\n<code>%.2f / %s = %s</code>",
			divisorRu(req.Divisor),
			extracted.ConvertedAmount,
			divisorRu(req.Divisor),
			FormatRu(final, 2, 2))
	}
	return caption
}

func divisorRu(d float64) string {
	return FormatRu(d, 0, 6)
}
