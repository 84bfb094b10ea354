package converter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"kursBot/internal/browser"
)

const (
	kursiURL = "https://kursi.ge/en/"
	// Метки "From"/"To" над полями виджета — единственный стабильный
	// ориентир в верстке, классы tailwind-утилит вокруг них меняются реже.
	kursiLabelSelector    = "span.text-gray-300.uppercase.text-sm.font-noto"
	kursiMenuItemSelector = `button[role="menuitem"]`
	kursiCookieButtonID   = "CybotCookiebotDialogBodyLevelButtonLevelOptinAllowAll"
	kursiCardXPath        = `xpath=//p[normalize-space(.)='Convert']/ancestor::div[contains(@class,'bg-primary-900')][1]`
)

// ConvertKursi конвертирует через kursi.ge. Сайт не принимает параметры в
// URL: валюты выбираются из кастомных выпадающих меню, сумма вводится в
// controlled-поле реактивного фреймворка, результат появляется в зависимом
// поле асинхронно. Шаги строго последовательны — каждый опирается на
// состояние страницы после предыдущего.
func (s *Service) ConvertKursi(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := s.mgr.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.mgr.Release(session)

	s.log.Info("Конвертация через kursi.ge",
		zap.String("base", req.Base), zap.String("quote", req.Quote),
		zap.Float64("amount", req.Amount))

	page, err := s.mgr.OpenPage(ctx, session, s.kursiURL, browser.DeviceDesktop)
	if err != nil {
		return nil, err
	}
	if err := s.mgr.WaitForWidget(page, kursiLabelSelector); err != nil {
		return nil, err
	}

	if dismissed := s.acceptCookies(page); dismissed {
		s.log.Debug("Баннер cookies закрыт")
	}

	if err := s.selectCurrency(ctx, page, "From", req.Base); err != nil {
		return nil, err
	}
	if err := s.selectCurrency(ctx, page, "To", req.Quote); err != nil {
		return nil, err
	}
	if err := s.setAmount(page, req.Amount); err != nil {
		return nil, err
	}

	// Таймаут поллинга не валит запрос: сайт может показать пригодный
	// скриншот, даже если подтвердить число не удалось. Деградация
	// помечается флагом Unconfirmed, а не проглатывается.
	unconfirmed := false
	if err := s.waitOutput(ctx, page); err != nil {
		s.log.Warn("Поле вывода не подтвердилось, снимаем что есть", zap.Error(err))
		unconfirmed = true
	}

	if dismissed := s.dismissPromo(page); dismissed {
		s.log.Debug("Рекламное окно закрыто")
	}

	shot := s.captureKursi(page)

	toValue := s.readOutput(page)
	converted := 0.0
	if toValue != "" {
		if n, err := Normalize(toValue); err == nil {
			converted = n
		} else {
			s.log.Error("Не удалось разобрать поле вывода", zap.String("raw", toValue))
		}
	}

	res := &Result{
		ConvertedAmount: converted,
		FinalAmount:     FinalAmount(converted, req),
		Caption:         kursiCaption(req, converted),
		Screenshot:      shot,
		Unconfirmed:     unconfirmed,
	}
	return res, nil
}

// acceptCookies закрывает баннер Cookiebot, если он есть. Возвращает факт
// закрытия; отсутствие баннера не считается ошибкой.
func (s *Service) acceptCookies(page playwright.Page) bool {
	page.WaitForTimeout(500)
	clicked, err := page.Evaluate(`(id) => {
		const btn = document.getElementById(id);
		if (!btn) return false;
		btn.scrollIntoView({ block: "center" });
		btn.click();
		return true;
	}`, kursiCookieButtonID)
	if err != nil {
		return false
	}
	if ok, _ := clicked.(bool); ok {
		page.WaitForTimeout(300)
		return true
	}
	return false
}

// selectCurrency открывает выпадающее меню по тексту метки и кликает пункт,
// содержащий код валюты. Поиск пункта — по подстроке без учета регистра:
// меню показывает код вместе с названием валюты.
func (s *Service) selectCurrency(ctx context.Context, page playwright.Page, side, code string) error {
	opened, err := page.Evaluate(`([sel, label]) => {
		const spans = Array.from(document.querySelectorAll(sel));
		const target = spans.find(
			(el) => (el.textContent || "").trim().toLowerCase() === label.toLowerCase()
		);
		if (!target) return false;
		const container = target.closest("div.relative");
		if (!container) return false;
		const btn = container.querySelector('button[aria-haspopup="menu"]');
		if (!btn) return false;
		btn.click();
		return true;
	}`, []interface{}{kursiLabelSelector, side})
	if err != nil {
		return fmt.Errorf("ошибка открытия меню %s: %w", side, err)
	}
	if ok, _ := opened.(bool); !ok {
		return &CurrencySelectionError{Side: side, Code: code}
	}

	// Пункты меню рендерятся порталом после клика.
	err = browser.PollUntil(ctx, 5*time.Second, 250*time.Millisecond, func() (bool, error) {
		visible, evalErr := page.Evaluate(`(sel) => document.querySelectorAll(sel).length > 0`,
			kursiMenuItemSelector)
		if evalErr != nil {
			return false, evalErr
		}
		ok, _ := visible.(bool)
		return ok, nil
	})
	if err != nil {
		return &CurrencySelectionError{Side: side, Code: code}
	}

	selected, err := page.Evaluate(`([sel, currency]) => {
		const items = Array.from(document.querySelectorAll(sel));
		const item = items.find(
			(b) => (b.textContent || "").toUpperCase().includes(currency.toUpperCase())
		);
		if (!item) return false;
		item.click();
		return true;
	}`, []interface{}{kursiMenuItemSelector, code})
	if err != nil {
		return fmt.Errorf("ошибка выбора валюты %s: %w", code, err)
	}
	if ok, _ := selected.(bool); !ok {
		return &CurrencySelectionError{Side: side, Code: code}
	}

	page.WaitForTimeout(200)
	return nil
}

// setAmount вводит сумму в controlled-поле. Простое присваивание value
// фреймворк молча перетирает, поэтому значение пишется через сеттер
// прототипа HTMLInputElement и закрепляется синтетическими событиями
// input/change — иначе пересчет не запускается. После установки значение
// перечитывается и сверяется: это самое хрупкое место экстрактора.
func (s *Service) setAmount(page playwright.Page, amount float64) error {
	raw, err := page.Evaluate(`([sel, value]) => {
		const spans = Array.from(document.querySelectorAll(sel));
		const fromSpan = spans.find((el) => (el.textContent || "").trim() === "From");
		if (!fromSpan) return { ok: false, reason: "label" };
		const container = fromSpan.closest("div.relative");
		if (!container) return { ok: false, reason: "container" };
		const input = container.querySelector('input[placeholder="0.00"]');
		if (!input) return { ok: false, reason: "input" };

		const nativeSetter = Object.getOwnPropertyDescriptor(
			window.HTMLInputElement.prototype, "value"
		)?.set;

		input.focus();
		input.click();
		if (nativeSetter) {
			nativeSetter.call(input, String(value));
		} else {
			input.value = String(value);
		}

		input.dispatchEvent(new Event("input", { bubbles: true, cancelable: true }));
		input.dispatchEvent(new Event("change", { bubbles: true, cancelable: true }));
		input.dispatchEvent(new InputEvent("input", {
			bubbles: true,
			cancelable: true,
			inputType: "insertText",
			data: String(value),
		}));
		input.blur();
		input.dispatchEvent(new Event("blur", { bubbles: true, cancelable: true }));

		return { ok: true, value: input.value };
	}`, []interface{}{kursiLabelSelector, amount})
	if err != nil {
		return fmt.Errorf("ошибка установки суммы: %w", err)
	}

	result, _ := raw.(map[string]interface{})
	if ok, _ := result["ok"].(bool); !ok {
		reason, _ := result["reason"].(string)
		return fmt.Errorf("поле суммы не найдено (%s)", reason)
	}

	// Проверяем, что значение действительно применилось.
	got, _ := result["value"].(string)
	if n, ok := ParseFlexibleNumber(got); !ok || math.Abs(n-amount) > 1e-6*math.Max(1, math.Abs(amount)) {
		return fmt.Errorf("значение %q в поле суммы не соответствует введенному %g", got, amount)
	}

	return nil
}

const kursiReadOutputJS = `(sel) => {
	const spans = Array.from(document.querySelectorAll(sel));
	const toSpan = spans.find((el) => (el.textContent || "").trim() === "To");
	if (!toSpan) return null;
	const container = toSpan.closest("div.relative");
	if (!container) return null;
	const input = container.querySelector('input[placeholder="0.00"]');
	return input ? input.value : null;
}`

// waitOutput поллит зависимое поле "To", пока там не появится строго
// положительное число.
func (s *Service) waitOutput(ctx context.Context, page playwright.Page) error {
	timeout, interval := s.mgr.PollBounds()
	return browser.PollUntil(ctx, timeout, interval, func() (bool, error) {
		value := s.readOutput(page)
		if value == "" {
			return false, nil
		}
		n, err := Normalize(value)
		if err != nil {
			return false, nil
		}
		return n > 0, nil
	})
}

func (s *Service) readOutput(page playwright.Page) string {
	raw, err := page.Evaluate(kursiReadOutputJS, kursiLabelSelector)
	if err != nil {
		return ""
	}
	value, _ := raw.(string)
	return value
}

// dismissPromo закрывает окно "Exchange currency and win!", если оно успело
// открыться. Возвращает факт закрытия, неудача не прерывает извлечение.
func (s *Service) dismissPromo(page playwright.Page) bool {
	page.WaitForTimeout(1000)
	clicked, err := page.Evaluate(`() => {
		const buttons = Array.from(document.querySelectorAll("button"));
		const btn = buttons.find((b) => {
			const t = (b.textContent || "").trim().toLowerCase();
			return t.includes("dont show again") || t.includes("don't show again");
		});
		if (!btn) return false;
		btn.click();
		return true;
	}`)
	if err != nil {
		return false
	}
	if ok, _ := clicked.(bool); ok {
		page.WaitForTimeout(500)
		return true
	}
	return false
}

// captureKursi снимает карточку Convert, предварительно выкинув из нее блок
// подсказок и кнопку Continue, чтобы на картинке остался только конвертер.
func (s *Service) captureKursi(page playwright.Page) []byte {
	card, err := page.QuerySelector(kursiCardXPath)
	if err != nil || card == nil {
		s.log.Warn("Карточка Convert не найдена")
		return nil
	}

	_, err = card.Evaluate(`(el) => {
		const cols = Array.from(el.querySelectorAll("div.flex.flex-col.gap-6"));
		for (const col of cols) {
			const hasContinue = Array.from(col.querySelectorAll("button"))
				.some((b) => (b.textContent || "").includes("Continue"));
			const hasSuggestions = !!col.querySelector("div.flex.gap-2.flex-wrap");
			if (hasContinue || hasSuggestions) col.remove();
		}
	}`)
	if err != nil {
		s.log.Warn("Не удалось убрать лишние блоки карточки", zap.Error(err))
	}
	page.WaitForTimeout(100)

	buf, err := card.Screenshot(playwright.ElementHandleScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		s.log.Warn("Скриншот kursi не получился", zap.Error(err))
		return nil
	}
	return buf
}

func kursiCaption(req Request, converted float64) string {
	caption := fmt.Sprintf("%s %s → %s", FormatRu(req.Amount, 2, 2), req.Base, req.Quote)
	if converted <= 0 || req.Amount <= 0 {
		return caption
	}

	rateB2Q := converted / req.Amount
	rateQ2B := 0.0
	if rateB2Q > 0 {
		rateQ2B = 1 / rateB2Q
	}

	caption += fmt.Sprintf("\n\n1 %s = %s%s", req.Base, FormatRu(rateB2Q, 6, 8), req.Quote)
	caption += fmt.Sprintf("\n1 %s = %s %s", req.Quote, FormatRu(rateQ2B, 6, 8), req.Base)
	caption += fmt.Sprintf("\n\n<code>%s</code>%s", FormatRu(converted, 2, 2), req.Quote)

	if req.Divisor > 0 {
		final := converted / req.Divisor
		caption += fmt.Sprintf("\n\n📊Rate adjustment:\n<code>%s / %s = %s</code>",
			FormatRu(converted, 2, 2),
			divisorRu(req.Divisor),
			FormatRu(final, 2, 2))
	}
	return caption
}
