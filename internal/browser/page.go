package browser

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Device описывает эмуляцию устройства для страницы: размеры вьюпорта,
// плотность пикселей и user-agent. Мобильная или десктопная версия
// выбирается под конкретный сайт-конвертер.
type Device struct {
	Width     int
	Height    int
	Scale     float64
	UserAgent string
	Mobile    bool
}

var (
	// DeviceIPhone — мобильная версия сайта (xe.com отдает компактный виджет).
	DeviceIPhone = Device{
		Width:     390,
		Height:    844,
		Scale:     2,
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		Mobile:    true,
	}

	// DeviceDesktop — ПК-версия (kursi.ge показывает выпадающие меню только на десктопе).
	DeviceDesktop = Device{
		Width:     1920,
		Height:    1080,
		Scale:     2,
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		Mobile:    false,
	}
)

// OpenPage открывает страницу в отдельном контексте с эмуляцией устройства
// и ждет networkidle. На превышении таймаута — NavigationTimeoutError.
func (m *Manager) OpenPage(ctx context.Context, s *Session, url string, device Device) (playwright.Page, error) {
	bctx, err := s.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  device.Width,
			Height: device.Height,
		},
		DeviceScaleFactor: playwright.Float(device.Scale),
		UserAgent:         playwright.String(device.UserAgent),
		IsMobile:          playwright.Bool(device.Mobile),
	})
	if err != nil {
		return nil, &BrowserLaunchError{Err: err}
	}

	page, err := bctx.NewPage()
	if err != nil {
		return nil, &BrowserLaunchError{Err: err}
	}

	navCtx, cancel := context.WithTimeout(ctx, m.cfg.NavigateTimeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateNetworkidle,
			Timeout:   playwright.Float(float64(m.cfg.NavigateTimeout.Milliseconds())),
		})
		errChan <- err
	}()

	select {
	case <-navCtx.Done():
		return nil, &NavigationTimeoutError{URL: url, Timeout: m.cfg.NavigateTimeout}
	case err := <-errChan:
		if err != nil {
			return nil, &NavigationTimeoutError{URL: url, Timeout: m.cfg.NavigateTimeout, Err: err}
		}
	}

	return page, nil
}

// WaitForWidget ждет маркерный элемент виджета конвертера, затем выдерживает
// короткую фиксированную паузу. Пауза — осознанная эвристика: клиентский
// фреймворк дорендеривает поля уже после появления маркера, точного сигнала
// готовности у третьесторонней страницы нет.
func (m *Manager) WaitForWidget(page playwright.Page, selector string) error {
	_, err := page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(m.cfg.WidgetTimeout.Milliseconds())),
	})
	if err != nil {
		return &WidgetNotReadyError{Selector: selector, Err: err}
	}

	page.WaitForTimeout(float64(m.cfg.SettleDelay.Milliseconds()))
	return nil
}

// PollBounds отдает границы поллинга зависимого поля вывода.
func (m *Manager) PollBounds() (timeout, interval time.Duration) {
	return m.cfg.OutputTimeout, m.cfg.OutputInterval
}
