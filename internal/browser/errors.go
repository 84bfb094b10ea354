package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BrowserNotFoundError — исполняемый файл браузера не найден ни по одному
// из проверенных путей. Checked хранит пути для диагностики.
type BrowserNotFoundError struct {
	Checked []string
}

func (e *BrowserNotFoundError) Error() string {
	return fmt.Sprintf("браузер не найден; проверены пути: %s", strings.Join(e.Checked, ", "))
}

// BrowserLaunchError — исполняемый файл найден, но процесс не запустился
// (нет прав, проблемы песочницы и т.п.).
type BrowserLaunchError struct {
	Path string
	Err  error
}

func (e *BrowserLaunchError) Error() string {
	return fmt.Sprintf("не удалось запустить браузер %s: %v", e.Path, e.Err)
}

func (e *BrowserLaunchError) Unwrap() error { return e.Err }

// NavigationTimeoutError — страница не загрузилась до networkidle за отведенное время.
type NavigationTimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavigationTimeoutError) Error() string {
	return fmt.Sprintf("навигация на %s не завершилась за %v", e.URL, e.Timeout)
}

func (e *NavigationTimeoutError) Unwrap() error { return e.Err }

// WidgetNotReadyError — страница загрузилась, но виджет конвертера не появился.
// Отличает "сайт недоступен" от "сайт сменил верстку".
type WidgetNotReadyError struct {
	Selector string
	Err      error
}

func (e *WidgetNotReadyError) Error() string {
	return fmt.Sprintf("виджет конвертера не появился (селектор %s)", e.Selector)
}

func (e *WidgetNotReadyError) Unwrap() error { return e.Err }

// ErrPollTimeout возвращается PollUntil, если условие не выполнилось за отведенное время.
var ErrPollTimeout = errors.New("условие не выполнилось за отведенное время")
