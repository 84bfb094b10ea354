// Package converter получает курс валют через UI сторонних сайтов-конвертеров:
// по URL-параметрам (xe.com, мобильная версия) и через выпадающие меню
// (kursi.ge, десктопная версия). Возвращает число, подпись и скриншот виджета.
package converter

import (
	"fmt"
	"math"

	"kursBot/internal/browser"
	"kursBot/internal/logger"
)

// Request — один запрос конвертации. Неизменяем, живет в рамках одного вызова.
type Request struct {
	Base   string  // Код исходной валюты (EUR, USDT и т.п.)
	Quote  string  // Код целевой валюты
	Amount float64 // Конвертируемая сумма
	// Divisor > 0 — после конвертации результат делится на него.
	Divisor float64
	// Percent != 0 — корректировка результата на знаковый процент
	// (+1.5 прибавляет полтора процента, -1.5 вычитает).
	Percent float64
}

// Validate проверяет запрос до запуска браузера: невалидный ввод не должен
// стоить нам процесса chromium.
func (r Request) Validate() error {
	if r.Base == "" {
		return fmt.Errorf("не указана исходная валюта")
	}
	if r.Quote == "" {
		return fmt.Errorf("не указана целевая валюта")
	}
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		return fmt.Errorf("сумма не является конечным числом")
	}
	return nil
}

// ExtractedRate — сырой результат скрейпинга до нормализации.
type ExtractedRate struct {
	ConvertedText   string
	ConvertedAmount float64
	RateLines       []string
}

// Result — итог конвертации.
type Result struct {
	ConvertedAmount float64
	FinalAmount     float64 // После делителя или процентной корректировки
	Caption         string
	Screenshot      []byte // nil, если снимок не получился
	// Unconfirmed выставляется, когда поле вывода так и не показало
	// положительное значение за время поллинга: скриншот может быть
	// пригодным, но численно результат не подтвержден.
	Unconfirmed bool
}

// CurrencySelectionError — валюта не нашлась в меню сайта: либо код не
// поддерживается, либо сайт сменил верстку. Различимо с сетевыми ошибками.
type CurrencySelectionError struct {
	Side string // "From" или "To"
	Code string
}

func (e *CurrencySelectionError) Error() string {
	return fmt.Sprintf("валюта %s не найдена в меню %q", e.Code, e.Side)
}

// UnparsableResultError — считанный текст не начинается с числа.
// Сырой текст сохраняется для диагностики смены верстки.
type UnparsableResultError struct {
	Raw string
}

func (e *UnparsableResultError) Error() string {
	return fmt.Sprintf("не удалось разобрать число из текста %q", e.Raw)
}

// Service выполняет конвертации, арендуя по одной браузерной сессии на запрос.
type Service struct {
	mgr *browser.Manager
	log *logger.Zap

	kursiURL string
}

func NewService(mgr *browser.Manager, log *logger.Zap) *Service {
	return &Service{mgr: mgr, log: log, kursiURL: kursiURL}
}
