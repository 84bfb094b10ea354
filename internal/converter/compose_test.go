package converter

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLeadingNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"1,149.2238 US Dollars", 1149.2238},
		{"52,975.918Kazakhstani Tenge", 52975.918},
		{"985.22", 985.22},
		{"1,000,000.5 что-то", 1000000.5},
		{" 3,691.40 ", 3691.40},
	}
	for _, tc := range cases {
		got, err := ParseLeadingNumber(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.InDelta(t, tc.want, got, 1e-9, tc.raw)
	}
}

func TestParseLeadingNumberUnparsable(t *testing.T) {
	for _, raw := range []string{"", "n/a", "Loading...", "— —"} {
		_, err := ParseLeadingNumber(raw)
		require.Error(t, err, raw)

		var perr *UnparsableResultError
		require.True(t, errors.As(err, &perr), raw)
		// Сырой текст сохраняется для диагностики
		assert.Equal(t, raw, perr.Raw)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"3,691.40", 3691.40},    // запятая как разделитель тысяч
		{"1 234,56", 1234.56},    // запятая как десятичный разделитель
		{"52975.918", 52975.918}, // без запятых
		{"0,5", 0.5},
		{"1 234,56", 1234.56}, // неразрывный пробел
	}
	for _, tc := range cases {
		got, err := Normalize(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.InDelta(t, tc.want, got, 1e-9, tc.raw)
	}

	_, err := Normalize("не число")
	assert.Error(t, err)
}

func TestFinalAmount(t *testing.T) {
	// Делитель
	got := FinalAmount(1000, Request{Divisor: 1.015})
	assert.InDelta(t, 985.2216748768473, got, 1e-9)

	// Процентная корректировка
	assert.InDelta(t, 1015, FinalAmount(1000, Request{Percent: 1.5}), 1e-9)
	assert.InDelta(t, 985, FinalAmount(1000, Request{Percent: -1.5}), 1e-9)

	// Делитель имеет приоритет над процентом
	got = FinalAmount(1000, Request{Divisor: 2, Percent: 50})
	assert.InDelta(t, 500, got, 1e-9)

	// Без постобработки результат не меняется
	assert.InDelta(t, 1234.5, FinalAmount(1234.5, Request{}), 1e-9)
}

func TestFormatRu(t *testing.T) {
	cases := []struct {
		n                float64
		minFrac, maxFrac int
		want             string
	}{
		{1234567.5, 2, 2, "1 234 567,50"},
		{1000, 0, 2, "1 000"},
		{985.2216748, 2, 2, "985,22"},
		{0.123456789, 2, 8, "0,12345679"},
		{100, 2, 8, "100,00"},
		{-1234.5, 0, 2, "-1 234,5"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatRu(tc.n, tc.minFrac, tc.maxFrac))
	}
}

func TestFormatApostrophe(t *testing.T) {
	assert.Equal(t, "1’234’567.89", FormatApostrophe(1234567.891, 2))
	assert.Equal(t, "999", FormatApostrophe(999, 0))
	assert.Equal(t, "-10’000.0000", FormatApostrophe(-10000, 4))
}

func TestParseFlexibleNumber(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"10000", 10000},
		{"1,015", 1.015},
		{"1 000 000", 1000000},
		{"0.5", 0.5},
	}
	for _, tc := range cases {
		got, ok := ParseFlexibleNumber(tc.input)
		assert.True(t, ok, tc.input)
		assert.InDelta(t, tc.want, got, 1e-9, tc.input)
	}

	_, ok := ParseFlexibleNumber("abc")
	assert.False(t, ok)
}

func TestRequestValidate(t *testing.T) {
	assert.NoError(t, Request{Base: "EUR", Quote: "USD", Amount: 1}.Validate())
	assert.Error(t, Request{Quote: "USD", Amount: 1}.Validate())
	assert.Error(t, Request{Base: "EUR", Amount: 1}.Validate())

	bad := Request{Base: "EUR", Quote: "USD", Amount: math.NaN()}
	assert.Error(t, bad.Validate())
}

func TestXeURL(t *testing.T) {
	u := xeURL(Request{Base: "EUR", Quote: "USD", Amount: 10000})
	assert.True(t, strings.HasPrefix(u, "https://www.xe.com/currencyconverter/convert/?"))
	assert.Contains(t, u, "Amount=10000")
	assert.Contains(t, u, "From=EUR")
	assert.Contains(t, u, "To=USD")
}

func TestXeCaption(t *testing.T) {
	req := Request{Base: "EUR", Quote: "USD", Amount: 10000, Divisor: 1.015}
	extracted := &ExtractedRate{
		ConvertedAmount: 11492.238,
		RateLines:       []string{"1 EUR = 1.14922 USD", "1 USD = 0.87015 EUR", "лишняя строка"},
	}
	caption := xeCaption(req, extracted)

	assert.Contains(t, caption, "10 000,00 EUR → USD")
	assert.Contains(t, caption, "XE Rate, ")
	assert.Contains(t, caption, "1 EUR = 1.14922 USD")
	assert.Contains(t, caption, "1 USD = 0.87015 EUR")
	// Используются максимум две строки курсов
	assert.NotContains(t, caption, "лишняя строка")
	assert.Contains(t, caption, "📊Расчет с делителем 1,015")
}

func TestKursiCaption(t *testing.T) {
	caption := kursiCaption(Request{Base: "GEL", Quote: "USD", Amount: 100}, 37.05)

	assert.Contains(t, caption, "100,00 GEL → USD")
	assert.Contains(t, caption, "1 GEL = 0,3705")
	assert.Contains(t, caption, "1 USD = 2,699055")
	assert.Contains(t, caption, "37,05")

	// Без подтвержденного результата — только заголовок
	bare := kursiCaption(Request{Base: "GEL", Quote: "USD", Amount: 100}, 0)
	assert.Equal(t, "100,00 GEL → USD", bare)
}

func TestKursiCaptionDivisor(t *testing.T) {
	caption := kursiCaption(Request{Base: "USD", Quote: "GEL", Amount: 1000, Divisor: 1.015}, 2699.05)
	assert.Contains(t, caption, "📊Rate adjustment:")
	assert.Contains(t, caption, "2 699,05 / 1,015 = 2 659,16")
}
