package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	cases := []struct {
		in          string
		base, quote string
	}{
		{"eurusd", "EUR", "USD"},
		{"EURUSD", "EUR", "USD"},
		{"eur/usd", "EUR", "USD"},
		{"usdkzt", "USD", "KZT"},
		{"tonusdt", "TON", "USDT"},
		{"btcusdt", "BTC", "USDT"},
		{"rubtry", "RUB", "TRY"},
	}
	for _, tc := range cases {
		base, quote, ok := parsePair(tc.in)
		require.True(t, ok, tc.in)
		assert.Equal(t, tc.base, base, tc.in)
		assert.Equal(t, tc.quote, quote, tc.in)
	}

	for _, bad := range []string{"eur", "usd", "ab"} {
		_, _, ok := parsePair(bad)
		assert.False(t, ok, bad)
	}
}

func TestParsePairArgs(t *testing.T) {
	req, ok := parsePairArgs("eurusd")
	require.True(t, ok)
	assert.Equal(t, "EUR", req.Base)
	assert.Equal(t, "USD", req.Quote)
	assert.Equal(t, 1.0, req.Amount) // сумма по умолчанию
	assert.Equal(t, 0.0, req.Divisor)

	req, ok = parsePairArgs("eurusd 100")
	require.True(t, ok)
	assert.Equal(t, 100.0, req.Amount)

	req, ok = parsePairArgs("eurusd 10000/1,015")
	require.True(t, ok)
	assert.Equal(t, 10000.0, req.Amount)
	assert.InDelta(t, 1.015, req.Divisor, 1e-9)

	req, ok = parsePairArgs("usdkzt 1 000")
	// Сумма с пробелом не влезает в формат — но пара должна распознаться
	_ = req
	assert.False(t, ok)

	_, ok = parsePairArgs("")
	assert.False(t, ok)
}

func TestParseKursiArgs(t *testing.T) {
	req, ok := parseKursiArgs("gelusd 100")
	require.True(t, ok)
	assert.Equal(t, "GEL", req.Base)
	assert.Equal(t, "USD", req.Quote)

	// Валюта вне меню kursi.ge
	_, ok = parseKursiArgs("eurkzt 100")
	assert.False(t, ok)

	_, ok = parseKursiArgs("btcusdt")
	assert.False(t, ok)
}

func TestCommandArgs(t *testing.T) {
	assert.Equal(t, "eurusd 100", commandArgs("/курс eurusd 100"))
	assert.Equal(t, "", commandArgs("/курс"))
	assert.Equal(t, "uah 2", commandArgs("  /добавь uah 2  "))
}

func TestParseOrderArgs(t *testing.T) {
	get, give, rate, ok := parseOrderArgs("1500000 от 1480000/97,5")
	require.True(t, ok)
	assert.Equal(t, "1500000", get.String())
	assert.Equal(t, "1480000", give.String())
	assert.Equal(t, "97.5", rate.String())

	// Пробелы-разряды в суммах допустимы
	get, _, _, ok = parseOrderArgs("1 500 000 от 1 480 000/97.5")
	require.True(t, ok)
	assert.Equal(t, "1500000", get.String())

	for _, bad := range []string{"", "1500000", "от 100/97", "100 от 200/0"} {
		_, _, _, ok := parseOrderArgs(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseExprSegments(t *testing.T) {
	segs, err := parseExprSegments("usdkzt (1000+500) + eurusd 100+50")
	require.NoError(t, err)
	require.Len(t, segs, 2)

	assert.Equal(t, "USD", segs[0].base)
	assert.Equal(t, "KZT", segs[0].quote)
	assert.InDelta(t, 1500, segs[0].amount, 1e-9)

	assert.Equal(t, "EUR", segs[1].base)
	assert.Equal(t, "USD", segs[1].quote)
	assert.InDelta(t, 150, segs[1].amount, 1e-9)
}

func TestParseExprSegmentsPlain(t *testing.T) {
	segs, err := parseExprSegments("100+200*3")
	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestParseExprSegmentsBadPair(t *testing.T) {
	_, err := parseExprSegments("eur (100+50)")
	assert.Error(t, err)
}

func TestDirectCalcRouting(t *testing.T) {
	assert.True(t, directCalcRe.MatchString("/123+123*2"))
	assert.True(t, directCalcRe.MatchString("/(100+50)/3"))
	assert.False(t, directCalcRe.MatchString("/курс"))
	assert.False(t, directCalcRe.MatchString("/usd"))

	assert.True(t, walletCmdRe.MatchString("/usd 100"))
	assert.True(t, walletCmdRe.MatchString("/грн -50"))
	assert.False(t, walletCmdRe.MatchString("/1+2"))
}
