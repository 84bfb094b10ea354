package bot

import (
	"regexp"
	"strings"

	"kursBot/internal/converter"
)

// pairArgsRe разбирает "<пара> [сумма][/делитель]": /курс eurusd 10000/1,015
var pairArgsRe = regexp.MustCompile(`^(\S+)(?:\s+([\d.,]+))?(?:/([\d.,]+))?$`)

// Известные суффиксы котируемой валюты для пар с некруглой длиной
// (биржевые тикеры вида tonusdt, где quote длиннее трех символов).
var knownQuoteSuffixes = []string{
	"USDT", "BUSD", "USDC", "TRY", "EUR", "RUB", "BTC", "ETH", "BNB", "TON", "TRX",
}

// parsePair делит склеенную пару на base и quote: сначала попытка 3+3,
// иначе поиск известного суффикса с конца.
func parsePair(pair string) (base, quote string, ok bool) {
	pair = strings.ToUpper(strings.ReplaceAll(pair, "/", ""))
	if len(pair) < 6 {
		return "", "", false
	}
	base = pair[:3]
	quote = pair[3:]
	if len(quote) == 3 {
		return base, quote, true
	}
	for _, suffix := range knownQuoteSuffixes {
		if strings.HasSuffix(pair, suffix) && len(pair) > len(suffix) {
			return pair[:len(pair)-len(suffix)], suffix, true
		}
	}
	return base, quote, true
}

// parsePairArgs разбирает аргументы команды курса в запрос конвертации.
// Сумма по умолчанию 1; сумма и делитель принимают запятую как точку.
func parsePairArgs(args string) (converter.Request, bool) {
	m := pairArgsRe.FindStringSubmatch(strings.TrimSpace(args))
	if m == nil {
		return converter.Request{}, false
	}
	base, quote, ok := parsePair(m[1])
	if !ok {
		return converter.Request{}, false
	}

	req := converter.Request{Base: base, Quote: quote, Amount: 1}
	if m[2] != "" {
		n, ok := converter.ParseFlexibleNumber(m[2])
		if ok {
			req.Amount = n
		}
	}
	if m[3] != "" {
		if d, ok := converter.ParseFlexibleNumber(m[3]); ok && d > 0 {
			req.Divisor = d
		}
	}
	return req, true
}

// kursiAllowed — валюты, которые реально есть в меню kursi.ge.
var kursiAllowed = map[string]bool{
	"EUR": true,
	"GEL": true,
	"USD": true,
	"RUB": true,
}

// parseKursiArgs — как parsePairArgs, но пары ограничены валютами kursi.ge.
func parseKursiArgs(args string) (converter.Request, bool) {
	req, ok := parsePairArgs(args)
	if !ok {
		return converter.Request{}, false
	}
	if !kursiAllowed[req.Base] || !kursiAllowed[req.Quote] {
		return converter.Request{}, false
	}
	return req, true
}

// commandArgs отрезает имя команды, возвращая остаток строки.
func commandArgs(text string) string {
	fields := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(fields) < 2 {
		return ""
	}
	return strings.TrimSpace(fields[1])
}
