package converter

import (
	"regexp"
	"strconv"
	"strings"
)

var leadingNumberRe = regexp.MustCompile(`^([\d,]+\.?\d*)`)

// ParseLeadingNumber выделяет число из начала скрейпнутого текста вида
// "1,149.2238 US Dollar" или "52,975.918Kazakhstani Tenge": пробелы
// убираются, запятые считаются разделителями тысяч.
func ParseLeadingNumber(raw string) (float64, error) {
	cleaned := stripSpaces(raw)
	m := leadingNumberRe.FindStringSubmatch(cleaned)
	if m == nil {
		return 0, &UnparsableResultError{Raw: raw}
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, &UnparsableResultError{Raw: raw}
	}
	return n, nil
}

// Normalize разбирает локализованную строку числа. Эвристика: если есть и
// запятая и точка — запятая считается разделителем тысяч; если только
// запятая — десятичным разделителем. Для некоторых локалей ("1,234" без
// точки) вход принципиально неоднозначен, и эвристика может ошибиться —
// это осознанный компромисс, а не гарантированный парсер всех форматов.
func Normalize(raw string) (float64, error) {
	cleaned := stripSpaces(raw)
	switch {
	case strings.Contains(cleaned, ",") && strings.Contains(cleaned, "."):
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case strings.Contains(cleaned, ","):
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, &UnparsableResultError{Raw: raw}
	}
	return n, nil
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ' ', ' ':
			return -1
		}
		return r
	}, s)
}

// FinalAmount применяет постобработку: делитель имеет приоритет над
// процентной корректировкой.
func FinalAmount(converted float64, req Request) float64 {
	if req.Divisor > 0 {
		return converted / req.Divisor
	}
	if req.Percent != 0 {
		return converted + converted*req.Percent/100
	}
	return converted
}

// FormatRu форматирует число в русской локали: неразрывный пробел между
// разрядами, запятая как десятичный разделитель. Хвостовые нули урезаются
// до minFrac знаков.
func FormatRu(n float64, minFrac, maxFrac int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatFloat(n, 'f', maxFrac, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")
	for len(fracPart) > minFrac && strings.HasSuffix(fracPart, "0") {
		fracPart = fracPart[:len(fracPart)-1]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(groupThousands(intPart, " "))
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatApostrophe форматирует сумму с апострофом между разрядами —
// так балансы выводятся в выписке.
func FormatApostrophe(n float64, precision int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatFloat(n, 'f', precision, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(groupThousands(intPart, "’"))
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseFlexibleNumber разбирает пользовательский ввод числа: пробелы
// игнорируются, запятая равнозначна точке.
func ParseFlexibleNumber(input string) (float64, bool) {
	cleaned := strings.ReplaceAll(stripSpaces(input), ",", ".")
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
