// Package calc вычисляет арифметические выражения калькулятора бота.
// Вместо исполнения построенной из пользовательского ввода строки кода
// (как делают eval-решения) здесь рекурсивный спуск по ограниченной
// грамматике: числа, + - * / ( ) и процентный суффикс.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Evaluate вычисляет выражение. Запятая равнозначна точке, юникодные тире
// приводятся к минусу, апострофы-разделители разрядов игнорируются.
//
// Процентный суффикс работает по правилам калькулятора:
//
//	A + B%  →  A + A*B/100      (аналогично для минуса)
//	X%      →  X/100            (в остальных позициях)
func Evaluate(raw string) (float64, error) {
	p := &parser{input: normalize(raw)}
	v, _, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("неожиданный символ %q в позиции %d", p.input[p.pos], p.pos)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("результат не является конечным числом")
	}
	return v, nil
}

func normalize(raw string) string {
	r := strings.NewReplacer(
		",", ".",
		"–", "-",
		"—", "-",
		"−", "-",
		"’", "",
		"'", "",
	)
	return r.Replace(raw)
}

type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// parseExpr обрабатывает + и -. Возвращает также флаг "чистый процент":
// он поднимается из единственного операнда-процента и включает правило A±B%.
func (p *parser) parseExpr() (float64, bool, error) {
	left, _, err := p.parseTerm()
	if err != nil {
		return 0, false, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, false, nil
		}
		p.pos++
		right, pct, err := p.parseTerm()
		if err != nil {
			return 0, false, err
		}
		if pct {
			// right пришел как доля (X/100); процент берется от левой части
			right = left * right
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *parser) parseTerm() (float64, bool, error) {
	left, pct, err := p.parseUnary()
	if err != nil {
		return 0, false, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, pct, nil
		}
		pct = false
		p.pos++
		right, _, err := p.parseUnary()
		if err != nil {
			return 0, false, err
		}
		if op == '*' {
			left *= right
		} else {
			if right == 0 {
				return 0, false, fmt.Errorf("деление на ноль")
			}
			left /= right
		}
	}
}

func (p *parser) parseUnary() (float64, bool, error) {
	if p.peek() == '-' {
		p.pos++
		v, pct, err := p.parseUnary()
		return -v, pct, err
	}
	if p.peek() == '+' {
		p.pos++
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (float64, bool, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, _, err := p.parseExpr()
		if err != nil {
			return 0, false, err
		}
		if p.peek() != ')' {
			return 0, false, fmt.Errorf("не закрыта скобка")
		}
		p.pos++
		return p.withPercent(v)
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.input) {
			ch := p.input[p.pos]
			if ch >= '0' && ch <= '9' || ch == '.' {
				p.pos++
				continue
			}
			break
		}
		v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
		if err != nil {
			return 0, false, fmt.Errorf("некорректное число %q", p.input[start:p.pos])
		}
		return p.withPercent(v)
	case c == 0:
		return 0, false, fmt.Errorf("неожиданный конец выражения")
	default:
		return 0, false, fmt.Errorf("неожиданный символ %q", c)
	}
}

// withPercent применяет процентный суффикс: значение превращается в долю,
// флаг сообщает parseExpr, что возможен режим A±B%.
func (p *parser) withPercent(v float64) (float64, bool, error) {
	if p.peek() == '%' {
		p.pos++
		return v / 100, true, nil
	}
	return v, false, nil
}
