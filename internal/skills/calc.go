package skills

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"voice-assistant/internal/memory"
)

const calcFailed = "Не могу вычислить это выражение"

var (
	errSyntax    = errors.New("syntax error")
	errDivByZero = errors.New("division by zero")
)

// spoken operators, longest first so "умножить на" wins over "на".
var calcWords = strings.NewReplacer(
	"умножить на", "*",
	"разделить на", "/",
	"поделить на", "/",
	"плюс", "+",
	"минус", "-",
	"×", "*",
	"х", "*",
	"x", "*",
	"÷", "/",
	",", ".",
)

type CalcSkill struct{ Base }

func NewCalc() *CalcSkill {
	return &CalcSkill{NewBase(NameCalc, "посчитай", "сколько будет", "вычисли", "реши пример")}
}

func (s *CalcSkill) Execute(_ context.Context, utterance string, _ memory.Memory) (string, error) {
	expr := strings.ToLower(utterance)
	for _, k := range s.keywords {
		if i := strings.LastIndex(expr, k); i >= 0 {
			expr = expr[i+len(k):]
			break
		}
	}
	expr = strings.TrimSpace(calcWords.Replace(expr))
	expr = strings.TrimRight(expr, "?=")

	v, err := Evaluate(expr)
	if err != nil {
		return calcFailed, nil
	}
	return fmt.Sprintf("Результат: %s = %s", strings.TrimSpace(expr), formatNumber(v)), nil
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Evaluate computes an arithmetic expression with + - * /, unary minus and
// parentheses.
//
//	expr   = term { ("+"|"-") term }
//	term   = factor { ("*"|"/") factor }
//	factor = ["-"] ( number | "(" expr ")" )
func Evaluate(expr string) (float64, error) {
	p := &calcParser{src: []rune(expr)}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("unexpected %q: %w", string(p.src[p.pos]), errSyntax)
	}
	return v, nil
}

type calcParser struct {
	src []rune
	pos int
}

func (p *calcParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *calcParser) peek() rune {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *calcParser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *calcParser) term() (float64, error) {
	v, err := p.factor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			r, err := p.factor()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/':
			p.pos++
			r, err := p.factor()
			if err != nil {
				return 0, err
			}
			if r == 0 {
				return 0, errDivByZero
			}
			v /= r
		default:
			return v, nil
		}
	}
}

func (p *calcParser) factor() (float64, error) {
	switch c := p.peek(); {
	case c == '-':
		p.pos++
		v, err := p.factor()
		return -v, err
	case c == '(':
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing ')': %w", errSyntax)
		}
		p.pos++
		return v, nil
	case unicode.IsDigit(c) || c == '.':
		start := p.pos
		for p.pos < len(p.src) && (unicode.IsDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
		return strconv.ParseFloat(string(p.src[start:p.pos]), 64)
	default:
		return 0, errSyntax
	}
}
