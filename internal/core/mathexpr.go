package core

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"machinespirit/internal/storage"
)

// The arithmetic fast path parses a deliberately restricted expression
// grammar: numeric literals, the named constants pi and e, the binary
// operators + - * / // % **, and unary sign. Function calls, attribute
// access, and any identifier outside the allow-list fail closed and the
// question is treated as not-math.

var (
	mathPrefixRe = regexp.MustCompile(`(?:what\s+is|what's)\s+(.+)$`)
	wordOpRe     = regexp.MustCompile(`\bx\b`)
	digitRe      = regexp.MustCompile(`[0-9]`)
	mathOpRe     = regexp.MustCompile(`[+\-*/%]`)
)

var wordOps = strings.NewReplacer(
	"divided by", "/",
	"over", "/",
	"times", "*",
	"into", "*",
	"plus", "+",
	"minus", "-",
	"^", "**",
)

// TryMath detects and evaluates an arithmetic question. It reports false
// for anything that is not a pure restricted-grammar expression.
func TryMath(question string) (string, bool) {
	qn := storage.NormalizeTopic(question)
	expr := qn
	if m := mathPrefixRe.FindStringSubmatch(qn); m != nil {
		expr = m[1]
	}
	expr = wordOps.Replace(expr)
	expr = wordOpRe.ReplaceAllString(expr, "*")

	if !digitRe.MatchString(expr) || !mathOpRe.MatchString(expr) {
		return "", false
	}

	value, err := evalExpr(expr)
	if err != nil {
		return "", false
	}
	return formatResult(value), true
}

// formatResult prints integral results without a decimal point and
// rounds everything else to 6 decimal places.
func formatResult(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if math.Abs(v-math.Round(v)) < 1e-12 && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
	rounded := math.Round(v*1e6) / 1e6
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// --- tokenizer ---

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokName
	tokOp
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			num, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", expr[i:j])
			}
			tokens = append(tokens, token{kind: tokNumber, num: num})
			i = j
		case c >= 'a' && c <= 'z':
			j := i
			for j < len(expr) && expr[j] >= 'a' && expr[j] <= 'z' {
				j++
			}
			tokens = append(tokens, token{kind: tokName, text: expr[i:j]})
			i = j
		case c == '*':
			if i+1 < len(expr) && expr[i+1] == '*' {
				tokens = append(tokens, token{kind: tokOp, text: "**"})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokOp, text: "*"})
				i++
			}
		case c == '/':
			if i+1 < len(expr) && expr[i+1] == '/' {
				tokens = append(tokens, token{kind: tokOp, text: "//"})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokOp, text: "/"})
				i++
			}
		case c == '+' || c == '-' || c == '%' || c == '(' || c == ')':
			tokens = append(tokens, token{kind: tokOp, text: string(c)})
			i++
		default:
			return nil, fmt.Errorf("disallowed character %q", c)
		}
	}
	tokens = append(tokens, token{kind: tokEOF})
	return tokens, nil
}

// --- parser / evaluator ---

var mathConstants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type exprParser struct {
	tokens []token
	pos    int
}

func evalExpr(expr string) (float64, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return 0, err
	}
	p := &exprParser{tokens: tokens}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokEOF {
		return 0, fmt.Errorf("trailing input")
	}
	return v, nil
}

func (p *exprParser) peek() token {
	return p.tokens[p.pos]
}

func (p *exprParser) takeOp(texts ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return "", false
	}
	for _, text := range texts {
		if t.text == text {
			p.pos++
			return text, true
		}
	}
	return "", false
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.takeOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.takeOp("*", "/", "//", "%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		switch op {
		case "*":
			left *= right
		case "/":
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case "//":
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left = math.Floor(left / right)
		case "%":
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			r := math.Mod(left, right)
			if r != 0 && (r < 0) != (right < 0) {
				r += right
			}
			left = r
		}
	}
}

// Exponentiation binds tighter than unary sign, so -2**2 is -(2**2).
func (p *exprParser) parseUnary() (float64, error) {
	if op, ok := p.takeOp("+", "-"); ok {
		v, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		if op == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if _, ok := p.takeOp("**"); ok {
		exp, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *exprParser) parsePrimary() (float64, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.pos++
		return t.num, nil
	case tokName:
		v, ok := mathConstants[t.text]
		if !ok {
			return 0, fmt.Errorf("disallowed identifier %q", t.text)
		}
		p.pos++
		return v, nil
	case tokOp:
		if t.text == "(" {
			p.pos++
			v, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			if _, ok := p.takeOp(")"); !ok {
				return 0, fmt.Errorf("missing closing parenthesis")
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("unexpected token")
}
