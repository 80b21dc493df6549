package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseLiteral converts a Python-style literal (lists, tuples, dicts,
// quoted strings, numbers, True/False/None) into JSON. Valid JSON input is
// accepted as well.
func ParseLiteral(s string) (json.RawMessage, error) {
	p := &litParser{src: []rune(s)}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected trailing input")
	}
	res, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type litParser struct {
	src []rune
	pos int
}

func (p *litParser) errorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("cannot parse literal at %d: %s", p.pos, msg)
}

func (p *litParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *litParser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *litParser) value() (any, error) {
	p.skipSpace()
	switch r := p.peek(); {
	case r == 0:
		return nil, p.errorf("unexpected end of input")
	case r == '[':
		return p.list('[', ']')
	case r == '(':
		return p.list('(', ')')
	case r == '{':
		return p.dict()
	case r == '\'' || r == '"':
		return p.str()
	case r == '-' || r == '+' || r == '.' || unicode.IsDigit(r):
		return p.number()
	default:
		return p.word()
	}
}

func (p *litParser) list(open, closing rune) (any, error) {
	p.pos++
	res := make([]any, 0)
	for {
		p.skipSpace()
		if p.peek() == closing {
			p.pos++
			return res, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		res = append(res, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
		default:
			return nil, p.errorf("expected ',' or %q", closing)
		}
	}
}

func (p *litParser) dict() (any, error) {
	p.pos++
	res := make(map[string]any)
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return res, nil
		}
		k, err := p.value()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':'")
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		res[fmt.Sprintf("%v", k)] = v
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
	}
}

func (p *litParser) str() (any, error) {
	quote := p.src[p.pos]
	p.pos++
	var sb strings.Builder
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		p.pos++
		switch r {
		case quote:
			return sb.String(), nil
		case '\\':
			if p.pos >= len(p.src) {
				return nil, p.errorf("unterminated escape")
			}
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune(e)
			}
		default:
			sb.WriteRune(r)
		}
	}
	return nil, p.errorf("unterminated string")
}

func (p *litParser) number() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsDigit(r) || strings.ContainsRune("+-.eE", r) {
			p.pos++
			continue
		}
		break
	}
	tok := string(p.src[start:p.pos])
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, p.errorf("bad number %q", tok)
	}
	return f, nil
}

func (p *litParser) word() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			p.pos++
			continue
		}
		break
	}
	switch tok := string(p.src[start:p.pos]); tok {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	case "None", "null", "nan", "NaN":
		return nil, nil
	case "":
		return nil, p.errorf("unexpected character %q", p.peek())
	default:
		return nil, p.errorf("unknown token %q", tok)
	}
}
