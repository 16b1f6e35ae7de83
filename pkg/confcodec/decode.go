package confcodec

import (
	"fmt"
	"strconv"
	"strings"
)

// Unmarshal parses the text format back into a tree. Comment lines and blank
// lines are ignored; a line's leading-space count decides its nesting level,
// and a block ends when the indent drops below the level it began at.
func Unmarshal(data []byte) (map[string]any, error) {
	p := &parser{lines: splitLines(string(data))}
	if len(p.lines) == 0 {
		return map[string]any{}, nil
	}
	doc, err := p.parseMap(p.lines[0].indent)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.lines) {
		return nil, fmt.Errorf("line %d: unexpected indentation", p.lines[p.pos].number)
	}
	return doc, nil
}

type line struct {
	number  int
	indent  int
	content string
}

func splitLines(s string) []line {
	var out []line
	for i, raw := range strings.Split(s, "\n") {
		trimmed := strings.TrimLeft(raw, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		out = append(out, line{
			number:  i + 1,
			indent:  len(raw) - len(trimmed),
			content: strings.TrimRight(trimmed, " \r"),
		})
	}
	return out
}

type parser struct {
	lines []line
	pos   int
}

// parseMap reads consecutive key lines at exactly the given indent.
func (p *parser) parseMap(indent int) (map[string]any, error) {
	out := map[string]any{}
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.indent < indent {
			break
		}
		if ln.indent > indent {
			return nil, fmt.Errorf("line %d: unexpected indentation", ln.number)
		}
		if strings.HasPrefix(ln.content, "- ") || ln.content == "-" {
			return nil, fmt.Errorf("line %d: list element outside a list", ln.number)
		}

		key, rest, err := splitKey(ln.content)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ln.number, err)
		}
		p.pos++

		if rest != "" {
			out[key] = parseScalar(rest)
			continue
		}

		// Bare "key:" opens a nested block on subsequent deeper lines; with
		// no deeper line the value is an empty object.
		if p.pos >= len(p.lines) || p.lines[p.pos].indent <= indent {
			out[key] = map[string]any{}
			continue
		}
		child, err := p.parseValue(p.lines[p.pos].indent)
		if err != nil {
			return nil, err
		}
		out[key] = child
	}
	return out, nil
}

// parseValue reads either a list or a map block starting at indent.
func (p *parser) parseValue(indent int) (any, error) {
	ln := p.lines[p.pos]
	if strings.HasPrefix(ln.content, "- ") || ln.content == "-" {
		return p.parseList(indent)
	}
	return p.parseMap(indent)
}

// parseList reads dash-prefixed elements at the given indent. An element
// whose dash line carries "key: value" starts an object literal whose
// remaining fields sit two spaces deeper than the dash.
func (p *parser) parseList(indent int) ([]any, error) {
	out := []any{}
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.indent < indent {
			break
		}
		if ln.indent > indent {
			return nil, fmt.Errorf("line %d: unexpected indentation", ln.number)
		}
		if !strings.HasPrefix(ln.content, "- ") && ln.content != "-" {
			break
		}
		rest := strings.TrimSpace(strings.TrimPrefix(ln.content, "-"))

		if rest == "" || !looksLikeKeyValue(rest) {
			p.pos++
			out = append(out, parseScalar(rest))
			continue
		}

		// Object element: rewrite the dash line as a field line at the
		// element's own indent and parse a map block from here.
		p.lines[p.pos] = line{number: ln.number, indent: indent + 2, content: rest}
		el, err := p.parseMap(indent + 2)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

// looksLikeKeyValue reports whether a dash line's payload is "key: value"
// rather than a raw scalar. Quoted scalars that merely contain a colon do
// not count.
func looksLikeKeyValue(s string) bool {
	if strings.HasPrefix(s, `"`) {
		// Could be a quoted key ("name": ...) or a quoted scalar.
		if _, rest, err := splitKey(s); err == nil {
			_ = rest
			return true
		}
		return false
	}
	if strings.HasPrefix(s, "[") {
		return false
	}
	idx := strings.Index(s, ":")
	if idx < 0 {
		return false
	}
	return idx == len(s)-1 || s[idx+1] == ' '
}

// splitKey separates "key: value" (or `"key": value`) into key and the raw
// value text, empty when the line is a bare "key:".
func splitKey(s string) (key, rest string, err error) {
	if strings.HasPrefix(s, `"`) {
		end := closingQuote(s)
		if end < 0 {
			return "", "", fmt.Errorf("unterminated quoted key")
		}
		key, uerr := strconv.Unquote(s[:end+1])
		if uerr != nil {
			key = strings.Trim(s[:end+1], `"`)
		}
		tail := strings.TrimSpace(s[end+1:])
		if !strings.HasPrefix(tail, ":") {
			return "", "", fmt.Errorf("expected ':' after quoted key")
		}
		return key, strings.TrimSpace(tail[1:]), nil
	}

	idx := strings.Index(s, ":")
	if idx < 0 {
		return "", "", fmt.Errorf("expected 'key: value'")
	}
	if idx < len(s)-1 && s[idx+1] != ' ' {
		return "", "", fmt.Errorf("expected space after ':'")
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:]), nil
}

// closingQuote finds the index of the quote ending a leading quoted token.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// parseScalar decodes one scalar token. Quoted tokens decode as escaped
// string literals (naive quote-stripping as a fallback); true/false/null are
// exact tokens; bracketed text is an inline array; a token that fully parses
// as a number is numeric; everything else stays a string.
func parseScalar(s string) any {
	switch {
	case s == "":
		return ""
	case s == "null":
		return nil
	case s == "true":
		return true
	case s == "false":
		return false
	case s == "{}":
		return map[string]any{}
	case strings.HasPrefix(s, `"`):
		if v, err := strconv.Unquote(s); err == nil {
			return v
		}
		return strings.Trim(s, `"`)
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		return parseInlineArray(s)
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

// parseInlineArray splits "[a, b, c]" on top-level commas, honoring quotes
// and nested brackets.
func parseInlineArray(s string) []any {
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []any{}
	}
	out := []any{}
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case inQuote:
			if c == '\\' {
				i++
			} else if c == '"' {
				inQuote = false
			}
		case c == '"':
			inQuote = true
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == ',' && depth == 0:
			out = append(out, parseScalar(strings.TrimSpace(inner[start:i])))
			start = i + 1
		}
	}
	out = append(out, parseScalar(strings.TrimSpace(inner[start:])))
	return out
}
