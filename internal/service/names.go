package service

import "strings"

// ParseNameList splits a comma-separated cell into trimmed, non-empty names.
func ParseNameList(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ParseLanguageList parses the supported languages cell. It accepts a
// bracketed list of single or double quoted strings, e.g. ['English', "French"],
// or a lone quoted string. Any other input is taken as one literal name.
// Names are trimmed and empty names dropped.
func ParseLanguageList(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	items, ok := parseQuotedList(trimmed)
	if !ok {
		items = []string{trimmed}
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if name := strings.TrimSpace(item); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// listScanner walks a bracketed quoted-string list.
type listScanner struct {
	s   string
	pos int
}

func parseQuotedList(s string) ([]string, bool) {
	sc := &listScanner{s: s}

	if sc.peek() != '[' {
		str, ok := sc.quoted()
		if !ok || !sc.done() {
			return nil, false
		}
		return []string{str}, true
	}
	sc.pos++

	var items []string
	for {
		sc.skipSpace()
		if sc.peek() == ']' {
			sc.pos++
			break
		}
		str, ok := sc.quoted()
		if !ok {
			return nil, false
		}
		items = append(items, str)

		sc.skipSpace()
		switch sc.peek() {
		case ',':
			sc.pos++
		case ']':
			sc.pos++
			if !sc.done() {
				return nil, false
			}
			return items, true
		default:
			return nil, false
		}
	}
	if !sc.done() {
		return nil, false
	}
	return items, true
}

func (sc *listScanner) peek() byte {
	if sc.pos >= len(sc.s) {
		return 0
	}
	return sc.s[sc.pos]
}

func (sc *listScanner) skipSpace() {
	for sc.pos < len(sc.s) {
		switch sc.s[sc.pos] {
		case ' ', '\t', '\n', '\r':
			sc.pos++
		default:
			return
		}
	}
}

func (sc *listScanner) done() bool {
	sc.skipSpace()
	return sc.pos == len(sc.s)
}

// quoted reads one '...' or "..." string with backslash escapes.
func (sc *listScanner) quoted() (string, bool) {
	sc.skipSpace()
	quote := sc.peek()
	if quote != '\'' && quote != '"' {
		return "", false
	}
	sc.pos++

	var b strings.Builder
	for sc.pos < len(sc.s) {
		c := sc.s[sc.pos]
		sc.pos++
		switch {
		case c == quote:
			return b.String(), true
		case c == '\\':
			if sc.pos >= len(sc.s) {
				return "", false
			}
			esc := sc.s[sc.pos]
			sc.pos++
			switch esc {
			case '\\', '\'', '"':
				b.WriteByte(esc)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", false
}

func dedupe(names []string) []string {
	if len(names) < 2 {
		return names
	}
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
