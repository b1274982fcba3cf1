// Package markdown очищает пользовательский markdown и строит из него краткую выдержку.
package markdown

import (
	"strings"
)

var dangerousSchemes = []string{"javascript:", "vbscript:", "data:"}

// Sanitize заменяет ссылки с опасными схемами на [text](#).
// Опасными считаются javascript:, vbscript: и data: (кроме data:image/), без учета регистра.
// Внутри адреса допускается один уровень вложенных скобок.
func Sanitize(content string) string {
	if !strings.Contains(content, "](") {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))

	i := 0
	for i < len(content) {
		if content[i] != '[' {
			b.WriteByte(content[i])
			i++
			continue
		}
		text, end, ok := matchDangerousLink(content, i)
		if !ok {
			b.WriteByte(content[i])
			i++
			continue
		}
		b.WriteByte('[')
		b.WriteString(text)
		b.WriteString("](#)")
		i = end
	}
	return b.String()
}

// matchDangerousLink пытается сопоставить опасную ссылку, начинающуюся с s[start] == '['.
// Возвращает текст ссылки и позицию сразу после закрывающей скобки.
func matchDangerousLink(s string, start int) (string, int, bool) {
	closeText := strings.IndexByte(s[start+1:], ']')
	if closeText < 0 {
		return "", 0, false
	}
	textEnd := start + 1 + closeText
	text := s[start+1 : textEnd]

	pos := textEnd + 1
	if pos >= len(s) || s[pos] != '(' {
		return "", 0, false
	}
	pos++

	scheme := dangerousScheme(s[pos:])
	if scheme == "" {
		return "", 0, false
	}
	pos += len(scheme)

	end, ok := consumeTarget(s, pos)
	if !ok {
		return "", 0, false
	}
	return text, end, true
}

func dangerousScheme(rest string) string {
	for _, scheme := range dangerousSchemes {
		if len(rest) < len(scheme) || !strings.EqualFold(rest[:len(scheme)], scheme) {
			continue
		}
		if scheme == "data:" {
			tail := rest[len(scheme):]
			if len(tail) >= len("image/") && strings.EqualFold(tail[:len("image/")], "image/") {
				return ""
			}
		}
		return scheme
	}
	return ""
}

// consumeTarget разбирает [^()]*(?:\([^()]*\)[^()]*)*\) начиная с pos.
func consumeTarget(s string, pos int) (int, bool) {
	depth := 0
	for pos < len(s) {
		switch s[pos] {
		case '(':
			if depth == 1 {
				return 0, false
			}
			depth++
		case ')':
			if depth == 0 {
				return pos + 1, true
			}
			depth--
		}
		pos++
	}
	return 0, false
}
