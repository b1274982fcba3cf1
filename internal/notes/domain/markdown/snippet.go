package markdown

import (
	"html"
	"strings"
	"unicode"
)

// Границы фрагмента вокруг найденной подстроки, в рунах.
const (
	SnippetBefore = 40
	SnippetAfter  = 60
)

// Snippet вырезает фрагмент text вокруг первого вхождения query (без учета регистра)
// и выделяет вхождение тегом <mark>. Остальной текст экранируется.
// Если вхождения нет, возвращается пустая строка.
func Snippet(text, query string) string {
	src := []rune(text)
	q := []rune(strings.TrimSpace(query))
	idx := indexFold(src, q)
	if idx < 0 {
		return ""
	}

	start := max(0, idx-SnippetBefore)
	end := min(len(src), idx+len(q)+SnippetAfter)

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(html.EscapeString(collapse(string(src[start:idx]))))
	b.WriteString("<mark>")
	b.WriteString(html.EscapeString(string(src[idx : idx+len(q)])))
	b.WriteString("</mark>")
	b.WriteString(html.EscapeString(collapse(string(src[idx+len(q) : end]))))
	if end < len(src) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

func indexFold(s, sub []rune) int {
	if len(sub) == 0 || len(sub) > len(s) {
		return -1
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j := range sub {
			if unicode.ToLower(s[i+j]) != unicode.ToLower(sub[j]) {
				continue outer
			}
		}
		return i
	}
	return -1
}

// collapse заменяет переводы строк пробелами, сохраняя границы слов у выделения.
func collapse(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, s)
}
