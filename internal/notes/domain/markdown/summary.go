package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// SummaryLength - максимальная длина выдержки в рунах, без многоточия.
const SummaryLength = 200

const ellipsis = "…"

var (
	reFence      = regexp.MustCompile("(?m)^\\s*(```|~~~).*$")
	reImage      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reLink       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	reHeading    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	reQuote      = regexp.MustCompile(`(?m)^\s*>+\s?`)
	reListMarker = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+[.)])\s+(?:\[[ xX]\]\s+)?`)
	reRule       = regexp.MustCompile(`(?m)^\s*(?:[-*_]\s*){3,}$`)
	reEmphasis   = regexp.MustCompile(`(\*\*|__|~~|\*|_)([^*_~]+)(\*\*|__|~~|\*|_)`)
	reInlineCode = regexp.MustCompile("`([^`]*)`")
	reHTMLTag    = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// Summary возвращает текстовую выдержку из markdown: разметка убрана,
// пробелы схлопнуты, длина ограничена SummaryLength рун.
func Summary(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	s := reFence.ReplaceAllString(content, "")
	s = reImage.ReplaceAllString(s, "")
	s = reLink.ReplaceAllString(s, "$1")
	s = reRule.ReplaceAllString(s, "")
	s = reHeading.ReplaceAllString(s, "")
	s = reQuote.ReplaceAllString(s, "")
	s = reListMarker.ReplaceAllString(s, "")
	s = reInlineCode.ReplaceAllString(s, "$1")
	s = reHTMLTag.ReplaceAllString(s, "")
	// вложенное выделение вида ***x*** снимается за два прохода
	s = reEmphasis.ReplaceAllString(s, "$2")
	s = reEmphasis.ReplaceAllString(s, "$2")

	s = strings.Join(strings.Fields(s), " ")
	return truncate(s, SummaryLength)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:limit]), " ") + ellipsis
}
