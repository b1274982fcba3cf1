package markdown

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"javascript link", "[text](javascript:alert(1))", "[text](#)"},
		{"uppercase scheme", "[x](JavaScript:void(0))", "[x](#)"},
		{"vbscript", "see [me](vbscript:msgbox) now", "see [me](#) now"},
		{"data html", "[a](data:text/html;base64,PHNjcmlwdD4=)", "[a](#)"},
		{"data image kept", "[img](data:image/png;base64,iVBORw0KGgo=)", "[img](data:image/png;base64,iVBORw0KGgo=)"},
		{"data image uppercase kept", "[img](DATA:IMAGE/png;base64,AA)", "[img](DATA:IMAGE/png;base64,AA)"},
		{"safe link kept", "[site](https://example.com/a_(b))", "[site](https://example.com/a_(b))"},
		{"empty text", "[](javascript:x)", "[](#)"},
		{"two links", "[a](javascript:1) and [b](vbscript:2)", "[a](#) and [b](#)"},
		{"unterminated", "[a](javascript:alert(1)", "[a](javascript:alert(1)"},
		{"deep nesting not matched", "[a](javascript:f((1)))", "[a](javascript:f((1)))"},
		{"bracket inside text", "[a[b](javascript:x)", "[a[b](#)"},
		{"image link with data image after dangerous", "[a](data:image/gif,x) [b](data:x)", "[a](data:image/gif,x) [b](#)"},
		{"plain text", "no links here", "no links here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   \n ", ""},
		{"heading and emphasis", "# Title\n\nSome **bold** and _italic_ text", "Title Some bold and italic text"},
		{"links reduced to text", "Read [the docs](https://x.io) first", "Read the docs first"},
		{"images dropped", "before ![alt](a.png) after", "before after"},
		{"lists and quotes", "- one\n- [x] two\n> quoted\n1. three", "one two quoted three"},
		{"code fence removed", "```go\nfmt.Println()\n```\ntext `inline`", "fmt.Println() text inline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.in))
		})
	}
}

func TestSummaryTruncates(t *testing.T) {
	in := strings.Repeat("界", SummaryLength+50)
	got := Summary(in)

	assert.Equal(t, SummaryLength+1, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, ellipsis))
}

func TestSnippet(t *testing.T) {
	t.Run("highlights case-insensitive match", func(t *testing.T) {
		got := Snippet("Buy MILK today", "milk")
		assert.Equal(t, "Buy <mark>MILK</mark> today", got)
	})

	t.Run("adds ellipses around long context", func(t *testing.T) {
		text := strings.Repeat("a", 100) + "needle" + strings.Repeat("b", 100)
		got := Snippet(text, "needle")

		want := ellipsis + strings.Repeat("a", SnippetBefore) + "<mark>needle</mark>" + strings.Repeat("b", SnippetAfter) + ellipsis
		assert.Equal(t, want, got)
	})

	t.Run("escapes html", func(t *testing.T) {
		got := Snippet("<b>x</b> & key", "key")
		assert.Equal(t, "&lt;b&gt;x&lt;/b&gt; &amp; <mark>key</mark>", got)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Snippet("abc", "zzz"))
		assert.Empty(t, Snippet("abc", "  "))
	})
}
