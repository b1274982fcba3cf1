package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLocale(t *testing.T) {
	tests := map[string]string{
		"":                       "en",
		"en-US,en;q=0.9":         "en",
		"zh-CN,zh;q=0.9":         "zh",
		"ZH-tw":                  "zh",
		"fr-FR, zh;q=0.8":        "en",
		" zh ; q=1":              "zh",
		"de":                     "en",
		"zh-Hans-CN,en;q=0.5,*":  "zh",
	}
	for header, want := range tests {
		assert.Equal(t, want, ResolveLocale(header), header)
	}
}

func TestTranslateFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, "Not found", Translate(MsgNotFound, "fr"))
	assert.Equal(t, "服务器内部错误", Translate(MsgInternalServerError, "zh"))
}
