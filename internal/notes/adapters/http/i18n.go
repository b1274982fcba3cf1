package http

import "strings"

// MessageKey - ключ локализуемого сообщения об ошибке.
type MessageKey string

// Ключи сообщений.
const (
	MsgNotFound            MessageKey = "notFound"
	MsgInternalServerError MessageKey = "internalServerError"
	MsgInvalidRequest      MessageKey = "invalidRequest"
	MsgUnauthorized        MessageKey = "unauthorized"
)

const defaultLocale = "en"

var translations = map[string]map[MessageKey]string{
	"en": {
		MsgNotFound:            "Not found",
		MsgInternalServerError: "Internal Server Error",
		MsgInvalidRequest:      "Invalid request",
		MsgUnauthorized:        "Unauthorized",
	},
	"zh": {
		MsgNotFound:            "未找到",
		MsgInternalServerError: "服务器内部错误",
		MsgInvalidRequest:      "请求无效",
		MsgUnauthorized:        "未授权",
	},
}

// ResolveLocale выбирает локаль по первому языку из Accept-Language.
func ResolveLocale(acceptLanguage string) string {
	primary, _, _ := strings.Cut(acceptLanguage, ",")
	primary, _, _ = strings.Cut(primary, ";")
	primary = strings.ToLower(strings.TrimSpace(primary))
	if strings.HasPrefix(primary, "zh") {
		return "zh"
	}
	return defaultLocale
}

// Translate возвращает сообщение для локали, откатываясь на английский.
func Translate(key MessageKey, locale string) string {
	if msg, ok := translations[locale][key]; ok {
		return msg
	}
	return translations[defaultLocale][key]
}
