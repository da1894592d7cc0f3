package i18n

import (
	"regexp"
	"sync/atomic"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional parameters to embed in the message (for example,
// "expected", "min" or "key"). Placeholders are written as {name}.
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogue = map[string]map[string]string{
	"en": {
		"invalid_type":    "expected {expected}, got {got}",
		"required":        "required field missing",
		"unknown_key":     "unknown key {key}",
		"too_small":       "must be at least {min}",
		"too_big":         "must be at most {max}",
		"too_short":       "too short (minimum {min})",
		"too_long":        "too long (maximum {max})",
		"invalid_length":  "length must be exactly {length}",
		"pattern":         "does not match pattern {pattern}",
		"invalid_enum":    "must be one of {enum}",
		"invalid_format":  "invalid {format}",
		"coercion_failed": "cannot convert {got} to {expected}",
		"custom":          "invalid value",
		"duplicate_key":   "duplicate key {key}",
	},
	"ja": {
		"invalid_type":    "型が不正です ({expected} を期待しましたが {got} でした)",
		"required":        "必須フィールドが不足しています",
		"unknown_key":     "未知のキーです: {key}",
		"too_small":       "{min} 以上である必要があります",
		"too_big":         "{max} 以下である必要があります",
		"too_short":       "短すぎます (最小 {min})",
		"too_long":        "長すぎます (最大 {max})",
		"invalid_length":  "長さは {length} である必要があります",
		"pattern":         "パターン {pattern} に一致しません",
		"invalid_enum":    "{enum} のいずれかである必要があります",
		"invalid_format":  "{format} の形式が不正です",
		"coercion_failed": "{got} を {expected} に変換できません",
		"custom":          "値が不正です",
		"duplicate_key":   "キー {key} が重複しています",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogue[t.lang][code]
	if !ok {
		return code
	}
	return expand(msg, data)
}

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// expand substitutes {name} placeholders. A placeholder without data keeps
// its bare name ("must be at least min").
func expand(msg string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(msg, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := data[name]; ok {
			return v
		}
		return name
	})
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalogue[lang]; !ok {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
