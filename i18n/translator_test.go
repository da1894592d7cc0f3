package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("required", nil); msg == "required" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("required", nil); msg == "required field missing" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// unknown languages fall back to en
	SetLanguage("xx")
	if msg := T("required", nil); msg != "required field missing" {
		t.Fatalf("expected english fallback, got %q", msg)
	}
	SetLanguage("en")
}

func TestTranslator_Placeholders(t *testing.T) {
	if msg := T("too_small", map[string]string{"min": "2"}); msg != "must be at least 2" {
		t.Fatalf("got %q", msg)
	}
	if msg := T("invalid_type", map[string]string{"expected": "string", "got": "number"}); msg != "expected string, got number" {
		t.Fatalf("got %q", msg)
	}
	if msg := T("too_small", nil); msg != "must be at least min" {
		t.Fatalf("got %q", msg)
	}
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("unknown codes should echo the code, got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	if msg := T("required", nil); msg != "X:required" {
		t.Fatalf("got %q", msg)
	}
	SetTranslator(nil)
	if msg := T("required", nil); msg != "required field missing" {
		t.Fatalf("nil should restore the default, got %q", msg)
	}
}
