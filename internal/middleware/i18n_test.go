package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func resolveLocale(t *testing.T, defaultLocale string, headers map[string]string) string {
	t.Helper()
	var got string
	h := Locale(defaultLocale)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestLocaleHeaderOverride(t *testing.T) {
	if got := resolveLocale(t, "en", map[string]string{"X-Locale": "id"}); got != "id" {
		t.Fatalf("locale = %q, want id", got)
	}
}

func TestLocaleAcceptLanguageFallback(t *testing.T) {
	if got := resolveLocale(t, "en", map[string]string{"Accept-Language": "id-ID,id;q=0.9,en;q=0.8"}); got != "id" {
		t.Fatalf("locale = %q, want id", got)
	}
}

func TestLocaleDefault(t *testing.T) {
	if got := resolveLocale(t, "en", nil); got != "en" {
		t.Fatalf("locale = %q, want en", got)
	}
}

func TestLocaleUnsupportedLanguageFallsBack(t *testing.T) {
	got := resolveLocale(t, "en", map[string]string{"X-Locale": "xx-klingon"})
	if got != "en" {
		t.Fatalf("locale = %q, want en", got)
	}
}
