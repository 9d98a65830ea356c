package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

const localeKey contextKey = "locale"

var supported = []language.Tag{
	language.English,    // en (default)
	language.Indonesian, // id
}

var matcher = language.NewMatcher(supported)

// Locale resolves the request locale from the X-Locale header, falling
// back to Accept-Language, then to the configured default.
func Locale(defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			candidate := r.Header.Get("X-Locale")
			if candidate == "" {
				candidate = r.Header.Get("Accept-Language")
			}
			locale := defaultLocale
			if candidate != "" {
				if tags, _, err := language.ParseAcceptLanguage(candidate); err == nil {
					tag, _, conf := matcher.Match(tags...)
					if conf > language.No {
						base, _ := tag.Base()
						locale = base.String()
					}
				}
			}
			ctx := context.WithValue(r.Context(), localeKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey).(string); ok && v != "" {
		return v
	}
	return "en"
}
