package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/olegiv/ocms-community/internal/i18n"
)

// LanguageCookieName is the cookie name for language preference.
const LanguageCookieName = "site_lang"

// Language detects the UI language and stores it in the request context.
// Priority order:
// 1. Query parameter ?lang=XX (explicit switch, also saved in the cookie)
// 2. The language cookie
// 3. Accept-Language header
// 4. The configured default
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if q := strings.ToLower(r.URL.Query().Get("lang")); q != "" && i18n.IsSupported(q) {
			lang = q
			SetLanguageCookie(w, lang)
		}
		if lang == "" {
			if c, err := r.Cookie(LanguageCookieName); err == nil && i18n.IsSupported(c.Value) {
				lang = strings.ToLower(c.Value)
			}
		}
		if lang == "" {
			if accept := r.Header.Get("Accept-Language"); accept != "" {
				lang = i18n.MatchLanguage(accept)
			}
		}
		if lang == "" {
			lang = i18n.Default()
		}

		ctx := context.WithValue(r.Context(), ContextKeyLanguage, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLanguage returns the request language, or the default when the
// Language middleware did not run.
func GetLanguage(r *http.Request) string {
	if lang, ok := r.Context().Value(ContextKeyLanguage).(string); ok && lang != "" {
		return lang
	}
	return i18n.Default()
}

// SetLanguageCookie sets the language preference cookie.
func SetLanguageCookie(w http.ResponseWriter, langCode string) {
	http.SetCookie(w, &http.Cookie{
		Name:     LanguageCookieName,
		Value:    langCode,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
