package i18n

import (
	"net/http"
)

// Middleware stores the locale negotiated from Accept-Language in the request context.
// An explicit ?lang= query parameter wins over the header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := ParseAcceptLanguage(r.Header.Get("Accept-Language"))
		if lang := r.URL.Query().Get("lang"); IsSupported(lang) {
			locale = lang
		}

		w.Header().Set("Content-Language", locale)
		next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), locale)))
	})
}
