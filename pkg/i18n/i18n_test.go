package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestT_DefaultLocaleIsIndonesian(t *testing.T) {
	got := T("upload.success", map[string]string{"count": "1", "label": "usia"})
	assert.Equal(t, "1 baris data usia berhasil diimpor.", got)
}

func TestTWithLocale(t *testing.T) {
	got := TWithLocale(LocaleEnglish, "upload.success", map[string]string{"count": "3", "label": "age"})
	assert.Equal(t, "3 age rows imported successfully.", got)
}

func TestT_UnknownKeyReturnsKey(t *testing.T) {
	assert.Equal(t, "errors.nope", TWithLocale(LocaleEnglish, "errors.nope"))
	assert.Equal(t, "errors", TWithLocale(LocaleEnglish, "errors"))
}

func TestNewLocalizer_UnsupportedFallsBack(t *testing.T) {
	assert.Equal(t, DefaultLocale, NewLocalizer("de").GetLocale())
}

func TestParseAcceptLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", LocaleIndonesian},
		{"en-US,en;q=0.9", LocaleEnglish},
		{"id-ID,id;q=0.9,en;q=0.8", LocaleIndonesian},
		{"in-ID", LocaleIndonesian},
		{"fr-FR, en;q=0.5", LocaleEnglish},
		{"de-DE", LocaleIndonesian},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAcceptLanguage(tt.header))
		})
	}
}

func TestMiddleware(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetLocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Accept-Language", "en-GB")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, LocaleEnglish, seen)
	assert.Equal(t, LocaleEnglish, rec.Header().Get("Content-Language"))

	req = httptest.NewRequest(http.MethodGet, "/api/stats?lang=id", nil)
	req.Header.Set("Accept-Language", "en-GB")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, LocaleIndonesian, seen)
}

func TestGetLocaleFromContext_Default(t *testing.T) {
	assert.Equal(t, DefaultLocale, GetLocaleFromContext(context.Background()))
}
