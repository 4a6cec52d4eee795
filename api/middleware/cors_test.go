package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ufsc-france/gestion-backend/pkg/config"
)

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	h := CORS(config.CORSConfig{AllowedOrigins: []string{" https://gestion.ufsc-france.fr ", ""}, MaxAge: 60})(okHandler())

	for origin, want := range map[string]string{
		"https://gestion.ufsc-france.fr": "https://gestion.ufsc-france.fr",
		"https://evil.example":           "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/club", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Fatalf("origin %s: expected allow-origin %q got %q", origin, want, got)
		}
	}
}

func TestCORSDisabledWithoutOrigins(t *testing.T) {
	h := CORS(config.CORSConfig{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("Origin", "https://gestion.ufsc-france.fr")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS headers, got %q", got)
	}
}
