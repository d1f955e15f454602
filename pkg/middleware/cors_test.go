package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serveCORS(cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/finalizar-pedido", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rr := httptest.NewRecorder()
	CORS(cfg)(okHandler).ServeHTTP(rr, req)
	return rr
}

func servePreflight(cfg CORSConfig, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/finalizar-pedido", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	CORS(cfg)(okHandler).ServeHTTP(rr, req)
	return rr
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name    string
		cfg     CORSConfig
		origin  string
		allowed string
		vary    string
	}{
		{
			name:    "development allows any",
			cfg:     CORSConfig{Environment: "development"},
			origin:  "http://localhost:5500",
			allowed: "*",
		},
		{
			name:    "wildcard in list",
			cfg:     CORSConfig{AllowedOrigins: []string{"https://zensushi.com.br", "*"}, Environment: "production"},
			origin:  "https://anything.example",
			allowed: "*",
		},
		{
			name:    "listed origin echoed",
			cfg:     CORSConfig{AllowedOrigins: []string{"https://zensushi.com.br"}, Environment: "production"},
			origin:  "https://zensushi.com.br",
			allowed: "https://zensushi.com.br",
			vary:    "Origin",
		},
		{
			name:   "unlisted origin rejected",
			cfg:    CORSConfig{AllowedOrigins: []string{"https://zensushi.com.br"}, Environment: "production"},
			origin: "https://evil.example",
		},
		{
			name: "no origin header",
			cfg:  CORSConfig{AllowedOrigins: []string{"https://zensushi.com.br"}, Environment: "production"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveCORS(tt.cfg, http.MethodPost, tt.origin)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.allowed, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.vary, rr.Header().Get("Vary"))
		})
	}
}

func TestCORS_PreflightOptions_Returns204(t *testing.T) {
	rr := servePreflight(DefaultCORSConfig(), "http://localhost:5500")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_PlainOptionsReachesHandler(t *testing.T) {
	rr := serveCORS(DefaultCORSConfig(), http.MethodOptions, "http://localhost:5500")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_Defaults(t *testing.T) {
	rr := servePreflight(CORSConfig{Environment: "development"}, "http://localhost:5500")

	assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	assert.Equal(t, "3600", rr.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ExplicitSettings(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins:   []string{"https://zensushi.com.br"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"X-Order-ID"},
		MaxAge:           7200,
		AllowCredentials: true,
		Environment:      "production",
	}
	preflight := servePreflight(cfg, "https://zensushi.com.br")
	assert.Equal(t, "Content-Type", preflight.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "7200", preflight.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", preflight.Header().Get("Access-Control-Allow-Credentials"))

	rr := serveCORS(cfg, http.MethodGet, "https://zensushi.com.br")
	assert.Equal(t, "X-Order-ID", rr.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_DefaultConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.ExposedHeaders, "X-Order-ID")
	assert.Contains(t, cfg.ExposedHeaders, "Idempotent-Replayed")
	assert.Equal(t, "development", cfg.Environment)
}
