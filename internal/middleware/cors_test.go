package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnableCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{"any origin", nil, "http://emulator:8080", http.MethodGet, "http://emulator:8080", http.StatusTeapot},
		{"listed origin", []string{"https://app.example"}, "https://app.example", http.MethodGet, "https://app.example", http.StatusTeapot},
		{"unlisted origin", []string{"https://app.example"}, "https://evil.example", http.MethodGet, "", http.StatusTeapot},
		{"preflight", nil, "http://emulator:8080", http.MethodOptions, "http://emulator:8080", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/routes", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			EnableCORS(tt.allowed, next).ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
