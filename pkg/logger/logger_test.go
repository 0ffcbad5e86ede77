package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinLogger_RequestID(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(io.Discard)

	r := gin.New()
	r.Use(GinLogger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(200, c.GetString("request_id"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("response %s = %q, expected %q", RequestIDHeader, got, "req-123")
	}
	if w.Body.String() != "req-123" {
		t.Errorf("handler saw request_id %q", w.Body.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["request_id"] != "req-123" {
		t.Errorf("logged request_id = %v", entry["request_id"])
	}
}

func TestGinLogger_GeneratesRequestID(t *testing.T) {
	SetOutput(io.Discard)

	r := gin.New()
	r.Use(GinLogger())
	r.GET("/ping", func(c *gin.Context) { c.Status(204) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	r.ServeHTTP(w, req)

	if len(w.Header().Get(RequestIDHeader)) != 36 {
		t.Errorf("expected a generated uuid, got %q", w.Header().Get(RequestIDHeader))
	}
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"", ""},
		{"page=2", "page=2"},
		{"token=eyJhbGciOi.abc.def", "token=%2A%2A%2A"},
		{"page=1&token=secret", "page=1&token=%2A%2A%2A"},
	}

	for _, tt := range tests {
		got := redactQuery(tt.raw)
		if got != tt.expected {
			t.Errorf("redactQuery(%q) = %q, expected %q", tt.raw, got, tt.expected)
		}
		if strings.Contains(got, "secret") {
			t.Errorf("redactQuery(%q) leaked the token", tt.raw)
		}
	}
}
