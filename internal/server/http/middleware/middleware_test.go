package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(cookieName string) *gin.Engine {
	r := gin.New()
	r.Use(AuthRequired(cookieName))
	r.GET("/echo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"token": Token(c)})
	})
	return r
}

func TestAuthRequiredBearerHeader(t *testing.T) {
	router := newAuthRouter("portal_token")

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["token"] != "secret-token" {
		t.Fatalf("expected forwarded token, got %q", resp["token"])
	}
}

func TestAuthRequiredHeaderCaseInsensitive(t *testing.T) {
	router := newAuthRouter("portal_token")

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("Authorization", "bearer secret-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRequiredCookieFallback(t *testing.T) {
	router := newAuthRouter("portal_token")

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.AddCookie(&http.Cookie{Name: "portal_token", Value: "cookie-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cookie-token") {
		t.Fatalf("expected cookie token forwarded, got %s", rec.Body.String())
	}
}

func TestAuthRequiredHeaderWinsOverCookie(t *testing.T) {
	router := newAuthRouter("portal_token")

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "portal_token", Value: "cookie-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "header-token") {
		t.Fatalf("expected header token to win, got %s", rec.Body.String())
	}
}

func TestAuthRequiredRejectsAnonymous(t *testing.T) {
	router := newAuthRouter("portal_token")

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unauthorized") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestTokenWithoutMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/raw", func(c *gin.Context) {
		c.String(http.StatusOK, Token(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/raw", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Body.String() != "" {
		t.Fatalf("expected empty token, got %q", rec.Body.String())
	}
}

func TestDecompressRequest(t *testing.T) {
	r := gin.New()
	r.Use(DecompressRequest())
	r.POST("/body", func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, string(data))
	})

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write([]byte(`{"paymentMethod":"BANK"}`)); err != nil {
		t.Fatalf("failed to compress body: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/body", &compressed)
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"paymentMethod":"BANK"}` {
		t.Fatalf("unexpected decompressed body %q", rec.Body.String())
	}
}

func TestDecompressRequestRejectsBrokenPayload(t *testing.T) {
	r := gin.New()
	r.Use(DecompressRequest())
	r.POST("/body", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/body", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDecompressRequestPassesPlainBody(t *testing.T) {
	r := gin.New()
	r.Use(DecompressRequest())
	r.POST("/body", func(c *gin.Context) {
		data, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(data))
	})

	req := httptest.NewRequest(http.MethodPost, "/body", strings.NewReader("plain"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Body.String() != "plain" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log entry %q: %v", buf.String(), err)
	}
	if entry["msg"] != "http request" || entry["path"] != "/ok" {
		t.Fatalf("unexpected log entry %v", entry)
	}
	if status, ok := entry["status"].(float64); !ok || int(status) != http.StatusNoContent {
		t.Fatalf("unexpected status in log %v", entry["status"])
	}
}
