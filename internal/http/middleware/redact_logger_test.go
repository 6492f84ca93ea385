package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"msisdn=254712345678":                     "msisdn=[REDACTED:msisdn]",
		"+254712345678":                           "[REDACTED:msisdn]",
		"call 0712345678 now":                     "call [REDACTED:msisdn] now",
		"mail a.b+tag@example.com":                "mail [REDACTED:email]",
		"id=123e4567-e89b-12d3-a456-426614174000": "id=[REDACTED:id]",
		"phone 555-123-4567":                      "phone [REDACTED:phone]",
		"receipt=NLJ7RT61SV":                      "receipt=NLJ7RT61SV",
		"":                                        "",
	}
	for in, want := range cases {
		if got := redact(in); got != want {
			t.Errorf("redact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.POST("/callbacks/:kind", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	q := "MSISDN=254712345678&email=a@b.com&id=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodPost, "/callbacks/c2b?"+q, strings.NewReader(`{"MSISDN":"254799999999"}`))
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Payer", "msisdn 254712345678")
	req.Header.Set(requestIDHeader, "rid-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/callbacks/:kind"`,
		`"request_id":"rid-1"`,
		`"message":"http_request"`,
		`MSISDN=[REDACTED:msisdn]`,
		`[REDACTED:email]`,
		`[REDACTED:id]`,
		`"Authorization":"[REDACTED]"`,
		`"Cookie":"[REDACTED]"`,
		`"X-Api-Key":"[REDACTED]"`,
		`"X-Payer":"msisdn [REDACTED:msisdn]"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %s in log, got: %s", want, logs)
		}
	}
	for _, leak := range []string{"254712345678", "254799999999", "topsecret", "shhh"} {
		if strings.Contains(logs, leak) {
			t.Fatalf("log leaked %q: %s", leak, logs)
		}
	}
}

type errSentinel struct{}

func (errSentinel) Error() string { return "boom" }

func TestRedactingLogger_Levels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/ginerr", func(c *gin.Context) {
		_ = c.Error(errSentinel{})
		c.Status(http.StatusOK)
	})

	for _, p := range []string{"/warn", "/error", "/ginerr", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 access lines, got %d: %s", len(lines), buf.String())
	}
	wants := []string{`"level":"warn"`, `"level":"error"`, `"errors":"Error #01: boom`, `"path":"/missing"`}
	for i, want := range wants {
		if !strings.Contains(lines[i], want) {
			t.Fatalf("line %d: expected %s, got %s", i, want, lines[i])
		}
	}
}
