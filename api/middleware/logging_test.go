package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/excommerce-backend/pkg/logger"
)

func TestLoggingRecordsRouteStatusAndSize(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	r := chi.NewRouter()
	r.Use(ClientIP(testProxies), Logging(logg))
	r.Post("/api/v1/orders/{name}/sales-order", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{}}`))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/SO-0001/sales-order", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected start and complete lines, got %d: %s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"message":"request.start"`) || !strings.Contains(lines[0], `"client_ip":"203.0.113.9"`) {
		t.Fatalf("unexpected start line: %s", lines[0])
	}
	for _, want := range []string{
		`"message":"request.complete"`,
		`"route":"/api/v1/orders/{name}/sales-order"`,
		`"status":201`,
		`"bytes":11`,
		`"level":"info"`,
	} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("complete line missing %s: %s", want, lines[1])
		}
	}

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	if out := buf.String(); !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"status":502`) {
		t.Fatalf("expected 5xx completion at warn: %s", out)
	}
}

func TestLoggingSkipsProbes(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(logger.New(logger.Options{Output: &buf}))(okHandler())

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d", path, rec.Code)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("probe requests should not be logged: %s", buf.String())
	}
}

func TestLoggingWithoutLoggerPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	Logging(nil)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}
