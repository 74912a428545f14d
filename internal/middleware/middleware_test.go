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
)

// decodeProblem parses a problem+json body from a recorder.
func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/problem+json")
	}
	var problem map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("problem body did not parse: %v", err)
	}
	return problem
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

// ============================================================
// Chain
// ============================================================

func TestChain_FirstMiddlewareRunsOutermost(t *testing.T) {
	t.Parallel()

	var trace []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name+" in")
				next.ServeHTTP(w, r)
				trace = append(trace, name+" out")
			})
		}
	}

	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace = append(trace, "handler")
	}), tag("outer"), tag("inner"))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"outer in", "inner in", "handler", "inner out", "outer out"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("trace[%d] = %q, want %q", i, trace[i], want[i])
		}
	}
}

// ============================================================
// RequestID
// ============================================================

func TestRequestID_MintsAndEchoes(t *testing.T) {
	t.Parallel()

	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if seen == "" {
		t.Fatal("no request id on the context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("response X-Request-ID = %q, want %q", got, seen)
	}
}

func TestRequestID_KeepsInboundID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("X-Request-ID", "edge-7f3a")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "edge-7f3a" {
		t.Errorf("request id = %q, want %q", seen, "edge-7f3a")
	}
	if got := rec.Header().Get("X-Request-ID"); got != "edge-7f3a" {
		t.Errorf("response X-Request-ID = %q, want %q", got, "edge-7f3a")
	}
}

func TestGetRequestID_OutsideChain_Empty(t *testing.T) {
	t.Parallel()

	if got := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}

// ============================================================
// Logger
// ============================================================

func TestLogger_RecordsStatusAndMethod(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"event:1"}}`))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/events", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line did not parse: %v", err)
	}
	if line["method"] != "POST" {
		t.Errorf("logged method = %v, want POST", line["method"])
	}
	if line["path"] != "/api/events" {
		t.Errorf("logged path = %v, want /api/events", line["path"])
	}
	if line["status"] != float64(http.StatusCreated) {
		t.Errorf("logged status = %v, want %d", line["status"], http.StatusCreated)
	}
	if line["level"] != "INFO" {
		t.Errorf("logged level = %v, want INFO", line["level"])
	}
}

func TestLogger_ServerFaultLogsAtError(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events", nil))

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line did not parse: %v", err)
	}
	if line["level"] != "ERROR" {
		t.Errorf("logged level = %v, want ERROR", line["level"])
	}
}

// ============================================================
// Recovery
// ============================================================

func TestRecovery_PanicBecomesOpaqueProblem(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("ledger recompute went sideways")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/events/1/join", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	problem := decodeProblem(t, rec)
	if problem["title"] != "Internal Server Error" {
		t.Errorf("title = %v, want Internal Server Error", problem["title"])
	}
	// The panic text belongs in the log, never in the response.
	if strings.Contains(rec.Body.String(), "ledger recompute") {
		t.Error("panic detail leaked into the response body")
	}
	if !strings.Contains(buf.String(), "ledger recompute went sideways") {
		t.Error("panic detail missing from the log")
	}
}

func TestRecovery_NoPanic_PassesThrough(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Recovery(okHandler("ok")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("response = %d %q, want 200 ok", rec.Code, rec.Body.String())
	}
}

// ============================================================
// CORS
// ============================================================

func TestCORS_AllowedOriginGetsCredentialedHeaders(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"https://o2gather.com"})(okHandler("ok"))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Origin", "https://o2gather.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://o2gather.com" {
		t.Errorf("Allow-Origin = %q, want the caller's origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin", got)
	}
}

func TestCORS_UnknownOrigin_NoCORSHeaders(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"https://o2gather.com"})(okHandler("ok"))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q, want unset", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCORS_Preflight_ShortCircuits(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"https://o2gather.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run on preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/events/1/join", nil)
	req.Header.Set("Origin", "https://o2gather.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PUT") {
		t.Errorf("Allow-Methods = %q, want PUT included for the join endpoint", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Idempotency-Key") {
		t.Errorf("Allow-Headers = %q, want Idempotency-Key included", got)
	}
}

func TestCORS_WildcardEchoesOrigin(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"*"})(okHandler("ok"))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Echo rather than "*" so cookie-bearing requests still work.
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example" {
		t.Errorf("Allow-Origin = %q, want the caller's origin", got)
	}
}

// ============================================================
// Compress
// ============================================================

func TestCompress_GzipsWhenAccepted(t *testing.T) {
	t.Parallel()

	body := `{"data":{"amount":700,"members_count":3}}`
	handler := Compress(okHandler(body))

	req := httptest.NewRequest(http.MethodGet, "/api/events/1", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader() error = %v", err)
	}
	decoded, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("reading gzip body: %v", err)
	}
	if string(decoded) != body {
		t.Errorf("decoded body = %q, want %q", decoded, body)
	}
}

func TestCompress_PlainClientGetsPlainBody(t *testing.T) {
	t.Parallel()

	handler := Compress(okHandler("plain"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q, want unset", got)
	}
	if rec.Body.String() != "plain" {
		t.Errorf("body = %q, want plain", rec.Body.String())
	}
}
