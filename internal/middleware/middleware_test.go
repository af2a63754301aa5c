package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newSessions(t *testing.T) *SessionManager {
	t.Helper()
	sm, err := NewSessionManager(SessionConfig{SecretKey: "test-secret"})
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	return sm
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	tests := []struct {
		name   string
		header string
	}{
		{"generated", ""},
		{"propagated", "req-123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			if got == "" || got != w.Body.String() {
				t.Fatalf("X-Request-ID = %q, body = %q", got, w.Body.String())
			}
			if tt.header != "" && got != tt.header {
				t.Errorf("X-Request-ID = %q, want %q", got, tt.header)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.POST("/api/uploads", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/uploads", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		errType    gin.ErrorType
		wantStatus int
		wantError  string
	}{
		{"private", errors.New("boom"), gin.ErrorTypePrivate, http.StatusInternalServerError, "Internal server error"},
		{"public", errors.New("file type not allowed"), gin.ErrorTypePublic, http.StatusBadRequest, "file type not allowed"},
		{"bind", errors.New("missing field"), gin.ErrorTypeBind, http.StatusBadRequest, "Invalid request format"},
		{"too large", &http.MaxBytesError{Limit: 10}, gin.ErrorTypePrivate, http.StatusRequestEntityTooLarge, "Request too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestID(), ErrorHandler(quietLogger()))
			router.GET("/", func(c *gin.Context) {
				c.Error(tt.err).SetType(tt.errType)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), `"error":"`+tt.wantError+`"`) {
				t.Errorf("body = %s", w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"request_id"`) {
				t.Errorf("body missing request_id: %s", w.Body.String())
			}
		})
	}
}

func TestErrorHandler_AlreadyWritten(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(quietLogger()))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusTeapot, "handled")
		c.Error(errors.New("logged only"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusTeapot || w.Body.String() != "handled" {
		t.Errorf("response overwritten: %d %q", w.Code, w.Body.String())
	}
}

func TestRequestSizeLimit(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(quietLogger()), RequestSizeLimit(8))
	router.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name       string
		body       string
		chunked    bool
		wantStatus int
	}{
		{"within limit", "12345678", false, http.StatusOK},
		{"declared too large", "123456789", false, http.StatusRequestEntityTooLarge},
		{"streamed too large", "123456789", true, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestClientLimiter(t *testing.T) {
	limiter := NewClientLimiter(1, 2)
	current := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return current }

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if limiter.Allow("a") {
		t.Error("third request should be limited")
	}
	if !limiter.Allow("b") {
		t.Error("other clients have their own bucket")
	}

	current = current.Add(time.Second)
	if !limiter.Allow("a") {
		t.Error("token should refill after a second")
	}

	current = current.Add(time.Hour)
	limiter.Allow("c")
	if limiter.Clients() != 1 {
		t.Errorf("Clients() = %d, want idle buckets swept", limiter.Clients())
	}
}

func TestRateLimiter(t *testing.T) {
	router := gin.New()
	router.Use(RateLimiter(NewClientLimiter(0.001, 1), quietLogger()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestSessionManager_IssueVerify(t *testing.T) {
	sm := newSessions(t)
	sid := uuid.New().String()

	token, err := sm.Issue(sid)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	got, err := sm.Verify(token)
	if err != nil || got != sid {
		t.Fatalf("Verify() = %q, %v", got, err)
	}

	other, _ := NewSessionManager(SessionConfig{SecretKey: "other-secret"})
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Verify() with wrong key error = %v", err)
	}

	sm.now = func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }
	if _, err := sm.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Verify() expired error = %v", err)
	}

	if _, err := NewSessionManager(SessionConfig{}); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestSession_Middleware(t *testing.T) {
	sm := newSessions(t)
	router := gin.New()
	router.Use(Session(sm, quietLogger()))
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(SessionIDKey)) })

	// First request gets a new cookie
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}
	sid := w.Body.String()
	if _, err := uuid.Parse(sid); err != nil {
		t.Fatalf("session id %q is not a uuid", sid)
	}

	// Returning with the cookie keeps the session
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Body.String() != sid {
		t.Errorf("session = %q, want %q", w.Body.String(), sid)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("valid session should not be reissued")
	}

	// A forged cookie is replaced
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Body.String() == sid || len(w.Result().Cookies()) != 1 {
		t.Errorf("forged cookie should yield a new session")
	}
}

func TestStructuredLogger(t *testing.T) {
	logger := quietLogger()
	var entries []*logrus.Entry
	logger.AddHook(&captureHook{entries: &entries})

	router := gin.New()
	router.Use(RequestID(), StructuredLogger(logger))
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing?x=1", nil))

	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", e.Level)
	}
	if e.Data["status_code"] != http.StatusNotFound || e.Data["query"] != "x=1" || e.Data["request_id"] == "" {
		t.Errorf("fields = %v", e.Data)
	}
}

type captureHook struct {
	entries *[]*logrus.Entry
}

func (h *captureHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *captureHook) Fire(e *logrus.Entry) error {
	*h.entries = append(*h.entries, e)
	return nil
}
