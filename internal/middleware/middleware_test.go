package middleware

import (
	stdjson "encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"VisionGuide/internal/entity"
	"VisionGuide/pkg/handlerUtil"
	jwtPkg "VisionGuide/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func testMiddleware() *middleware {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &middleware{
		rateLimitter:        newRateLimiter(rate.Limit(1), 2),
		requestIDMiddleware: NewRequestIDMiddleware(),
		log:                 logger,
	}
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	m := testMiddleware()
	app := fiber.New()
	app.Get("/", m.NewRateLimiter, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	var statuses []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		if err != nil {
			t.Fatal(err)
		}
		statuses = append(statuses, resp.StatusCode)
	}

	if statuses[0] != fiber.StatusOK || statuses[1] != fiber.StatusOK || statuses[2] != fiber.StatusTooManyRequests {
		t.Errorf("unexpected statuses %v", statuses)
	}
}

func TestRequestIDIsGeneratedAndEchoed(t *testing.T) {
	m := testMiddleware()
	app := fiber.New()
	app.Use(m.NewRequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(m.GetRequestID(c)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if id := resp.Header.Get(RequestIDKey); len(id) != 26 {
		t.Errorf("expected a ULID request id, got %q", id)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDKey, "given")
	resp, _ = app.Test(req)
	if id := resp.Header.Get(RequestIDKey); id != "given" {
		t.Errorf("request id not propagated, got %q", id)
	}
}

func TestTokenMiddleware(t *testing.T) {
	t.Setenv(jwtPkg.AccessTokenSecret, "test-secret")
	m := testMiddleware()

	app := fiber.New()
	app.Get("/", m.NewTokenMiddleware, func(c *fiber.Ctx) error {
		client, err := jwtPkg.GetClient(c)
		if err != nil {
			return err
		}
		return c.SendString(client.ID)
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/", nil))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("missing token: status %d", resp.StatusCode)
	}
	var body handlerUtil.ErrorResponse
	if err := stdjson.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "UNAUTHORIZED" || body.Error != unauthorizedMessage {
		t.Errorf("unexpected unauthorized body %+v", body)
	}

	noID, _, err := jwtPkg.Sign(map[string]interface{}{"name": "anon"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+noID)
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("token without id: status %d", resp.StatusCode)
	}

	valid, _, err := jwtPkg.SignClient(entity.Client{ID: "device-7"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("valid token: status %d", resp.StatusCode)
	}
}

func TestSanitizeRequestBody(t *testing.T) {
	got := sanitizeRequestBody(fiber.MIMEApplicationJSON, []byte(`{"engine":"gtts","api_key":"abc"}`))
	if got != `{"api_key":"[SECRET]","engine":"gtts"}` {
		t.Errorf("unexpected sanitized body %s", got)
	}
	if got := sanitizeRequestBody("image/jpeg", []byte{0xFF, 0xD8}); got != "[binary body]" {
		t.Errorf("unexpected binary body %s", got)
	}
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	limiter := newRateLimiter(rate.Limit(1), 1)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	limiter.GetLimiterFrom("10.0.0.1")
	now = now.Add(limiterIdleTTL + time.Minute)
	limiter.GetLimiterFrom("10.0.0.2")

	if _, ok := limiter.bucket["10.0.0.1"]; ok {
		t.Error("idle bucket was not evicted")
	}
	if len(limiter.bucket) != 1 {
		t.Errorf("expected one bucket, got %d", len(limiter.bucket))
	}
}
