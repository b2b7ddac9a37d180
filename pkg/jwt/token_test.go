package jwtPkg

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"VisionGuide/internal/entity"
	"github.com/gofiber/fiber/v2"
)

func TestSignAndVerifyClient(t *testing.T) {
	t.Setenv(AccessTokenSecret, "test-secret")

	token, exp, err := SignClient(entity.Client{ID: "device-1", Name: "cane"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if exp <= time.Now().Unix() {
		t.Errorf("expiry %d is in the past", exp)
	}

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		parsed, err := VerifyTokenHeader(c, AccessTokenSecret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
		client, err := ClientFromClaims(parsed)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString(err.Error())
		}
		return c.SendString(client.ID)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || string(body) != "device-1" {
		t.Errorf("status %d body %q", resp.StatusCode, body)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Token "+token)
	resp, _ = app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("malformed header accepted, status %d", resp.StatusCode)
	}
}

func TestSignRequiresSecret(t *testing.T) {
	t.Setenv(AccessTokenSecret, "")
	if _, _, err := Sign(map[string]interface{}{"id": "x"}, time.Minute); err == nil {
		t.Error("expected an error without a secret")
	}
}
