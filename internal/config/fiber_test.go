package config

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func TestFiberErrorHandlerUsesErrorShape(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app := NewFiber(logger)
	app.Get("/ws", func(c *fiber.Ctx) error { return fiber.ErrUpgradeRequired })

	resp, err := app.Test(httptest.NewRequest("GET", "/ws", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"error":"Upgrade Required"`) {
		t.Errorf("unexpected body %s", body)
	}
}
