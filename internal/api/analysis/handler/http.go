package analysisHandler

import (
	analysisService "VisionGuide/internal/api/analysis/service"
	"VisionGuide/internal/middleware"
	"VisionGuide/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type AnalysisHandler struct {
	log             *logrus.Logger
	validator       *validator.Validate
	middleware      middleware.Middleware
	analysisService analysisService.IAnalysisService
	utils           utils.IUtils
	progress        *ProgressHub
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	as analysisService.IAnalysisService,
	utils utils.IUtils,
	progress *ProgressHub,
) *AnalysisHandler {
	if progress == nil {
		progress = NewProgressHub(log)
	}
	return &AnalysisHandler{
		analysisService: as,
		log:             log,
		validator:       validator,
		middleware:      middleware,
		utils:           utils,
		progress:        progress,
	}
}

func (h *AnalysisHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	analysis := srv.Group("/analysis")
	analysis.Use(h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware)

	analysis.Get("/batches", h.ListBatches)
	analysis.Post("/batches/:batch_id/run", h.RunBatch)
	analysis.Post("/batches/:batch_id/frames/:index", h.RunFrame)
	analysis.Get("/runs/:run_id/timings", h.GetRunTimings)

	analysis.Use("/ws", wsMiddleware)
	analysis.Get("/ws", websocket.New(h.handleWebSocket))
	analysis.Use("/progress", wsMiddleware)
	analysis.Get("/progress", websocket.New(h.handleProgressWebSocket))
}
