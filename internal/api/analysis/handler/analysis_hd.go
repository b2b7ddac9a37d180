package analysisHandler

import (
	"errors"
	"time"

	"VisionGuide/internal/api/analysis"
	contextPkg "VisionGuide/pkg/context"
	"VisionGuide/pkg/handlerUtil"
	"VisionGuide/pkg/log"
	"VisionGuide/pkg/response"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

// Batch runs are long: every frame goes through four remote stages.
const (
	batchTimeout = 10 * time.Minute
	frameTimeout = 2 * time.Minute
	queryTimeout = 10 * time.Second
)

func (h *AnalysisHandler) ListBatches(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), queryTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	batches, err := h.analysisService.ListBatches(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_batches")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, analysis.BatchListResponse{
			Batches: batches,
		})
	}
}

func (h *AnalysisHandler) RunBatch(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), batchTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req analysis.RunBatchRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
		}
	}
	req.BatchID = ctx.Params("batch_id")

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"batch_id":   req.BatchID,
		"start":      req.Start,
		"end":        req.End,
		"engine":     req.Engine,
	}).Info("Starting batch run")

	outcome, err := h.analysisService.RunBatch(c, req)
	if err != nil {
		if errors.Is(err, analysis.ErrBatchFailed) && outcome != nil {
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"batch_id":   req.BatchID,
				"failed":     outcome.FailedCount,
			}).Error("Every frame in the batch failed")
			return ctx.Status(response.StatusCode(err, fiber.StatusInternalServerError)).JSON(fiber.Map{
				"error": analysis.ErrBatchFailed.Error(),
				"data":  outcome,
			})
		}
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "run_batch")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"batch_id":   outcome.BatchID,
			"run_id":     outcome.RunID,
			"frames":     len(outcome.Frames),
			"failed":     outcome.FailedCount,
		}).Info("Batch run finished")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, analysis.BatchResponse{
			Data: *outcome,
		})
	}
}

func (h *AnalysisHandler) RunFrame(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), frameTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	index, err := ctx.ParamsInt("index")
	if err != nil || index < 0 {
		return errHandler.Handle(ctx, requestID, analysis.ErrInvalidFrameIndex, ctx.Path(), "parse_frame_index")
	}

	var req analysis.RunFrameRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_request_body")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	engine, err := h.analysisService.ParseEngine(req.Engine)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "parse_engine")
	}

	result, err := h.analysisService.RunSingleFrame(c, ctx.Params("batch_id"), index, engine, req.Voice)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "run_frame")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, analysis.FrameResponse{
			Data: *result,
		})
	}
}

func (h *AnalysisHandler) GetRunTimings(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), queryTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	runID := ctx.Params("run_id")
	timings, err := h.analysisService.GetRunTimings(c, runID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_run_timings")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, analysis.TimingsResponse{
			RunID:   runID,
			Timings: timings,
		})
	}
}
