package analysisHandler

import (
	"context"
	"errors"
	"testing"

	"VisionGuide/internal/api/analysis"
	"VisionGuide/internal/entity"
	"github.com/sirupsen/logrus"
)

func TestProgressHubPublishes(t *testing.T) {
	hub := NewProgressHub(logrus.New())
	events, unsubscribe := hub.subscribe()

	hub.OnFrameDone("walk", 0, &entity.FrameAnalysis{Guidance: entity.GuidanceResult{Text: "clear"}}, nil)
	hub.OnFrameDone("walk", 1, nil, &analysis.StageError{FrameIndex: 1, Stage: analysis.StageDepth, Err: errors.New("down")})

	first, second := <-events, <-events
	if first.Status != "done" || first.Guidance != "clear" {
		t.Errorf("unexpected event %+v", first)
	}
	if second.Status != "failed" || second.Stage != "depth" || second.Error != "down" {
		t.Errorf("unexpected event %+v", second)
	}

	hub.OnBatchCancelled("walk", context.Canceled)
	if e := <-events; e.Status != "cancelled" || e.FrameIndex != -1 || e.Error != context.Canceled.Error() {
		t.Errorf("unexpected cancellation event %+v", e)
	}

	unsubscribe()
	hub.OnFrameDone("walk", 2, nil, nil)
	select {
	case e := <-events:
		t.Errorf("event delivered after unsubscribe: %+v", e)
	default:
	}
}

func TestProgressHubDropsForSlowSubscriber(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	hub := NewProgressHub(logger)
	events, unsubscribe := hub.subscribe()
	defer unsubscribe()

	for i := 0; i < progressBuffer+10; i++ {
		hub.OnFrameDone("walk", i, nil, nil)
	}
	if len(events) != progressBuffer {
		t.Errorf("buffered %d events, want %d", len(events), progressBuffer)
	}
}
