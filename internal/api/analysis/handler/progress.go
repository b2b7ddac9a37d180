package analysisHandler

import (
	"errors"
	"sync"
	"time"

	"VisionGuide/internal/api/analysis"
	"VisionGuide/internal/entity"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const progressBuffer = 64

type FrameProgress struct {
	BatchID    string `json:"batch_id"`
	FrameIndex int    `json:"frame_index"`
	Status     string `json:"status"`
	Stage      string `json:"stage,omitempty"`
	Error      string `json:"error,omitempty"`
	Guidance   string `json:"guidance,omitempty"`
}

// ProgressHub fans scheduler frame events out to websocket subscribers.
// Slow subscribers lose events rather than stalling frame workers.
type ProgressHub struct {
	log  *logrus.Logger
	mu   sync.Mutex
	subs map[chan FrameProgress]struct{}
}

func NewProgressHub(log *logrus.Logger) *ProgressHub {
	return &ProgressHub{
		log:  log,
		subs: make(map[chan FrameProgress]struct{}),
	}
}

func (p *ProgressHub) OnFrameDone(batchID string, index int, result *entity.FrameAnalysis, err error) {
	event := FrameProgress{BatchID: batchID, FrameIndex: index, Status: "done"}

	var stageErr *analysis.StageError
	switch {
	case errors.As(err, &stageErr):
		event.Status = "failed"
		event.Stage = string(stageErr.Stage)
		event.Error = stageErr.Err.Error()
	case err != nil:
		event.Status = "failed"
		event.Error = err.Error()
	case result != nil:
		event.Guidance = result.Guidance.Text
	}

	p.broadcast(event)
}

// OnBatchCancelled tells subscribers to drop the batch's earlier frame events.
func (p *ProgressHub) OnBatchCancelled(batchID string, err error) {
	event := FrameProgress{BatchID: batchID, FrameIndex: -1, Status: "cancelled"}
	if err != nil {
		event.Error = err.Error()
	}
	p.broadcast(event)
}

func (p *ProgressHub) broadcast(event FrameProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ch := range p.subs {
		select {
		case ch <- event:
		default:
			p.log.WithField("batch_id", event.BatchID).Debug("Dropping progress event for slow subscriber")
		}
	}
}

func (p *ProgressHub) subscribe() (<-chan FrameProgress, func()) {
	ch := make(chan FrameProgress, progressBuffer)

	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		delete(p.subs, ch)
		p.mu.Unlock()
	}
}

// handleProgressWebSocket streams frame events, optionally only those of
// the batch named by ?batch_id=.
func (h *AnalysisHandler) handleProgressWebSocket(c *websocket.Conn) {
	h.log.Info("Progress WebSocket client connected")
	defer h.log.Info("Progress WebSocket client disconnected")

	batchID := c.Query("batch_id")
	events, unsubscribe := h.progress.subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case event := <-events:
			if batchID != "" && event.BatchID != batchID {
				continue
			}
			if err := c.SetWriteDeadline(time.Now().Add(maxWriteTimeout)); err != nil {
				return
			}
			if err := c.WriteJSON(event); err != nil {
				h.log.Errorf("Error writing progress event: %v", err)
				return
			}
		}
	}
}
