package analysisHandler

import (
	"time"

	"VisionGuide/pkg/audio"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

const (
	maxReadTimeout  = 60 * time.Second
	maxWriteTimeout = 10 * time.Second
)

type wsError struct {
	Error string `json:"error"`
}

// handleWebSocket analyses each binary JPEG message as an ad-hoc frame.
// The FrameAnalysis JSON is written first, then the audio as a binary
// message when speech produced any.
func (h *AnalysisHandler) handleWebSocket(c *websocket.Conn) {
	h.log.Info("Analysis WebSocket client connected")
	defer h.log.Info("Analysis WebSocket client disconnected")

	engine, err := h.analysisService.ParseEngine(c.Query("engine"))
	if err != nil {
		_ = c.WriteJSON(wsError{Error: err.Error()})
		return
	}
	voice := audio.VoiceParams{
		Voice:    c.Query("voice"),
		Language: c.Query("lang"),
	}

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Analysis WebSocket error: %v", err)
			} else {
				h.log.Info("Analysis WebSocket connection closed")
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		if err := h.utils.ValidateImage(message); err != nil {
			if writeErr := c.WriteJSON(wsError{Error: err.Error()}); writeErr != nil {
				break
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
		result, err := h.analysisService.AnalyzeImage(ctx, message, engine, voice)
		cancel()

		if err != nil {
			h.log.Errorf("Error analysing frame: %v", err)
			if writeErr := c.WriteJSON(wsError{Error: err.Error()}); writeErr != nil {
				h.log.Errorf("Error sending error response: %v", writeErr)
				break
			}
			continue
		}

		if err := c.SetWriteDeadline(time.Now().Add(maxWriteTimeout)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(result); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}

		if len(result.Audio.Bytes) > 0 {
			if err := c.WriteMessage(websocket.BinaryMessage, result.Audio.Bytes); err != nil {
				h.log.Errorf("Error writing audio: %v", err)
				break
			}
		}

		if err := c.SetWriteDeadline(time.Time{}); err != nil {
			h.log.Errorf("Error resetting write deadline: %v", err)
			break
		}
	}
}
