package depth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"VisionGuide/internal/entity"
	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type IDepth interface {
	EstimateDepth(ctx context.Context, image []byte, objects []entity.DetectedObject) ([]entity.RankedObject, error)
	Close()
}

type Config struct {
	URL          string
	PoolSize     int
	Invert       bool
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
}

func ConfigFromEnv() Config {
	poolSize, err := strconv.Atoi(os.Getenv("DEPTH_POOL_SIZE"))
	if err != nil || poolSize <= 0 {
		poolSize = 5
	}
	invert, _ := strconv.ParseBool(os.Getenv("DEPTH_INVERT"))

	return Config{
		URL:          os.Getenv("DEPTH_SERVICE_URL"),
		PoolSize:     poolSize,
		Invert:       invert,
		WriteTimeout: 5 * time.Second,
		ReadTimeout:  30 * time.Second,
	}
}

// depthClient keeps a fixed pool of websocket connections to the depth
// service. Each request borrows one connection for a full round trip, so
// concurrent frames never interleave their replies.
type depthClient struct {
	log    *logrus.Logger
	cfg    Config
	dialer *websocket.Dialer
	slots  chan *websocket.Conn
}

func New(log *logrus.Logger, cfg Config) (IDepth, error) {
	if cfg.URL == "" {
		return nil, errors.New("depth service URL is required")
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 1
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	c := &depthClient{
		log:    log,
		cfg:    cfg,
		dialer: &dialer,
		slots:  make(chan *websocket.Conn, cfg.PoolSize),
	}
	for i := 0; i < cfg.PoolSize; i++ {
		c.slots <- nil
	}

	return c, nil
}

func (c *depthClient) acquire(ctx context.Context) (*websocket.Conn, error) {
	select {
	case conn := <-c.slots:
		if conn != nil {
			return conn, nil
		}
		conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			c.slots <- nil
			return nil, fmt.Errorf("failed to connect to depth service: %w", err)
		}
		c.log.WithField("url", c.cfg.URL).Debug("Connected to depth service")
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release returns a healthy connection to the pool, or frees the slot.
func (c *depthClient) release(conn *websocket.Conn, healthy bool) {
	if !healthy && conn != nil {
		conn.Close()
		conn = nil
	}
	c.slots <- conn
}

func (c *depthClient) EstimateDepth(ctx context.Context, image []byte, objects []entity.DetectedObject) ([]entity.RankedObject, error) {
	if len(objects) == 0 {
		return []entity.RankedObject{}, nil
	}

	conn, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}

	// unblock a pending read when the caller gives up
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})

	depthMap, err := c.roundTrip(ctx, conn, image)
	interrupted := !stop()
	c.release(conn, err == nil && !interrupted)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	results, err := ObjectDepths(*depthMap, objects, c.cfg.Invert)
	if err != nil {
		return nil, err
	}
	if len(results) != len(objects) {
		return nil, fmt.Errorf("depth returned %d objects, expected %d", len(results), len(objects))
	}
	return results, nil
}

func (c *depthClient) roundTrip(ctx context.Context, conn *websocket.Conn, image []byte) (*DepthMap, error) {
	writeDeadline := time.Now().Add(c.cfg.WriteTimeout)
	readDeadline := time.Now().Add(c.cfg.ReadTimeout)
	if dl, ok := ctx.Deadline(); ok {
		if dl.Before(writeDeadline) {
			writeDeadline = dl
		}
		if dl.Before(readDeadline) {
			readDeadline = dl
		}
	}

	conn.SetWriteDeadline(writeDeadline)
	if err := conn.WriteMessage(websocket.BinaryMessage, image); err != nil {
		return nil, fmt.Errorf("error sending frame to depth service: %w", err)
	}

	conn.SetReadDeadline(readDeadline)
	// overrides any deadline a cancellation already set on conn
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messageType, message, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("error reading depth map: %w", err)
	}
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	if messageType != websocket.BinaryMessage {
		return nil, fmt.Errorf("depth service error: %s", string(message))
	}

	var depthMap DepthMap
	if err := cbor.Unmarshal(message, &depthMap); err != nil {
		return nil, fmt.Errorf("error decoding depth map: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"width":  depthMap.Width,
		"height": depthMap.Height,
	}).Debug("Received depth map")

	return &depthMap, nil
}

func (c *depthClient) Close() {
	for i := 0; i < c.cfg.PoolSize; i++ {
		conn := <-c.slots
		if conn != nil {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteTimeout))
			conn.Close()
		}
	}
}
