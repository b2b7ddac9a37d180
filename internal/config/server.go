package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"VisionGuide/database/postgres"
	analysisHandler "VisionGuide/internal/api/analysis/handler"
	analysisRepository "VisionGuide/internal/api/analysis/repository"
	analysisService "VisionGuide/internal/api/analysis/service"
	"VisionGuide/internal/middleware"
	"VisionGuide/pkg/audio"
	"VisionGuide/pkg/depth"
	"VisionGuide/pkg/frames"
	"VisionGuide/pkg/gemini"
	"VisionGuide/pkg/redis"
	"VisionGuide/pkg/s3"
	"VisionGuide/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine       *fiber.App
	db           *sqlx.DB
	log          *logrus.Logger
	middleware   middleware.Middleware
	validator    *validator.Validate
	utils        utils.IUtils
	handlers     []handler
	redisServer  redis.IRedis
	s3Client     s3.ItfS3
	geminiClient gemini.IGemini
	depthClient  depth.IDepth
	speech       audio.ISpeech
	frameStore   *frames.Store
	pipeline     analysisService.Config
	hasPipeline  bool
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.geminiClient == nil || server.depthClient == nil || server.speech == nil {
		return nil, fmt.Errorf("detection, depth and speech gateways are required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDatabase connects to postgres and applies the frame_timings schema.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		if err := postgres.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithGeminiClient() ServerOption {
	return func(s *Server) error {
		client, err := gemini.NewGeminiClient()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to create Gemini client: %v", err)
			}
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
		return nil
	}
}

func WithDepthClient(cfg depth.Config) ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before the depth client")
		}
		client, err := depth.New(s.log, cfg)
		if err != nil {
			s.log.Errorf("Failed to create depth client: %v", err)
			return fmt.Errorf("failed to create depth client: %w", err)
		}
		s.depthClient = client
		return nil
	}
}

// WithSpeech builds the engine dispatcher. The redis cache is used when
// WithRedisServer was applied first.
func WithSpeech(cfg audio.SpeechConfig) ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before speech")
		}
		if cfg.Cache == nil {
			cfg.Cache = s.redisServer
		}
		s.speech = audio.NewSpeechService(s.log, cfg)
		return nil
	}
}

func WithFrameStore(store *frames.Store) ServerOption {
	return func(s *Server) error {
		s.frameStore = store
		return nil
	}
}

func WithPipelineConfig(cfg analysisService.Config) ServerOption {
	return func(s *Server) error {
		s.pipeline = cfg
		s.hasPipeline = true
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	if !s.hasPipeline {
		s.pipeline = analysisService.DefaultConfig()
	}
	if s.frameStore == nil {
		s.frameStore = frames.NewFromEnv()
	}
	if s.utils == nil {
		s.utils = utils.New()
	}

	// Analysis Domain
	deps := analysisService.Dependencies{
		Detector:  s.geminiClient,
		Depth:     s.depthClient,
		Speaker:   s.speech,
		Frames:    s.frameStore,
		Artefacts: s.frameStore,
		Optimizer: s.utils,
		IDs:       s.utils,
	}
	if s.s3Client != nil {
		deps.Uploader = s.s3Client
	}
	if s.db != nil {
		deps.Repo = analysisRepository.New(s.db, s.log)
	}

	progress := analysisHandler.NewProgressHub(s.log)
	analysisServices := analysisService.New(s.log, s.pipeline, deps, progress)
	analysisHandlers := analysisHandler.New(s.log, s.validator, s.middleware, analysisServices, s.utils, progress)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, analysisHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware)
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops accepting requests, then releases the gateway clients.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	if s.geminiClient != nil {
		s.geminiClient.Close()
	}
	if s.depthClient != nil {
		s.depthClient.Close()
	}
	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil {
			s.log.Errorf("Failed to close database: %v", closeErr)
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		status := fiber.Map{
			"detection": s.geminiClient != nil,
			"depth":     s.depthClient != nil,
			"speech":    s.speech != nil,
			"database":  s.db != nil,
			"storage":   s.s3Client != nil,
			"cache":     s.redisServer != nil,
		}

		if s.redisServer != nil {
			c, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
			defer cancel()
			status["cache"] = s.redisServer.Ping(c) == nil
		}

		return ctx.JSON(fiber.Map{
			"message":  "Server is Healthy!",
			"gateways": status,
		})
	})
}
