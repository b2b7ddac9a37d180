package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"VisionGuide/internal/config"
	"VisionGuide/pkg/audio"
	"VisionGuide/pkg/depth"
	"VisionGuide/pkg/frames"
	"VisionGuide/pkg/log"
	"VisionGuide/pkg/openai"
	"VisionGuide/pkg/redis"
	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}

	pipeline, err := config.LoadPipelineConfig()
	if err != nil {
		logger.Fatalf("Invalid pipeline configuration: %v", err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()

	speech := audio.SpeechConfig{
		OpenAI:   openai.NewSpeech(),
		GTTS:     audio.NewGTTSService(),
		CacheTTL: audio.CacheTTLFromEnv(),
	}
	if key := os.Getenv("ELEVENLABS_API_KEY"); key != "" {
		speech.ElevenLabs = audio.NewTTSService(key, os.Getenv("ELEVENLABS_VOICE_ID"))
	}

	options := []config.ServerOption{
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithMiddleware(),
		config.WithUtils(),
		config.WithGeminiClient(),
		config.WithDepthClient(depth.ConfigFromEnv()),
		config.WithFrameStore(frames.NewFromEnv()),
		config.WithPipelineConfig(pipeline),
	}

	if os.Getenv("REDIS_ADDRESS") != "" {
		options = append(options, config.WithRedisServer(redis.New()))
	}
	// WithSpeech picks up the redis cache, so it goes after it.
	options = append(options, config.WithSpeech(speech))

	if os.Getenv("DB_HOST") != "" {
		options = append(options, config.WithDatabase())
	}
	if os.Getenv("AWS_BUCKET_NAME") != "" {
		options = append(options, config.WithS3Client())
	}

	server, err := config.NewServer(options...)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(30 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
