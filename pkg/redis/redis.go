package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrCacheMiss = errors.New("cache miss")

const audioKeyPrefix = "visionguide:audio:"

type IRedis interface {
	GetAudio(ctx context.Context, key string) ([]byte, error)
	SetAudio(ctx context.Context, key string, data []byte, expiration time.Duration) error
	Ping(ctx context.Context) error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

// NewWithClient wraps an existing go-redis client.
func NewWithClient(client *redis.Client) IRedis {
	return &redisClient{client: client}
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) SetAudio(ctx context.Context, key string, data []byte, expiration time.Duration) error {
	logrus.Debug(fmt.Sprintf("Caching audio for key %s with expiration %v", key, expiration))
	err := r.client.Set(ctx, audioKeyPrefix+key, data, expiration).Err()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error caching audio for key %s: %v", key, err))
		return err
	}
	return nil
}

func (r *redisClient) GetAudio(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, audioKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("Audio not cached for key %s", key))
		return nil, ErrCacheMiss
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error getting cached audio for key %s: %v", key, err))
		return nil, err
	}
	logrus.Debug(fmt.Sprintf("Audio cache hit for key %s", key))
	return val, nil
}
