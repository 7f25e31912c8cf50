package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"codetrack/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// RDB stays nil when no Redis address is configured; callers fall back to
// inline, synchronous submission processing.
var RDB *redis.Client

// SubmissionJob is the envelope pushed onto the submission queue. Attempt
// counts completed delivery attempts, so the worker can enforce the bounded
// retry policy.
type SubmissionJob struct {
	SubmissionID string `json:"submission_id"`
	Attempt      int    `json:"attempt"`
}

func ConnectRedis() {
	if config.AppConfig.RedisAddr == "" {
		log.Println("REDIS_ADDR not set; submissions will be processed inline")
		return
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx := context.Background()
	if _, err := RDB.Ping(ctx).Result(); err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	fmt.Println("Successfully connected to Redis!")
}

// EnqueueSubmission pushes a job envelope onto the submission queue.
func EnqueueSubmission(ctx context.Context, rdb *redis.Client, job SubmissionJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal submission job: %w", err)
	}
	if err := rdb.LPush(ctx, config.AppConfig.SubmissionQueueName, payload).Err(); err != nil {
		return fmt.Errorf("failed to push submission job to Redis queue: %w", err)
	}
	return nil
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		fmt.Println("Redis connection closed.")
	}
}
