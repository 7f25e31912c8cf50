package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"codetrack/internal/app/service"
	"codetrack/internal/platform/config"
	"codetrack/internal/platform/queue"

	"github.com/redis/go-redis/v9"
)

// SubmissionWorker drains the submission queue with a pool of goroutines.
// A transient processing failure re-enqueues the job with an incremented
// attempt counter after an exponential backoff, up to the configured cap.
type SubmissionWorker struct {
	rdb       *redis.Client
	processor *service.SubmissionProcessor
}

func NewSubmissionWorker(rdb *redis.Client, processor *service.SubmissionProcessor) *SubmissionWorker {
	return &SubmissionWorker{rdb: rdb, processor: processor}
}

func (w *SubmissionWorker) Start(ctx context.Context) {
	count := config.AppConfig.WorkerCount
	if count < 1 {
		count = 1
	}
	log.Printf("INFO: starting %d submission workers on queue %q", count, config.AppConfig.SubmissionQueueName)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
	log.Println("INFO: all submission workers stopped")
}

func (w *SubmissionWorker) loop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := w.rdb.BRPop(ctx, 5*time.Second, config.AppConfig.SubmissionQueueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Printf("ERROR: worker %d BRPop: %v", id, err)
			time.Sleep(5 * time.Second)
			continue
		}
		if len(res) < 2 || res[1] == "" {
			continue
		}

		var job queue.SubmissionJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			log.Printf("ERROR: worker %d dropping malformed job payload: %v", id, err)
			continue
		}
		w.handle(ctx, id, job)
	}
}

func (w *SubmissionWorker) handle(ctx context.Context, id int, job queue.SubmissionJob) {
	log.Printf("INFO: worker %d processing submission %s (attempt %d)", id, job.SubmissionID, job.Attempt+1)

	err := w.processor.Process(ctx, job.SubmissionID)
	if err == nil {
		return
	}

	next := queue.SubmissionJob{SubmissionID: job.SubmissionID, Attempt: job.Attempt + 1}
	if next.Attempt >= config.AppConfig.QueueMaxAttempts {
		log.Printf("ERROR: submission %s exhausted %d attempts: %v", job.SubmissionID, next.Attempt, err)
		return
	}

	backoff := config.AppConfig.QueueBackoffBase * time.Duration(1<<job.Attempt)
	log.Printf("WARN: submission %s attempt %d failed, retrying in %s: %v", job.SubmissionID, job.Attempt+1, backoff, err)
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if err := queue.EnqueueSubmission(context.Background(), w.rdb, next); err != nil {
			log.Printf("ERROR: failed to re-enqueue submission %s: %v", job.SubmissionID, err)
		}
	}()
}
