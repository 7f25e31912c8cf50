package service

import (
	"context"
	"fmt"
	"log"

	"codetrack/internal/common"
	"codetrack/internal/domain/model"
	"codetrack/internal/domain/repository"
	"codetrack/internal/platform/queue"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SubmissionService accepts solution submissions and hands them to the
// processing pipeline, through the queue when Redis is configured and inline
// otherwise.
type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	userRepo       repository.UserRepository
	questionRepo   repository.QuestionRepository
	processor      *SubmissionProcessor
	rdb            *redis.Client
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	userRepo repository.UserRepository,
	questionRepo repository.QuestionRepository,
	processor *SubmissionProcessor,
	rdb *redis.Client,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		questionRepo:   questionRepo,
		processor:      processor,
		rdb:            rdb,
	}
}

type CreateSubmissionInput struct {
	QuestionID  string `json:"question_id" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Language    string `json:"language" validate:"required"`
	TrialCount  int    `json:"trial_count" validate:"min=1"`
	TimeMinutes int    `json:"time_minutes" validate:"min=0"`
}

// CreateSubmission records a pending submission and enqueues it for
// processing. The caller gets the pending record back immediately; the commit
// and sheet update happen asynchronously.
func (s *SubmissionService) CreateSubmission(ctx context.Context, userID string, in CreateSubmissionInput) (*model.Submission, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.questionRepo.GetByID(ctx, in.QuestionID); err != nil {
		return nil, err
	}

	sub := &model.Submission{
		ID:          uuid.NewString(),
		UserID:      userID,
		QuestionID:  in.QuestionID,
		Code:        in.Code,
		Language:    in.Language,
		TrialCount:  in.TrialCount,
		TimeMinutes: in.TimeMinutes,
		Status:      model.SubmissionPending,
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	if s.rdb == nil {
		// No queue configured; process synchronously. The submission record
		// carries the outcome either way.
		if err := s.processor.Process(ctx, sub.ID); err != nil {
			log.Printf("ERROR: inline processing of submission %s: %v", sub.ID, err)
		}
		return s.submissionRepo.GetByID(ctx, sub.ID)
	}

	job := queue.SubmissionJob{SubmissionID: sub.ID, Attempt: 0}
	if err := queue.EnqueueSubmission(ctx, s.rdb, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue submission %s: %w: %v", sub.ID, common.ErrExternalService, err)
	}
	return sub, nil
}

func (s *SubmissionService) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	return s.submissionRepo.GetByID(ctx, id)
}

func (s *SubmissionService) ListUserSubmissions(ctx context.Context, userID string, limit int64) ([]model.Submission, error) {
	return s.submissionRepo.ListByUser(ctx, userID, limit)
}
