package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codetrack/internal/common"
	"codetrack/internal/domain/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]model.Submission, error)
	SetStatus(ctx context.Context, id string, status model.SubmissionStatus) error
	// MarkFailed records the terminal failed state with the error message.
	MarkFailed(ctx context.Context, id, message string) error
	// MarkCompleted records the terminal success: commit URL stored, sheet
	// updated, any prior error cleared.
	MarkCompleted(ctx context.Context, id, commitURL string) error
}

type mongoSubmissionRepository struct {
	coll *mongo.Collection
}

func NewMongoSubmissionRepository(db *mongo.Database) SubmissionRepository {
	return &mongoSubmissionRepository{coll: db.Collection("submissions")}
}

func (r *mongoSubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("mongoSubmissionRepository.Create: %w", err)
	}
	return nil
}

func (r *mongoSubmissionRepository) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("submission %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("mongoSubmissionRepository.GetByID: %w", err)
	}
	return &sub, nil
}

func (r *mongoSubmissionRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]model.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongoSubmissionRepository.ListByUser: %w", err)
	}
	var subs []model.Submission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("mongoSubmissionRepository.ListByUser decode: %w", err)
	}
	return subs, nil
}

func (r *mongoSubmissionRepository) SetStatus(ctx context.Context, id string, status model.SubmissionStatus) error {
	return r.update(ctx, id, bson.M{"status": status})
}

func (r *mongoSubmissionRepository) MarkFailed(ctx context.Context, id, message string) error {
	return r.update(ctx, id, bson.M{
		"status":        model.SubmissionFailed,
		"error_message": message,
	})
}

func (r *mongoSubmissionRepository) MarkCompleted(ctx context.Context, id, commitURL string) error {
	return r.update(ctx, id, bson.M{
		"status":        model.SubmissionCompleted,
		"commit_url":    commitURL,
		"sheet_updated": true,
		"error_message": nil,
	})
}

func (r *mongoSubmissionRepository) update(ctx context.Context, id string, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("mongoSubmissionRepository.update: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("submission %s: %w", id, common.ErrNotFound)
	}
	return nil
}
