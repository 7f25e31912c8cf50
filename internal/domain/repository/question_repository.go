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

type QuestionRepository interface {
	Create(ctx context.Context, question *model.Question) error
	GetByID(ctx context.Context, id string) (*model.Question, error)
	FindByPlatformKey(ctx context.Context, platform model.Platform, key string) (*model.Question, error)
	ListByPhase(ctx context.Context, phaseID string) ([]model.Question, error)
	List(ctx context.Context, phaseID *string) ([]model.Question, error)
	CountByPhase(ctx context.Context, phaseID string) (int64, error)
	Update(ctx context.Context, question *model.Question) error
	Delete(ctx context.Context, id string) error
}

type mongoQuestionRepository struct {
	coll *mongo.Collection
}

func NewMongoQuestionRepository(db *mongo.Database) QuestionRepository {
	return &mongoQuestionRepository{coll: db.Collection("questions")}
}

func (r *mongoQuestionRepository) Create(ctx context.Context, q *model.Question) error {
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now
	if q.Tags == nil {
		q.Tags = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, q); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("question %s/%s already exists: %w", q.Platform, q.QuestionKey, common.ErrConflict)
		}
		return fmt.Errorf("mongoQuestionRepository.Create: %w", err)
	}
	return nil
}

func (r *mongoQuestionRepository) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("question %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("mongoQuestionRepository.GetByID: %w", err)
	}
	return &q, nil
}

func (r *mongoQuestionRepository) FindByPlatformKey(ctx context.Context, platform model.Platform, key string) (*model.Question, error) {
	var q model.Question
	err := r.coll.FindOne(ctx, bson.M{"platform": platform, "question_key": key}).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("question %s/%s: %w", platform, key, common.ErrNotFound)
		}
		return nil, fmt.Errorf("mongoQuestionRepository.FindByPlatformKey: %w", err)
	}
	return &q, nil
}

func (r *mongoQuestionRepository) ListByPhase(ctx context.Context, phaseID string) ([]model.Question, error) {
	return r.find(ctx, bson.M{"phase_id": phaseID})
}

func (r *mongoQuestionRepository) List(ctx context.Context, phaseID *string) ([]model.Question, error) {
	filter := bson.M{}
	if phaseID != nil {
		filter["phase_id"] = *phaseID
	}
	return r.find(ctx, filter)
}

func (r *mongoQuestionRepository) find(ctx context.Context, filter bson.M) ([]model.Question, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongoQuestionRepository.find: %w", err)
	}
	var questions []model.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("mongoQuestionRepository.find decode: %w", err)
	}
	return questions, nil
}

func (r *mongoQuestionRepository) CountByPhase(ctx context.Context, phaseID string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"phase_id": phaseID})
	if err != nil {
		return 0, fmt.Errorf("mongoQuestionRepository.CountByPhase: %w", err)
	}
	return n, nil
}

func (r *mongoQuestionRepository) Update(ctx context.Context, q *model.Question) error {
	q.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"platform":      q.Platform,
		"question_key":  q.QuestionKey,
		"title":         q.Title,
		"url":           q.URL,
		"difficulty":    q.Difficulty,
		"tags":          q.Tags,
		"phase_id":      q.PhaseID,
		"master_column": q.MasterColumn,
		"time_column":   q.TimeColumn,
		"updated_at":    q.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": q.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("question %s/%s already exists: %w", q.Platform, q.QuestionKey, common.ErrConflict)
		}
		return fmt.Errorf("mongoQuestionRepository.Update: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("question %s: %w", q.ID, common.ErrNotFound)
	}
	return nil
}

func (r *mongoQuestionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongoQuestionRepository.Delete: %w", err)
	}
	return nil
}
