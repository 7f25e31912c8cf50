package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codetrack/internal/common"
	"codetrack/internal/domain/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MappingRepository interface {
	Create(ctx context.Context, mapping *model.QuestionGroupMapping) error
	// Upsert creates the (question, group) mapping if absent and leaves an
	// existing one untouched. Returns whether a new mapping was created.
	Upsert(ctx context.Context, questionID, groupID, trialColumn, timeColumn string) (bool, error)
	FindByQuestionAndGroup(ctx context.Context, questionID, groupID string) (*model.QuestionGroupMapping, error)
	List(ctx context.Context) ([]model.QuestionGroupMapping, error)
	Update(ctx context.Context, mapping *model.QuestionGroupMapping) error
	Delete(ctx context.Context, id string) error
}

type mongoMappingRepository struct {
	coll *mongo.Collection
}

func NewMongoMappingRepository(db *mongo.Database) MappingRepository {
	return &mongoMappingRepository{coll: db.Collection("question_group_mappings")}
}

func (r *mongoMappingRepository) Create(ctx context.Context, m *model.QuestionGroupMapping) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("mapping for question %s and group %s already exists: %w",
				m.QuestionID, m.GroupID, common.ErrConflict)
		}
		return fmt.Errorf("mongoMappingRepository.Create: %w", err)
	}
	return nil
}

func (r *mongoMappingRepository) Upsert(ctx context.Context, questionID, groupID, trialColumn, timeColumn string) (bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"question_id": questionID, "group_id": groupID}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          uuid.NewString(),
		"question_id":  questionID,
		"group_id":     groupID,
		"trial_column": trialColumn,
		"time_column":  timeColumn,
		"created_at":   now,
		"updated_at":   now,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// A concurrent upsert can still race into the unique index; that is
		// the same idempotent no-op as finding the document already there.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("mongoMappingRepository.Upsert: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

func (r *mongoMappingRepository) FindByQuestionAndGroup(ctx context.Context, questionID, groupID string) (*model.QuestionGroupMapping, error) {
	var m model.QuestionGroupMapping
	err := r.coll.FindOne(ctx, bson.M{"question_id": questionID, "group_id": groupID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mapping for question %s and group %s: %w", questionID, groupID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("mongoMappingRepository.FindByQuestionAndGroup: %w", err)
	}
	return &m, nil
}

func (r *mongoMappingRepository) List(ctx context.Context) ([]model.QuestionGroupMapping, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongoMappingRepository.List: %w", err)
	}
	var mappings []model.QuestionGroupMapping
	if err := cursor.All(ctx, &mappings); err != nil {
		return nil, fmt.Errorf("mongoMappingRepository.List decode: %w", err)
	}
	return mappings, nil
}

func (r *mongoMappingRepository) Update(ctx context.Context, m *model.QuestionGroupMapping) error {
	m.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"question_id":  m.QuestionID,
		"group_id":     m.GroupID,
		"trial_column": m.TrialColumn,
		"time_column":  m.TimeColumn,
		"updated_at":   m.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": m.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("mapping for question %s and group %s already exists: %w",
				m.QuestionID, m.GroupID, common.ErrConflict)
		}
		return fmt.Errorf("mongoMappingRepository.Update: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mapping %s: %w", m.ID, common.ErrNotFound)
	}
	return nil
}

func (r *mongoMappingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongoMappingRepository.Delete: %w", err)
	}
	return nil
}
