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

type PhaseRepository interface {
	Create(ctx context.Context, phase *model.Phase) error
	GetByID(ctx context.Context, id string) (*model.Phase, error)
	FindByTabName(ctx context.Context, masterSheetID, tabName string) (*model.Phase, error)
	ListBySheet(ctx context.Context, masterSheetID string, activeOnly bool) ([]model.Phase, error)
	List(ctx context.Context) ([]model.Phase, error)
	Update(ctx context.Context, phase *model.Phase) error
	Delete(ctx context.Context, id string) error
	// AdvanceWatermark conditionally moves the phase's last question column
	// forward. The update only applies while the stored column number is
	// lower than columnNum, so concurrent approvals can never regress the
	// watermark. Returns whether the watermark moved.
	AdvanceWatermark(ctx context.Context, id, column string, columnNum int) (bool, error)
}

type mongoPhaseRepository struct {
	coll *mongo.Collection
}

func NewMongoPhaseRepository(db *mongo.Database) PhaseRepository {
	return &mongoPhaseRepository{coll: db.Collection("phases")}
}

func (r *mongoPhaseRepository) Create(ctx context.Context, phase *model.Phase) error {
	now := time.Now().UTC()
	phase.CreatedAt = now
	phase.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, phase); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("phase for tab %q already exists: %w", phase.TabName, common.ErrConflict)
		}
		return fmt.Errorf("mongoPhaseRepository.Create: %w", err)
	}
	return nil
}

func (r *mongoPhaseRepository) GetByID(ctx context.Context, id string) (*model.Phase, error) {
	var phase model.Phase
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&phase)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("phase %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("mongoPhaseRepository.GetByID: %w", err)
	}
	return &phase, nil
}

func (r *mongoPhaseRepository) FindByTabName(ctx context.Context, masterSheetID, tabName string) (*model.Phase, error) {
	var phase model.Phase
	err := r.coll.FindOne(ctx, bson.M{"master_sheet_id": masterSheetID, "tab_name": tabName}).Decode(&phase)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("phase for tab %q: %w", tabName, common.ErrNotFound)
		}
		return nil, fmt.Errorf("mongoPhaseRepository.FindByTabName: %w", err)
	}
	return &phase, nil
}

func (r *mongoPhaseRepository) ListBySheet(ctx context.Context, masterSheetID string, activeOnly bool) ([]model.Phase, error) {
	filter := bson.M{"master_sheet_id": masterSheetID}
	if activeOnly {
		filter["active"] = true
	}
	return r.find(ctx, filter)
}

func (r *mongoPhaseRepository) List(ctx context.Context) ([]model.Phase, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoPhaseRepository) find(ctx context.Context, filter bson.M) ([]model.Phase, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongoPhaseRepository.find: %w", err)
	}
	var phases []model.Phase
	if err := cursor.All(ctx, &phases); err != nil {
		return nil, fmt.Errorf("mongoPhaseRepository.find decode: %w", err)
	}
	return phases, nil
}

func (r *mongoPhaseRepository) Update(ctx context.Context, phase *model.Phase) error {
	phase.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":            phase.Name,
		"tab_name":        phase.TabName,
		"master_sheet_id": phase.MasterSheetID,
		"start_column":    phase.StartColumn,
		"order":           phase.Order,
		"active":          phase.Active,
		"updated_at":      phase.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": phase.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("phase for tab %q already exists: %w", phase.TabName, common.ErrConflict)
		}
		return fmt.Errorf("mongoPhaseRepository.Update: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("phase %s: %w", phase.ID, common.ErrNotFound)
	}
	return nil
}

func (r *mongoPhaseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongoPhaseRepository.Delete: %w", err)
	}
	return nil
}

func (r *mongoPhaseRepository) AdvanceWatermark(ctx context.Context, id, column string, columnNum int) (bool, error) {
	// Older documents may lack the numeric shadow field; they count as "no
	// watermark yet".
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"last_question_column_num": bson.M{"$lt": columnNum}},
			bson.M{"last_question_column_num": bson.M{"$exists": false}},
			bson.M{"last_question_column_num": nil},
		},
	}
	update := bson.M{"$set": bson.M{
		"last_question_column":     column,
		"last_question_column_num": columnNum,
		"updated_at":               time.Now().UTC(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("mongoPhaseRepository.AdvanceWatermark: %w", err)
	}
	return res.ModifiedCount > 0, nil
}
