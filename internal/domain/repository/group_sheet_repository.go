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

type GroupSheetRepository interface {
	Create(ctx context.Context, group *model.GroupSheet) error
	GetByID(ctx context.Context, id string) (*model.GroupSheet, error)
	FindActiveByGroupName(ctx context.Context, groupName string) (*model.GroupSheet, error)
	List(ctx context.Context) ([]model.GroupSheet, error)
	ListActive(ctx context.Context) ([]model.GroupSheet, error)
	Update(ctx context.Context, group *model.GroupSheet) error
	Delete(ctx context.Context, id string) error
}

type mongoGroupSheetRepository struct {
	coll *mongo.Collection
}

func NewMongoGroupSheetRepository(db *mongo.Database) GroupSheetRepository {
	return &mongoGroupSheetRepository{coll: db.Collection("group_sheets")}
}

func (r *mongoGroupSheetRepository) Create(ctx context.Context, g *model.GroupSheet) error {
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, g); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("group %q already exists: %w", g.GroupName, common.ErrConflict)
		}
		return fmt.Errorf("mongoGroupSheetRepository.Create: %w", err)
	}
	return nil
}

func (r *mongoGroupSheetRepository) GetByID(ctx context.Context, id string) (*model.GroupSheet, error) {
	var g model.GroupSheet
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("group sheet %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("mongoGroupSheetRepository.GetByID: %w", err)
	}
	return &g, nil
}

func (r *mongoGroupSheetRepository) FindActiveByGroupName(ctx context.Context, groupName string) (*model.GroupSheet, error) {
	var g model.GroupSheet
	err := r.coll.FindOne(ctx, bson.M{"group_name": groupName, "active": true}).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("active group %q: %w", groupName, common.ErrNotFound)
		}
		return nil, fmt.Errorf("mongoGroupSheetRepository.FindActiveByGroupName: %w", err)
	}
	return &g, nil
}

func (r *mongoGroupSheetRepository) List(ctx context.Context) ([]model.GroupSheet, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoGroupSheetRepository) ListActive(ctx context.Context) ([]model.GroupSheet, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *mongoGroupSheetRepository) find(ctx context.Context, filter bson.M) ([]model.GroupSheet, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "group_name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongoGroupSheetRepository.find: %w", err)
	}
	var groups []model.GroupSheet
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("mongoGroupSheetRepository.find decode: %w", err)
	}
	return groups, nil
}

func (r *mongoGroupSheetRepository) Update(ctx context.Context, g *model.GroupSheet) error {
	g.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"group_name":     g.GroupName,
		"sheet_id":       g.SheetID,
		"name_column":    g.NameColumn,
		"name_start_row": g.NameStartRow,
		"name_end_row":   g.NameEndRow,
		"active":         g.Active,
		"updated_at":     g.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": g.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("group %q already exists: %w", g.GroupName, common.ErrConflict)
		}
		return fmt.Errorf("mongoGroupSheetRepository.Update: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("group sheet %s: %w", g.ID, common.ErrNotFound)
	}
	return nil
}

func (r *mongoGroupSheetRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongoGroupSheetRepository.Delete: %w", err)
	}
	return nil
}
