package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"codetrack/internal/platform/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	Client *mongo.Client
	DB     *mongo.Database
)

func Connect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, options.Client().ApplyURI(config.AppConfig.MongoURI))
	if err != nil {
		log.Fatalf("Error opening MongoDB connection: %v", err)
	}

	if err = Client.Ping(ctx, nil); err != nil {
		log.Fatalf("Error connecting to MongoDB: %v", err)
	}

	DB = Client.Database(config.AppConfig.MongoDBName)

	if err := ensureIndexes(ctx, DB); err != nil {
		log.Fatalf("Error creating MongoDB indexes: %v", err)
	}

	fmt.Println("Successfully connected to MongoDB!")
}

// ensureIndexes creates the unique indexes the domain invariants rely on.
// CreateOne is a no-op when an identical index already exists.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string]mongo.IndexModel{
		"phases": {
			Keys:    bson.D{{Key: "master_sheet_id", Value: 1}, {Key: "tab_name", Value: 1}},
			Options: unique,
		},
		"questions": {
			Keys:    bson.D{{Key: "platform", Value: 1}, {Key: "question_key", Value: 1}},
			Options: unique,
		},
		"group_sheets": {
			Keys:    bson.D{{Key: "group_name", Value: 1}},
			Options: unique,
		},
		"question_group_mappings": {
			Keys:    bson.D{{Key: "question_id", Value: 1}, {Key: "group_id", Value: 1}},
			Options: unique,
		},
		"users": {
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: unique,
		},
	}

	for collection, model := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("index on %s: %w", collection, err)
		}
	}
	return nil
}

func Close() {
	if Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Client.Disconnect(ctx)
		fmt.Println("MongoDB connection closed.")
	}
}
