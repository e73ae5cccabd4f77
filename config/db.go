// config/db.go
package config

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes the MongoDB connection and ensures indexes exist.
func ConnectDB(cfg *Config) *mongo.Client {
	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(cfg.MongoURI))

	clientOptions := options.Client().ApplyURI(cfg.MongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client, cfg.DBName)

	return client
}

// setupCollections ensures collections and the uniqueness indexes exist.
func setupCollections(client *mongo.Client, dbName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(dbName)

	for _, collName := range []string{"users", "courses", "purchases", "courseProgress"} {
		db.CreateCollection(ctx, collName)
	}

	userColl := db.Collection("users")

	phoneIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "phone_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := userColl.Indexes().CreateOne(ctx, phoneIndexModel); err != nil {
		log.Printf("Error creating phone_number index: %v", err)
	}

	// Email is optional, so the unique index must be sparse or empty
	// emails would collide.
	emailIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}
	if _, err := userColl.Indexes().CreateOne(ctx, emailIndexModel); err != nil {
		log.Printf("Error creating email index: %v", err)
	}

	purchaseColl := db.Collection("purchases")
	purchaseIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "courseId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := purchaseColl.Indexes().CreateOne(ctx, purchaseIndexModel); err != nil {
		log.Printf("Error creating purchase index: %v", err)
	}

	progressColl := db.Collection("courseProgress")
	progressIndexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "courseId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := progressColl.Indexes().CreateOne(ctx, progressIndexModel); err != nil {
		log.Printf("Error creating progress index: %v", err)
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in a MongoDB URI for logging.
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
