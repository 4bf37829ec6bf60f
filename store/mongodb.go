package store

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAlreadyExists is returned when a unique index rejects a write.
var ErrAlreadyExists = errors.New("already exists")

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	log.Println("Connected to MongoDB")
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Profiles() *mongo.Collection {
	return db.Database.Collection("profiles")
}

func (db *DB) Bookmarks() *mongo.Collection {
	return db.Database.Collection("bookmarks")
}

func (db *DB) PageViews() *mongo.Collection {
	return db.Database.Collection("page_views")
}

func (db *DB) Preferences() *mongo.Collection {
	return db.Database.Collection("user_preferences")
}

// EnsureIndexes creates the unique indexes the upsert paths rely on.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	unique := func(key string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}
	if _, err := db.Users().Indexes().CreateOne(ctx, unique("email")); err != nil {
		return err
	}
	if _, err := db.Bookmarks().Indexes().CreateOne(ctx, unique("userId")); err != nil {
		return err
	}
	if _, err := db.Preferences().Indexes().CreateOne(ctx, unique("userId")); err != nil {
		return err
	}
	_, err := db.PageViews().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	return err
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
