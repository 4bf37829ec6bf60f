package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kevinaaaquil/stories/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaveBookmark records the resume position for userID. The first save
// inserts; when the unique userId index reports the row already exists the
// position is updated in place, so each user keeps exactly one bookmark.
func (db *DB) SaveBookmark(ctx context.Context, userID primitive.ObjectID, chapter, subChapter int) (*models.Bookmark, error) {
	now := time.Now()
	b := &models.Bookmark{
		UserID:          userID,
		ChapterIndex:    chapter,
		SubChapterIndex: subChapter,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	res, err := db.Bookmarks().InsertOne(ctx, b)
	if err == nil {
		b.ID = res.InsertedID.(primitive.ObjectID)
		return b, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("insert bookmark: %w", err)
	}

	update := bson.M{"$set": bson.M{
		"chapterIndex":    chapter,
		"subChapterIndex": subChapter,
		"updatedAt":       now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Bookmark
	if err := db.Bookmarks().FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&updated); err != nil {
		return nil, fmt.Errorf("update bookmark: %w", err)
	}
	return &updated, nil
}

// BookmarkByUser returns nil when the user never saved a bookmark.
func (db *DB) BookmarkByUser(ctx context.Context, userID primitive.ObjectID) (*models.Bookmark, error) {
	var b models.Bookmark
	err := db.Bookmarks().FindOne(ctx, bson.M{"userId": userID}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
