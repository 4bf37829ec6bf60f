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

// PreferencesByUser returns the stored preferences, or defaults when the
// user has none yet.
func (db *DB) PreferencesByUser(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	var p models.UserPreferences
	err := db.Preferences().FindOne(ctx, bson.M{"userId": userID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return &models.UserPreferences{
			UserID:             userID,
			FontSize:           models.DefaultFontSize,
			Theme:              models.DefaultTheme,
			LastReadSubChapter: -1,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePreferences upserts the display settings. Empty values are left as
// they are; a new row starts from the defaults.
func (db *DB) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, fontSize, theme string) (*models.UserPreferences, error) {
	set := bson.M{"updatedAt": time.Now()}
	onInsert := bson.M{"lastReadChapter": 0, "lastReadSubChapter": -1}
	if fontSize != "" {
		set["fontSize"] = fontSize
	} else {
		onInsert["fontSize"] = models.DefaultFontSize
	}
	if theme != "" {
		set["theme"] = theme
	} else {
		onInsert["theme"] = models.DefaultTheme
	}
	return db.upsertPreferences(ctx, userID, bson.M{"$set": set, "$setOnInsert": onInsert})
}

// RecordProgress stores the last-read position and stamps it in the reading
// progress map under "chapter-subChapter".
func (db *DB) RecordProgress(ctx context.Context, userID primitive.ObjectID, chapter, subChapter int) (*models.UserPreferences, error) {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"lastReadChapter":    chapter,
			"lastReadSubChapter": subChapter,
			ProgressKey(chapter, subChapter): now.UnixMilli(),
			"updatedAt":                      now,
		},
		"$setOnInsert": bson.M{
			"fontSize": models.DefaultFontSize,
			"theme":    models.DefaultTheme,
		},
	}
	return db.upsertPreferences(ctx, userID, update)
}

// ProgressKey is the dotted path of a position inside readingProgress.
func ProgressKey(chapter, subChapter int) string {
	return fmt.Sprintf("readingProgress.%d-%d", chapter, subChapter)
}

func (db *DB) upsertPreferences(ctx context.Context, userID primitive.ObjectID, update bson.M) (*models.UserPreferences, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var p models.UserPreferences
	if err := db.Preferences().FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
