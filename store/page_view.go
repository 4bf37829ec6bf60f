package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kevinaaaquil/stories/backend/analytics"
	"github.com/kevinaaaquil/stories/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageViews adapts DB to analytics.Recorder.
type PageViews struct {
	DB *DB
}

var _ analytics.Recorder = PageViews{}

func (p PageViews) OpenPageView(ctx context.Context, v analytics.Visit) (string, error) {
	now := time.Now()
	pv := models.PageView{
		ChapterIndex:    v.ChapterIndex,
		SubChapterIndex: v.SubChapterIndex,
		IsLoggedIn:      v.LoggedIn,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if v.UserID != "" {
		uid, err := primitive.ObjectIDFromHex(v.UserID)
		if err != nil {
			return "", fmt.Errorf("page view user id: %w", err)
		}
		pv.UserID = &uid
	}
	res, err := p.DB.PageViews().InsertOne(ctx, pv)
	if err != nil {
		return "", err
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (p PageViews) CheckpointPageView(ctx context.Context, id string, seconds int64) error {
	return p.setTimeSpent(ctx, id, seconds)
}

func (p PageViews) ClosePageView(ctx context.Context, id string, seconds int64) error {
	return p.setTimeSpent(ctx, id, seconds)
}

func (p PageViews) setTimeSpent(ctx context.Context, id string, seconds int64) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = p.DB.PageViews().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"timeSpent": seconds,
		"updatedAt": time.Now(),
	}})
	return err
}

// ListPageViews returns the newest page views first. limit <= 0 means all.
func (db *DB) ListPageViews(ctx context.Context, limit int64) ([]models.PageView, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := db.PageViews().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var list []models.PageView
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.PageView{}
	}
	return list, nil
}
