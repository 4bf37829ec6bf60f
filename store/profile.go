package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/stories/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) CreateProfile(ctx context.Context, p *models.Profile) error {
	_, err := db.Profiles().InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

func (db *DB) ProfileByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	var p models.Profile
	err := db.Profiles().FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile applies the non-nil fields of u and returns the updated
// profile, or nil when no profile exists for id.
func (db *DB) UpdateProfile(ctx context.Context, id primitive.ObjectID, u models.ProfileUpdate) (*models.Profile, error) {
	set := bson.M{"updatedAt": time.Now()}
	if u.Username != nil {
		set["username"] = *u.Username
	}
	if u.FullName != nil {
		set["fullName"] = *u.FullName
	}
	if u.AvatarURL != nil {
		set["avatarUrl"] = *u.AvatarURL
	}
	if u.Bio != nil {
		set["bio"] = *u.Bio
	}
	if u.Website != nil {
		set["website"] = *u.Website
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Profile
	err := db.Profiles().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
