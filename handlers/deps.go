package handlers

import (
	"context"
	"io"
	"time"

	"github.com/kevinaaaquil/stories/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Users is the account and profile storage used by auth and profile routes.
type Users interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
	CreateProfile(ctx context.Context, p *models.Profile) error
	ProfileByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, u models.ProfileUpdate) (*models.Profile, error)
}

type Bookmarks interface {
	SaveBookmark(ctx context.Context, userID primitive.ObjectID, chapter, subChapter int) (*models.Bookmark, error)
	BookmarkByUser(ctx context.Context, userID primitive.ObjectID) (*models.Bookmark, error)
}

type Preferences interface {
	PreferencesByUser(ctx context.Context, userID primitive.ObjectID) (*models.UserPreferences, error)
	UpdatePreferences(ctx context.Context, userID primitive.ObjectID, fontSize, theme string) (*models.UserPreferences, error)
	RecordProgress(ctx context.Context, userID primitive.ObjectID, chapter, subChapter int) (*models.UserPreferences, error)
}

type PageViews interface {
	ListPageViews(ctx context.Context, limit int64) ([]models.PageView, error)
}

// Store is everything the API needs from the database; *store.DB implements it.
type Store interface {
	Users
	Bookmarks
	Preferences
	PageViews
}

// Exporter uploads files and hands out temporary links to them.
type Exporter interface {
	Upload(ctx context.Context, prefix, filename string, body io.Reader, contentType string) (string, error)
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration, filename string) (string, error)
}
