package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bookmark is the single "resume here" position of a user. The bookmarks
// collection has a unique index on userId.
type Bookmark struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	ChapterIndex    int                `bson:"chapterIndex" json:"chapterIndex"`
	SubChapterIndex int                `bson:"subChapterIndex" json:"subChapterIndex"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
