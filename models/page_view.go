package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PageView is one visit to one reading position. UserID is nil for
// anonymous readers. TimeSpent is in seconds.
type PageView struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          *primitive.ObjectID `bson:"userId" json:"userId"`
	ChapterIndex    int                 `bson:"chapterIndex" json:"chapterIndex"`
	SubChapterIndex int                 `bson:"subChapterIndex" json:"subChapterIndex"`
	IsLoggedIn      bool                `bson:"isLoggedIn" json:"isLoggedIn"`
	TimeSpent       int64               `bson:"timeSpent" json:"timeSpent"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}
