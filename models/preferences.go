package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultFontSize = "medium"
	DefaultTheme    = "dark"
)

// UserPreferences holds reader settings and the last-read position.
// ReadingProgress maps "chapter-subChapter" to the epoch millis of the
// last visit.
type UserPreferences struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"userId" json:"userId"`
	FontSize           string             `bson:"fontSize" json:"fontSize"`
	Theme              string             `bson:"theme" json:"theme"`
	LastReadChapter    int                `bson:"lastReadChapter" json:"lastReadChapter"`
	LastReadSubChapter int                `bson:"lastReadSubChapter" json:"lastReadSubChapter"`
	ReadingProgress    map[string]int64   `bson:"readingProgress,omitempty" json:"readingProgress,omitempty"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}
