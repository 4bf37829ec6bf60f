package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kevinaaaquil/stories/backend/story"
)

// ObjectGetter is the part of S3Service the story loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
}

// LoadStory picks the story source in order: the S3 object at s3Key, the
// file at path, then the built-in story.
func LoadStory(ctx context.Context, objects ObjectGetter, s3Key, path string) (*story.Story, error) {
	if s3Key != "" {
		if objects == nil {
			return nil, fmt.Errorf("STORY_S3_KEY %q set but S3 is not configured", s3Key)
		}
		body, err := objects.GetObject(ctx, s3Key)
		if err != nil {
			return nil, fmt.Errorf("fetch story %s: %w", s3Key, err)
		}
		defer body.Close()
		s, err := story.Parse(body)
		if err != nil {
			return nil, err
		}
		log.Printf("story %q loaded from s3 key %s", s.Title, s3Key)
		return s, nil
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		s, err := story.Parse(f)
		if err != nil {
			return nil, err
		}
		log.Printf("story %q loaded from %s", s.Title, path)
		return s, nil
	}
	return story.Default(), nil
}
