// Package story holds the serialized story content and the navigation rules
// that decide what a reader sees next.
package story

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PrologueIndex is the sub-chapter sentinel for the story prologue.
const PrologueIndex = -1

const prologueTitle = "Prologue"

//go:embed default_story.json
var defaultStoryJSON []byte

type SubChapter struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Chapter struct {
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	SubChapters []SubChapter `json:"subChapters,omitempty"`
}

// Story is loaded once and never mutated afterwards.
type Story struct {
	Title    string    `json:"title"`
	Prologue *string   `json:"prologue,omitempty"`
	Chapters []Chapter `json:"chapters"`
}

// Position is the (chapter, sub-chapter) coordinate currently displayed.
type Position struct {
	ChapterIndex    int `json:"chapterIndex"`
	SubChapterIndex int `json:"subChapterIndex"`
}

// Start is the first position of every story: the prologue.
var Start = Position{ChapterIndex: 0, SubChapterIndex: PrologueIndex}

func (p Position) IsPrologue() bool { return p.SubChapterIndex == PrologueIndex }

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.ChapterIndex, p.SubChapterIndex)
}

// Parse decodes a story document and validates it.
func Parse(r io.Reader) (*Story, error) {
	var s Story
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode story: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Default returns the built-in story.
func Default() *Story {
	s, err := Parse(bytes.NewReader(defaultStoryJSON))
	if err != nil {
		panic("story: embedded story is invalid: " + err.Error())
	}
	return s
}

func (s *Story) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("story: title is required")
	}
	if len(s.Chapters) == 0 {
		return errors.New("story: at least one chapter is required")
	}
	for i, ch := range s.Chapters {
		if strings.TrimSpace(ch.Title) == "" {
			return fmt.Errorf("story: chapter %d has no title", i)
		}
	}
	return nil
}

// TOCEntry is one line of the navigation sidebar.
type TOCEntry struct {
	Title    string   `json:"title"`
	Position Position `json:"position"`
	Level    int      `json:"level"`
	Gated    bool     `json:"gated,omitempty"`
}

// TOC lists the prologue, every chapter and every sub-chapter in reading order.
// Sub-chapters past previewLimit are flagged as gated behind signup.
func (s *Story) TOC(previewLimit int) []TOCEntry {
	entries := []TOCEntry{{Title: prologueTitle, Position: Start}}
	for ci, ch := range s.Chapters {
		entries = append(entries, TOCEntry{
			Title:    ch.Title,
			Position: Position{ChapterIndex: ci, SubChapterIndex: 0},
		})
		for si, sub := range ch.SubChapters {
			entries = append(entries, TOCEntry{
				Title:    sub.Title,
				Position: Position{ChapterIndex: ci, SubChapterIndex: si},
				Level:    1,
				Gated:    si > previewLimit,
			})
		}
	}
	return entries
}

func (s *Story) prologue() string {
	if s.Prologue == nil {
		return ""
	}
	return *s.Prologue
}

// lastSubIndex is the index a reader lands on when stepping back into ch.
func lastSubIndex(ch Chapter) int {
	if len(ch.SubChapters) == 0 {
		return 0
	}
	return len(ch.SubChapters) - 1
}

// Paragraphs splits content on blank lines, dropping empty blocks.
func Paragraphs(content string) []string {
	blocks := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
