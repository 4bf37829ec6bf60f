package story

import (
	"errors"
	"fmt"
)

// DefaultPreviewLimit is the last sub-chapter index an anonymous reader may
// reach inside a chapter; the first three sub-chapters are free.
const DefaultPreviewLimit = 2

var ErrOutOfRange = errors.New("position out of range")

// Page is the resolved title and content for a position.
type Page struct {
	Title        string   `json:"title"`
	ChapterTitle string   `json:"chapterTitle,omitempty"`
	Content      string   `json:"-"`
	Paragraphs   []string `json:"paragraphs"`
}

// Result reports the outcome of a navigation attempt. A refused attempt
// keeps Position unchanged and sets SignupRequired.
type Result struct {
	Position       Position
	Moved          bool
	SignupRequired bool
}

type Navigator struct {
	story        *Story
	previewLimit int
}

type Option func(*Navigator)

// WithPreviewLimit overrides DefaultPreviewLimit.
func WithPreviewLimit(n int) Option {
	return func(nav *Navigator) {
		if n >= 0 {
			nav.previewLimit = n
		}
	}
}

func NewNavigator(s *Story, opts ...Option) *Navigator {
	nav := &Navigator{story: s, previewLimit: DefaultPreviewLimit}
	for _, opt := range opts {
		opt(nav)
	}
	return nav
}

func (n *Navigator) Story() *Story     { return n.story }
func (n *Navigator) PreviewLimit() int { return n.previewLimit }

// Resolve returns the page shown at p. It never fails: a sub-chapter index
// past the end of a chapter degrades to the chapter's own content, and a
// chapter index outside the story degrades to the prologue.
func (n *Navigator) Resolve(p Position) Page {
	if p.IsPrologue() || !n.validChapter(p.ChapterIndex) {
		content := n.story.prologue()
		return Page{Title: prologueTitle, Content: content, Paragraphs: Paragraphs(content)}
	}
	ch := n.story.Chapters[p.ChapterIndex]
	page := Page{ChapterTitle: ch.Title, Title: ch.Title, Content: ch.Content}
	if p.SubChapterIndex >= 0 && p.SubChapterIndex < len(ch.SubChapters) {
		sub := ch.SubChapters[p.SubChapterIndex]
		page.Title, page.Content = sub.Title, sub.Content
	}
	page.Paragraphs = Paragraphs(page.Content)
	return page
}

// Next moves forward one unit. Anonymous readers at or past the preview
// limit are refused before any other rule applies.
func (n *Navigator) Next(p Position, signedIn bool) Result {
	if !signedIn && p.SubChapterIndex >= n.previewLimit {
		return Result{Position: p, SignupRequired: true}
	}
	if !n.validChapter(p.ChapterIndex) {
		return Result{Position: p}
	}
	ch := n.story.Chapters[p.ChapterIndex]
	switch {
	case p.IsPrologue() || p.SubChapterIndex < len(ch.SubChapters)-1:
		return moved(Position{ChapterIndex: p.ChapterIndex, SubChapterIndex: p.SubChapterIndex + 1})
	case p.ChapterIndex < len(n.story.Chapters)-1:
		return moved(Position{ChapterIndex: p.ChapterIndex + 1, SubChapterIndex: 0})
	}
	return Result{Position: p}
}

// Prev moves back one unit. The prologue belongs to the first chapter's
// slot, so stepping back from a later chapter's first sub-chapter lands on
// the last sub-chapter of the chapter before it.
func (n *Navigator) Prev(p Position) Result {
	switch {
	case p.SubChapterIndex > 0:
		return moved(Position{ChapterIndex: p.ChapterIndex, SubChapterIndex: p.SubChapterIndex - 1})
	case p.ChapterIndex == 0 && p.SubChapterIndex == 0:
		return moved(Start)
	case p.ChapterIndex > 0 && n.validChapter(p.ChapterIndex-1):
		prev := p.ChapterIndex - 1
		return moved(Position{ChapterIndex: prev, SubChapterIndex: lastSubIndex(n.story.Chapters[prev])})
	}
	return Result{Position: p}
}

// Jump handles a direct selection from the sidebar. The prologue and any
// sub-chapter up to the preview limit are always reachable.
func (n *Navigator) Jump(p, target Position, signedIn bool) (Result, error) {
	if target.IsPrologue() {
		if target == p {
			return Result{Position: p}, nil
		}
		return moved(Start), nil
	}
	if !n.validChapter(target.ChapterIndex) || target.SubChapterIndex < PrologueIndex {
		return Result{Position: p}, fmt.Errorf("jump to %s: %w", target, ErrOutOfRange)
	}
	if !signedIn && target.SubChapterIndex > n.previewLimit {
		return Result{Position: p, SignupRequired: true}, nil
	}
	if target == p {
		return Result{Position: p}, nil
	}
	return moved(target), nil
}

// Valid reports whether p names an existing chapter. Sub-chapter indexes
// past the end are allowed since Resolve falls back to the chapter content.
func (n *Navigator) Valid(p Position) bool {
	return n.validChapter(p.ChapterIndex) && p.SubChapterIndex >= PrologueIndex
}

func (n *Navigator) IsFirst(p Position) bool {
	return p.ChapterIndex == 0 && p.IsPrologue()
}

func (n *Navigator) IsLast(p Position) bool {
	last := len(n.story.Chapters) - 1
	if last < 0 {
		return true
	}
	return p.ChapterIndex == last && !p.IsPrologue() && p.SubChapterIndex >= lastSubIndex(n.story.Chapters[last])
}

// Last returns the final position of the story.
func (n *Navigator) Last() Position {
	last := len(n.story.Chapters) - 1
	return Position{ChapterIndex: last, SubChapterIndex: lastSubIndex(n.story.Chapters[last])}
}

func (n *Navigator) validChapter(i int) bool {
	return i >= 0 && i < len(n.story.Chapters)
}

func moved(p Position) Result {
	return Result{Position: p, Moved: true}
}
