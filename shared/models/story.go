package models

import (
	"time"

	"github.com/google/uuid"
)

// Ограничения на содержимое узла истории.
const (
	MaxStoryTitleLength   = 200
	MaxStoryContentLength = 800
)

// Story представляет узел ветвящейся истории.
// Корень дерева имеет ParentID == nil, Level == 0 и StoryRootID == ID.
type Story struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Title             string     `json:"title" db:"title"`
	Content           string     `json:"content" db:"content"`
	AuthorID          uuid.UUID  `json:"author_id" db:"author_id"`
	ParentID          *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	StoryRootID       uuid.UUID  `json:"story_root_id" db:"story_root_id"`
	Level             int        `json:"level" db:"level"`
	Position          int        `json:"position" db:"position"` // Порядок среди соседей, только для сортировки
	LikeCount         int        `json:"like_count" db:"like_count"`
	DislikeCount      int        `json:"dislike_count" db:"dislike_count"`
	CommentCount      int        `json:"comment_count" db:"comment_count"`
	ContinuationCount int        `json:"continuation_count" db:"continuation_count"`
	MaxContinuations  int        `json:"max_continuations" db:"max_continuations"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// IsRoot сообщает, является ли узел корнем дерева.
func (s *Story) IsRoot() bool {
	return s.ParentID == nil && s.Level == 0
}

// HasCapacity сообщает, можно ли добавить к узлу еще одно продолжение.
func (s *Story) HasCapacity() bool {
	return s.ContinuationCount < s.MaxContinuations
}

// StoryWithChildren - узел вместе с прямыми потомками и первой страницей комментариев.
type StoryWithChildren struct {
	Story              *Story     `json:"story"`
	Children           []*Story   `json:"children"`
	Comments           []*Comment `json:"comments"`
	CommentsNextCursor string     `json:"comments_next_cursor,omitempty"`
}
