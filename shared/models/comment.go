package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxCommentLength - максимальная длина комментария в символах.
const MaxCommentLength = 1000

// Comment - комментарий к узлу истории. Редактировать и удалять может только автор.
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StoryID   uuid.UUID `json:"story_id" db:"story_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
