package models

import (
	"time"

	"github.com/google/uuid"
)

// VoteType - лайк или дизлайк.
type VoteType string

const (
	VoteLike    VoteType = "like"
	VoteDislike VoteType = "dislike"
)

// IsValid проверяет, что тип голоса известен.
func (v VoteType) IsValid() bool {
	return v == VoteLike || v == VoteDislike
}

// Vote - текущий голос пользователя за узел истории.
type Vote struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	StoryID   uuid.UUID `json:"story_id" db:"story_id"`
	VoteType  VoteType  `json:"vote_type" db:"vote_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VoteState возвращается после изменения голоса.
type VoteState struct {
	StoryID      uuid.UUID `json:"story_id"`
	VoteType     *VoteType `json:"vote_type"` // nil, если голоса нет
	LikeCount    int       `json:"like_count"`
	DislikeCount int       `json:"dislike_count"`
}

// VoteStats - агрегаты голосов по узлу.
type VoteStats struct {
	StoryID      uuid.UUID `json:"story_id"`
	LikeCount    int       `json:"like_count"`
	DislikeCount int       `json:"dislike_count"`
	Total        int       `json:"total"`
	Ratio        float64   `json:"ratio"` // Доля лайков, 0 если голосов нет
}
