package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryEventType - тип уведомления об изменении дерева.
type StoryEventType string

const (
	EventVoteUpdate         StoryEventType = "vote_update"
	EventCommentCountUpdate StoryEventType = "comment_count_update"
	EventContinuationAdded  StoryEventType = "continuation_added"
	EventCommentAdded       StoryEventType = "comment_added"
	EventCommentUpdated     StoryEventType = "comment_updated"
	EventCommentDeleted     StoryEventType = "comment_deleted"
)

// StoryEvent уходит в RabbitMQ и дальше в WebSocket клиентам, подписанным на дерево.
// Доставка best effort: клиент, пропустивший событие, увидит актуальные данные при следующем запросе.
type StoryEvent struct {
	Type              StoryEventType `json:"type"`
	StoryID           uuid.UUID      `json:"story_id"`
	StoryRootID       uuid.UUID      `json:"story_root_id"`
	ParentID          *uuid.UUID     `json:"parent_id,omitempty"`
	LikeCount         *int           `json:"like_count,omitempty"`
	DislikeCount      *int           `json:"dislike_count,omitempty"`
	CommentCount      *int           `json:"comment_count,omitempty"`
	ContinuationCount *int           `json:"continuation_count,omitempty"`
	Comment           *Comment       `json:"comment,omitempty"`
	OccurredAt        time.Time      `json:"occurred_at"`
}
