package models

import (
	"time"

	"github.com/google/uuid"
)

// ContributionType - тип участия пользователя в дереве истории.
type ContributionType string

const (
	ContributionCreate   ContributionType = "create"
	ContributionContinue ContributionType = "continue"
)

// Contribution - запись реестра участия: не более одной на пару (пользователь, дерево).
type Contribution struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	UserID           uuid.UUID        `json:"user_id" db:"user_id"`
	StoryRootID      uuid.UUID        `json:"story_root_id" db:"story_root_id"`
	StoryID          uuid.UUID        `json:"story_id" db:"story_id"`
	ContributionType ContributionType `json:"contribution_type" db:"contribution_type"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// ContributionStatus отвечает на вопрос "участвовал ли пользователь в этом дереве".
type ContributionStatus struct {
	HasContributed   bool              `json:"hasContributed"`
	ContributionType *ContributionType `json:"contributionType"`
}

// ContributionWithStory - запись реестра вместе с узлом, который добавил пользователь.
type ContributionWithStory struct {
	Contribution
	StoryTitle string `json:"story_title" db:"story_title"`
	StoryLevel int    `json:"story_level" db:"story_level"`
}
