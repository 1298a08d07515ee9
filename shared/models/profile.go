package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxUsernameLength    = 50
	MaxDisplayNameLength = 100
	MaxBioLength         = 500
)

// Profile - публичный профиль пользователя. ID совпадает с ID из провайдера идентификации.
type Profile struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Username          string    `json:"username" db:"username"`
	DisplayName       string    `json:"display_name" db:"display_name"`
	AvatarURL         *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio               *string   `json:"bio,omitempty" db:"bio"`
	HasUploadedAvatar bool      `json:"has_uploaded_avatar" db:"has_uploaded_avatar"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// UserStatistics - сводка активности пользователя.
type UserStatistics struct {
	CreatedStories     int `json:"createdStories" db:"created_stories"`
	Contributions      int `json:"contributions" db:"contributions"`
	Votes              int `json:"votes" db:"votes"`
	Comments           int `json:"comments" db:"comments"`
	TotalLikesReceived int `json:"totalLikesReceived" db:"total_likes_received"`
}
