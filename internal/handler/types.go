package handler

import (
	"alterstory-server/shared/models"
)

type createStoryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type continuationRequest struct {
	ParentID string `json:"parent_id"` // Пусто - продолжение корня
	Title    string `json:"title"`
	Content  string `json:"content"`
}

type castVoteRequest struct {
	VoteType models.VoteType `json:"vote_type"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type upsertProfileRequest struct {
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Bio         *string `json:"bio"`
}

type voteStatsResponse struct {
	*models.VoteStats
	UserVote *models.VoteType `json:"user_vote"`
}

type commentCountResponse struct {
	Count int `json:"count"`
}
