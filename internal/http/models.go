package http

import "contest-bot/internal/domain/user"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success   bool   `json:"success" example:"false"`
	Code      string `json:"code" example:"VALIDATION_ERROR"`
	Message   string `json:"message" example:"Validation failed for field 'limit': must be between 1 and 100"`
	RequestID string `json:"request_id" example:"3f1c2a8e-7d0b-4c55-9d43-0b8e6f1a2c77"`
}

// RatingEntry is one row of the participant leaderboard
type RatingEntry struct {
	Rank     int    `json:"rank" example:"1"`
	UserID   int64  `json:"user_id" example:"123456789"`
	Name     string `json:"name" example:"@durov"`
	Points   int64  `json:"points" example:"42"`
	IsBanned bool   `json:"is_banned" example:"false"`
}

// RatingResponse represents the leaderboard
type RatingResponse struct {
	Items []RatingEntry `json:"items"`
}

// BroadcastsResponse represents the latest broadcast summaries
type BroadcastsResponse struct {
	Items []BroadcastLogResponse `json:"items"`
}

// BroadcastLogResponse is the summary of one broadcast run
type BroadcastLogResponse struct {
	ID          int64  `json:"id" example:"7"`
	OperatorID  int64  `json:"operator_id" example:"123456789"`
	Kind        string `json:"kind" example:"text" enums:"text,photo,video"`
	Content     string `json:"content" example:"Contest ends tomorrow!"`
	SentCount   int    `json:"sent_count" example:"120"`
	FailedCount int    `json:"failed_count" example:"3"`
	CreatedAt   string `json:"created_at" example:"2024-05-01T12:00:00Z"`
}

func toRating(users []user.User) RatingResponse {
	items := make([]RatingEntry, 0, len(users))
	for i := range users {
		items = append(items, RatingEntry{
			Rank:     i + 1,
			UserID:   users[i].ID,
			Name:     users[i].DisplayName(),
			Points:   users[i].Points,
			IsBanned: users[i].IsBanned,
		})
	}
	return RatingResponse{Items: items}
}
