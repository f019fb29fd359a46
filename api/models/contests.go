package models

import (
	"github.com/jichangyoon/samu-rewards/storage"
	"time"
)

type CreateContestRequest struct {
	Title     string    `json:"title"`
	PrizePool string    `json:"prizePool"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
}

type UpdateContestStatusRequest struct {
	Status string `json:"status"`
}

type ContestResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	PrizePool string    `json:"prizePool"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	CreatedAt time.Time `json:"createdAt"`
	// ArchivedMemes is set on the archive transition only.
	ArchivedMemes int `json:"archivedMemes,omitempty"`
}

func TransformContestFromStorage(c *storage.Contest) ContestResponse {
	return ContestResponse{
		ID:        c.ID,
		Title:     c.Title,
		Status:    string(c.Status),
		PrizePool: c.PrizePool,
		StartsAt:  c.StartsAt,
		EndsAt:    c.EndsAt,
		CreatedAt: c.CreatedAt,
	}
}
