package models

import (
	"github.com/jichangyoon/samu-rewards/storage"
	"time"
)

type CreateMemeRequest struct {
	ContestID    string   `json:"contestId"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ImageURLs    []string `json:"imageUrls"`
	AuthorWallet string   `json:"authorWallet"`
}

type MemeResponse struct {
	ID           string    `json:"id"`
	ContestID    *string   `json:"contestId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ImageURLs    []string  `json:"imageUrls"`
	AuthorWallet string    `json:"authorWallet"`
	VoteCount    int64     `json:"voteCount"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"createdAt"`
}

func TransformMemeFromStorage(m *storage.Meme) MemeResponse {
	urls := m.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return MemeResponse{
		ID:           m.ID,
		ContestID:    m.ContestID,
		Title:        m.Title,
		Description:  m.Description,
		ImageURLs:    urls,
		AuthorWallet: m.AuthorWallet,
		VoteCount:    m.VoteCount,
		Archived:     m.Archived,
		CreatedAt:    m.CreatedAt,
	}
}
