package models

import (
	"github.com/jichangyoon/samu-rewards/storage"
	"github.com/shopspring/decimal"
	"time"
)

type SubmitVoteRequest struct {
	MemeID      string          `json:"memeId"`
	VoterWallet string          `json:"voterWallet"`
	Amount      decimal.Decimal `json:"amount"`
}

type VoteResponse struct {
	ID          string          `json:"id"`
	MemeID      string          `json:"memeId"`
	ContestID   string          `json:"contestId,omitempty"`
	VoterWallet string          `json:"voterWallet"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func TransformVoteFromStorage(v *storage.Vote) VoteResponse {
	return VoteResponse{
		ID:          v.ID,
		MemeID:      v.MemeID,
		ContestID:   v.ContestID,
		VoterWallet: v.VoterWallet,
		Amount:      v.Amount,
		CreatedAt:   v.CreatedAt,
	}
}
