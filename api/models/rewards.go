package models

import (
	"github.com/jichangyoon/samu-rewards/rewards"
	"github.com/shopspring/decimal"
)

type ShareRatiosResponse struct {
	Creator  decimal.Decimal `json:"creator"`
	Voter    decimal.Decimal `json:"voter"`
	Platform decimal.Decimal `json:"platform"`
}

type CreatorShareResponse struct {
	Wallet        string  `json:"wallet"`
	VotesReceived int64   `json:"votesReceived"`
	MemeCount     int     `json:"memeCount"`
	Percent       float64 `json:"percent"`
}

type VoterShareResponse struct {
	Wallet    string          `json:"wallet"`
	SamuSpent decimal.Decimal `json:"samuSpent"`
	VoteCount int             `json:"voteCount"`
	Percent   float64         `json:"percent"`
}

type RewardBreakdownResponse struct {
	ContestID      string                 `json:"contestId"`
	ShareRatios    ShareRatiosResponse    `json:"shareRatios"`
	Creators       []CreatorShareResponse `json:"creators"`
	Voters         []VoterShareResponse   `json:"voters"`
	TotalVotes     int64                  `json:"totalVotes"`
	TotalSamuSpent decimal.Decimal        `json:"totalSamuSpent"`
}

type MyShareResponse struct {
	ContestID             string  `json:"contestId"`
	Wallet                string  `json:"wallet"`
	CreatorPercent        float64 `json:"creatorPercent"`
	VoterPercent          float64 `json:"voterPercent"`
	CombinedPercentOfSale float64 `json:"combinedPercentOfSale"`
}

func TransformRatios(r rewards.ShareRatios) ShareRatiosResponse {
	return ShareRatiosResponse{Creator: r.Creator, Voter: r.Voter, Platform: r.Platform}
}

func TransformBreakdown(b rewards.Breakdown) RewardBreakdownResponse {
	resp := RewardBreakdownResponse{
		ContestID:      b.ContestID,
		ShareRatios:    TransformRatios(b.Ratios),
		Creators:       make([]CreatorShareResponse, 0, len(b.Creators)),
		Voters:         make([]VoterShareResponse, 0, len(b.Voters)),
		TotalVotes:     b.TotalVotes,
		TotalSamuSpent: b.TotalSamuSpent,
	}
	for _, c := range b.Creators {
		resp.Creators = append(resp.Creators, CreatorShareResponse{
			Wallet:        c.Wallet,
			VotesReceived: c.VotesReceived,
			MemeCount:     c.MemeCount,
			Percent:       c.Percent,
		})
	}
	for _, v := range b.Voters {
		resp.Voters = append(resp.Voters, VoterShareResponse{
			Wallet:    v.Wallet,
			SamuSpent: v.SamuSpent,
			VoteCount: v.VoteCount,
			Percent:   v.Percent,
		})
	}
	return resp
}

func TransformMyShare(contestID string, ws rewards.WalletShare, r rewards.ShareRatios) MyShareResponse {
	return MyShareResponse{
		ContestID:             contestID,
		Wallet:                ws.Wallet,
		CreatorPercent:        ws.CreatorPercent,
		VoterPercent:          ws.VoterPercent,
		CombinedPercentOfSale: ws.CombinedPercentOfSale(r),
	}
}
