package models

import (
	"github.com/jichangyoon/samu-rewards/distribution"
	"github.com/jichangyoon/samu-rewards/rewards"
	"github.com/jichangyoon/samu-rewards/storage"
	"github.com/shopspring/decimal"
	"time"
)

type RecordDistributionRequest struct {
	OrderID     string          `json:"orderId"`
	ContestID   string          `json:"contestId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type UpdateDistributionStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type DistributionResponse struct {
	ID              string              `json:"id"`
	OrderID         string              `json:"orderId"`
	ContestID       string              `json:"contestId"`
	Currency        string              `json:"currency"`
	TotalAmount     decimal.Decimal     `json:"totalAmount"`
	CreatorAmount   decimal.Decimal     `json:"creatorAmount"`
	VoterPoolAmount decimal.Decimal     `json:"voterPoolAmount"`
	PlatformAmount  decimal.Decimal     `json:"platformAmount"`
	ShareRatios     ShareRatiosResponse `json:"shareRatios"`
	Status          string              `json:"status"`
	FailureReason   string              `json:"failureReason,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

type AllocationResponse struct {
	Wallet  string          `json:"wallet"`
	Percent float64         `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
}

type AllocationsResponse struct {
	Distribution DistributionResponse `json:"distribution"`
	Creators     []AllocationResponse `json:"creators"`
	Voters       []AllocationResponse `json:"voters"`
}

func TransformDistributionFromStorage(d *storage.Distribution) DistributionResponse {
	return DistributionResponse{
		ID:              d.ID,
		OrderID:         d.OrderID,
		ContestID:       d.ContestID,
		Currency:        d.Currency,
		TotalAmount:     d.TotalAmount,
		CreatorAmount:   d.CreatorAmount,
		VoterPoolAmount: d.VoterPoolAmount,
		PlatformAmount:  d.PlatformAmount,
		ShareRatios: ShareRatiosResponse{
			Creator:  d.CreatorRatio,
			Voter:    d.VoterRatio,
			Platform: d.PlatformRatio,
		},
		Status:        string(d.Status),
		FailureReason: d.FailureReason,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func transformAllocations(in []rewards.Allocation) []AllocationResponse {
	out := make([]AllocationResponse, 0, len(in))
	for _, a := range in {
		out = append(out, AllocationResponse{Wallet: a.Wallet, Percent: a.Percent, Amount: a.Amount})
	}
	return out
}

func TransformAllocations(a distribution.Allocations) AllocationsResponse {
	return AllocationsResponse{
		Distribution: TransformDistributionFromStorage(a.Distribution),
		Creators:     transformAllocations(a.Creators),
		Voters:       transformAllocations(a.Voters),
	}
}
