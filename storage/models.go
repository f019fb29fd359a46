package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

type ContestStatus string

const (
	ContestDraft    ContestStatus = "draft"
	ContestActive   ContestStatus = "active"
	ContestArchived ContestStatus = "archived"
)

type Contest struct {
	ID        string        `dynamodbav:"PK" gorm:"primaryKey;size:32" json:"id"`
	Title     string        `dynamodbav:"Title" json:"title"`
	Status    ContestStatus `dynamodbav:"Status" gorm:"index;size:16" json:"status"`
	PrizePool string        `dynamodbav:"PrizePool" json:"prizePool"`
	StartsAt  time.Time     `dynamodbav:"StartsAt" json:"startsAt"`
	EndsAt    time.Time     `dynamodbav:"EndsAt" json:"endsAt"`
	CreatedAt time.Time     `dynamodbav:"CreatedAt" json:"createdAt"`
}

type Meme struct {
	ID           string    `dynamodbav:"PK" gorm:"primaryKey;size:32" json:"id"`
	ContestID    *string   `dynamodbav:"ContestID" gorm:"index;size:32" json:"contestId"`
	Title        string    `dynamodbav:"Title" json:"title"`
	Description  string    `dynamodbav:"Description" json:"description"`
	ImageURLs    []string  `dynamodbav:"ImageURLs" gorm:"serializer:json" json:"imageUrls"`
	AuthorWallet string    `dynamodbav:"AuthorWallet" gorm:"index;size:64" json:"authorWallet"`
	VoteCount    int64     `dynamodbav:"VoteCount" json:"voteCount"`
	Archived     bool      `dynamodbav:"Archived" json:"archived"`
	CreatedAt    time.Time `dynamodbav:"CreatedAt" json:"createdAt"`
}

// Vote is unique per (MemeID, VoterWallet). Votes are never updated.
type Vote struct {
	ID          string          `gorm:"primaryKey;size:32" json:"id"`
	MemeID      string          `gorm:"uniqueIndex:idx_vote_meme_voter,priority:1;size:32" json:"memeId"`
	VoterWallet string          `gorm:"uniqueIndex:idx_vote_meme_voter,priority:2;size:64" json:"voterWallet"`
	ContestID   string          `gorm:"index;size:32" json:"contestId"`
	Amount      decimal.Decimal `gorm:"type:decimal(38,9)" json:"amount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type DistributionStatus string

const (
	DistributionPendingCreatorTransfer DistributionStatus = "pending_creator_transfer"
	DistributionTransferFailed         DistributionStatus = "transfer_failed"
	DistributionCompleted              DistributionStatus = "completed"
)

// Distribution is the recorded split of one sale. OrderID is the idempotency key.
type Distribution struct {
	ID              string             `gorm:"primaryKey;size:36" json:"id"`
	OrderID         string             `gorm:"uniqueIndex;size:64" json:"orderId"`
	ContestID       string             `gorm:"index;size:32" json:"contestId"`
	Currency        string             `gorm:"size:16" json:"currency"`
	TotalAmount     decimal.Decimal    `gorm:"type:decimal(38,9)" json:"totalAmount"`
	CreatorAmount   decimal.Decimal    `gorm:"type:decimal(38,9)" json:"creatorAmount"`
	VoterPoolAmount decimal.Decimal    `gorm:"type:decimal(38,9)" json:"voterPoolAmount"`
	PlatformAmount  decimal.Decimal    `gorm:"type:decimal(38,9)" json:"platformAmount"`
	CreatorRatio    decimal.Decimal    `gorm:"type:decimal(10,9)" json:"creatorRatio"`
	VoterRatio      decimal.Decimal    `gorm:"type:decimal(10,9)" json:"voterRatio"`
	PlatformRatio   decimal.Decimal    `gorm:"type:decimal(10,9)" json:"platformRatio"`
	Status          DistributionStatus `gorm:"index;size:32" json:"status"`
	FailureReason   string             `json:"failureReason,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}
