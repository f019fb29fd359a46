package models

// Alphabet and IDLength shape the nanoid ids of contests, memes and votes.
var Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const IDLength = 16

// Error codes carried in ErrorResponse.Code.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicateVote     = "DUPLICATE_VOTE"
	CodeDuplicateOrder    = "DUPLICATE_DISTRIBUTION"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeInsufficient      = "INSUFFICIENT_BALANCE"
	CodeTransferPending   = "TRANSFER_IN_PROGRESS"
	CodeTransferFailed    = "TRANSFER_FAILED"
	CodeSessionMismatch   = "SESSION_MISMATCH"
	CodeUpstream          = "UPSTREAM_UNAVAILABLE"
	CodeInternal          = "INTERNAL_ERROR"
	CodeContestClosed     = "CONTEST_NOT_ACTIVE"
	CodeMemeArchived      = "MEME_ARCHIVED"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
