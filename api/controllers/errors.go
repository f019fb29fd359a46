package controllers

import (
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/jichangyoon/samu-rewards/balance"
	"github.com/jichangyoon/samu-rewards/distribution"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/rewards"
	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/jichangyoon/samu-rewards/storage"
	"github.com/jichangyoon/samu-rewards/wallet"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"net/http"
)

func newID() (string, error) {
	return gonanoid.Generate(models.Alphabet, models.IDLength)
}

func badRequest(g *gin.Context, msg string) {
	g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: msg, Code: models.CodeInvalidRequest})
}

// respondError maps a domain error to its HTTP status. Upstream failures get
// a generic message so RPC details never reach the client.
func respondError(g *gin.Context, area string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, wallet.ErrSessionNotFound):
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "not found", Code: models.CodeNotFound})
	case errors.Is(err, storage.ErrDuplicateVote):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "wallet already voted for this meme", Code: models.CodeDuplicateVote})
	case errors.Is(err, storage.ErrDistributionExists):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "distribution already recorded for this order", Code: models.CodeDuplicateOrder})
	case errors.Is(err, storage.ErrItemWithIDAlreadyExists):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "item already exists", Code: models.CodeInvalidRequest})
	case errors.Is(err, storage.ErrInvalidStatusTransition):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "status change not allowed", Code: models.CodeInvalidTransition})
	case errors.Is(err, balance.ErrTransferInProgress):
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "a transfer is already pending, wait for it to settle", Code: models.CodeTransferPending})
	case errors.Is(err, balance.ErrSessionMismatch):
		g.JSON(http.StatusForbidden, &models.ErrorResponse{Error: "wallet session does not match", Code: models.CodeSessionMismatch})
	case errors.Is(err, balance.ErrInsufficientBalance):
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "insufficient balance", Code: models.CodeInsufficient})
	case errors.Is(err, balance.ErrInvalidTransfer),
		errors.Is(err, solana.ErrInvalidAddress),
		errors.Is(err, solana.ErrInvalidSignature),
		errors.Is(err, solana.ErrUnknownToken),
		errors.Is(err, distribution.ErrInvalidAmount),
		errors.Is(err, distribution.ErrInvalidRequest),
		errors.Is(err, rewards.ErrInvalidRatios):
		badRequest(g, err.Error())
	case errors.Is(err, balance.ErrTransferFailed):
		g.JSON(http.StatusBadGateway, &models.ErrorResponse{Error: "transfer could not be submitted, try again", Code: models.CodeTransferFailed})
	case errors.Is(err, solana.ErrRPCUnavailable):
		g.JSON(http.StatusBadGateway, &models.ErrorResponse{Error: "network unavailable, try again", Code: models.CodeUpstream})
	default:
		logging.Log.Errorf("%s: unexpected error: %v", area, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "unexpected internal error", Code: models.CodeInternal})
	}
}
