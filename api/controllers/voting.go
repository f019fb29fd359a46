package controllers

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/jichangyoon/samu-rewards/api/transport"
	"github.com/jichangyoon/samu-rewards/balance"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/metrics"
	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/jichangyoon/samu-rewards/storage"
	"net/http"
	"strings"
	"time"
)

// BalanceReader returns the displayed token balance of a wallet.
type BalanceReader interface {
	Balance(ctx context.Context, wallet string, token solana.TokenType) (balance.View, error)
}

// BreakdownInvalidator drops cached reward breakdowns.
type BreakdownInvalidator interface {
	Invalidate(contestID string)
}

type VotingController struct {
	memesStorage    storage.MemeStorage
	votesStorage    storage.VoteStorage
	contestsStorage storage.ContestStorage
	breakdowns      BreakdownInvalidator
	balances        BalanceReader
	limiter         *transport.RateLimiter
}

// NewVotingController wires the vote path. balances may be nil, in which case
// voting power is not checked against the chain.
func NewVotingController(memes storage.MemeStorage, votes storage.VoteStorage, contests storage.ContestStorage,
	breakdowns BreakdownInvalidator, balances BalanceReader, limiter *transport.RateLimiter) *VotingController {
	return &VotingController{
		memesStorage:    memes,
		votesStorage:    votes,
		contestsStorage: contests,
		breakdowns:      breakdowns,
		balances:        balances,
		limiter:         limiter,
	}
}

func (c *VotingController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.POST("/votes", transport.RateLimitMiddleware(c.limiter), c.submitVote)
	group.GET("/memes/:id/votes", c.getVotesByMeme)
}

// submitVote godoc
// @Summary Vote for a meme
// @Description Commits a SAMU amount to a meme. One vote per wallet and meme.
// @Tags voting
// @Accept json
// @Produce json
// @Param vote body models.SubmitVoteRequest true "Vote submission"
// @Success 201 {object} models.VoteResponse
// @Failure 400 {object} models.ErrorResponse "Invalid vote data, closed contest or insufficient balance"
// @Failure 404 {object} models.ErrorResponse "Meme not found"
// @Failure 409 {object} models.ErrorResponse "Wallet already voted for this meme"
// @Failure 502 {object} models.ErrorResponse "Balance could not be read"
// @Router /api/votes [post]
func (c *VotingController) submitVote(g *gin.Context) {
	ctx := g.Request.Context()

	var req models.SubmitVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		badRequest(g, "invalid request format")
		return
	}
	req.MemeID = strings.TrimSpace(req.MemeID)
	if req.MemeID == "" {
		badRequest(g, "memeId is required")
		return
	}
	voter, err := solana.ValidateAddress(req.VoterWallet)
	if err != nil {
		badRequest(g, "voterWallet is not a valid address")
		return
	}
	if !req.Amount.IsPositive() {
		badRequest(g, "amount must be positive")
		return
	}

	meme, err := c.memesStorage.Get(ctx, req.MemeID)
	if err != nil {
		respondError(g, "VOTE", err)
		return
	}
	if meme.Archived {
		metrics.VotesTotal.WithLabelValues("rejected").Inc()
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "meme is archived", Code: models.CodeMemeArchived})
		return
	}

	contestID := ""
	if meme.ContestID != nil {
		contestID = *meme.ContestID
		contest, err := c.contestsStorage.Get(ctx, contestID)
		if err != nil {
			respondError(g, "VOTE", err)
			return
		}
		if contest.Status != storage.ContestActive {
			metrics.VotesTotal.WithLabelValues("rejected").Inc()
			logging.Log.Warnf("VOTE: contest %s is %s, vote on %s rejected", contestID, contest.Status, meme.ID)
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "contest is not accepting votes", Code: models.CodeContestClosed})
			return
		}
	}

	if c.balances != nil {
		view, err := c.balances.Balance(ctx, voter.String(), solana.TokenSAMU)
		if err != nil {
			respondError(g, "VOTE", err)
			return
		}
		if req.Amount.GreaterThan(view.Amount) {
			metrics.VotesTotal.WithLabelValues("rejected").Inc()
			logging.Log.Warnf("VOTE: %s committed %s SAMU but holds %s", voter, req.Amount, view.Amount)
			respondError(g, "VOTE", balance.ErrInsufficientBalance)
			return
		}
	}

	id, err := newID()
	if err != nil {
		respondError(g, "VOTE", err)
		return
	}
	vote := &storage.Vote{
		ID:          id,
		MemeID:      meme.ID,
		VoterWallet: voter.String(),
		ContestID:   contestID,
		Amount:      req.Amount,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.votesStorage.Create(ctx, vote); err != nil {
		if errors.Is(err, storage.ErrDuplicateVote) {
			metrics.VotesTotal.WithLabelValues("duplicate").Inc()
		} else {
			metrics.VotesTotal.WithLabelValues("error").Inc()
		}
		respondError(g, "VOTE", err)
		return
	}

	metrics.VotesTotal.WithLabelValues("recorded").Inc()
	if contestID != "" && c.breakdowns != nil {
		c.breakdowns.Invalidate(contestID)
	}
	logging.Log.Infof("VOTE: %s voted %s SAMU on meme %s", vote.VoterWallet, vote.Amount, vote.MemeID)
	g.JSON(http.StatusCreated, models.TransformVoteFromStorage(vote))
}

// getVotesByMeme godoc
// @Summary List votes of a meme
// @Tags voting
// @Produce json
// @Param id path string true "Meme ID"
// @Success 200 {array} models.VoteResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/memes/{id}/votes [get]
func (c *VotingController) getVotesByMeme(g *gin.Context) {
	id := g.Param("id")
	if _, err := c.memesStorage.Get(g.Request.Context(), id); err != nil {
		respondError(g, "VOTE", err)
		return
	}

	votes, err := c.votesStorage.ListByMeme(g.Request.Context(), id)
	if err != nil {
		respondError(g, "VOTE", err)
		return
	}

	response := make([]models.VoteResponse, 0, len(votes))
	for _, v := range votes {
		response = append(response, models.TransformVoteFromStorage(v))
	}
	g.JSON(http.StatusOK, response)
}
