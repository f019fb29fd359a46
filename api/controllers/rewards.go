package controllers

import (
	"context"
	"github.com/gin-gonic/gin"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/jichangyoon/samu-rewards/api/transport"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/rewards"
	"github.com/jichangyoon/samu-rewards/storage"
	"github.com/jichangyoon/samu-rewards/wallet"
	"net/http"
)

// BreakdownService serves reward breakdowns and the configured ratios.
type BreakdownService interface {
	Breakdown(ctx context.Context, contestID string) (rewards.Breakdown, error)
	Ratios() rewards.ShareRatios
}

type RewardsController struct {
	breakdowns      BreakdownService
	contestsStorage storage.ContestStorage
	sessions        transport.SessionLookup
}

func NewRewardsController(breakdowns BreakdownService, contests storage.ContestStorage, sessions transport.SessionLookup) *RewardsController {
	return &RewardsController{
		breakdowns:      breakdowns,
		contestsStorage: contests,
		sessions:        sessions,
	}
}

func (c *RewardsController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/contests")

	group.GET("/:id/rewards", c.getBreakdown)
	group.GET("/:id/rewards/me", transport.WalletSessionMiddleware(c.sessions), c.getMyShare)
}

// getBreakdown godoc
// @Summary Reward breakdown of a contest
// @Description Creator shares by votes received and voter shares by SAMU spent.
// @Tags rewards
// @Produce json
// @Param id path string true "Contest ID"
// @Success 200 {object} models.RewardBreakdownResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/contests/{id}/rewards [get]
func (c *RewardsController) getBreakdown(g *gin.Context) {
	id := g.Param("id")
	if _, err := c.contestsStorage.Get(g.Request.Context(), id); err != nil {
		respondError(g, "REWARDS", err)
		return
	}

	b, err := c.breakdowns.Breakdown(g.Request.Context(), id)
	if err != nil {
		respondError(g, "REWARDS", err)
		return
	}

	logging.Log.Debugf("REWARDS: breakdown of %s has %d creators and %d voters", id, len(b.Creators), len(b.Voters))
	g.JSON(http.StatusOK, models.TransformBreakdown(b))
}

// getMyShare godoc
// @Summary Reward share of the connected wallet
// @Tags rewards
// @Produce json
// @Security WalletSession
// @Param id path string true "Contest ID"
// @Success 200 {object} models.MyShareResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/contests/{id}/rewards/me [get]
func (c *RewardsController) getMyShare(g *gin.Context) {
	session, ok := wallet.FromContext(g.Request.Context())
	if !ok {
		g.JSON(http.StatusUnauthorized, &models.ErrorResponse{Error: "wallet session required", Code: models.CodeSessionMismatch})
		return
	}

	id := g.Param("id")
	if _, err := c.contestsStorage.Get(g.Request.Context(), id); err != nil {
		respondError(g, "REWARDS", err)
		return
	}
	b, err := c.breakdowns.Breakdown(g.Request.Context(), id)
	if err != nil {
		respondError(g, "REWARDS", err)
		return
	}

	g.JSON(http.StatusOK, models.TransformMyShare(id, b.ShareOf(session.Wallet), b.Ratios))
}
