package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/jichangyoon/samu-rewards/api/transport"
	"github.com/jichangyoon/samu-rewards/distribution"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/storage"
	"net/http"
	"strings"
)

type DistributionController struct {
	recorder        *distribution.Recorder
	breakdowns      BreakdownService
	contestsStorage storage.ContestStorage
	adminToken      string
}

func NewDistributionController(recorder *distribution.Recorder, breakdowns BreakdownService,
	contests storage.ContestStorage, adminToken string) *DistributionController {
	return &DistributionController{
		recorder:        recorder,
		breakdowns:      breakdowns,
		contestsStorage: contests,
		adminToken:      adminToken,
	}
}

func (c *DistributionController) RegisterRoutes(engine *gin.Engine) {
	admin := transport.AdminAuthMiddleware(c.adminToken)

	engine.POST("/api/distributions", admin, c.record)
	engine.GET("/api/distributions/:orderId", c.get)
	engine.GET("/api/distributions/:orderId/allocations", c.allocations)
	engine.GET("/api/contests/:id/distributions", c.listByContest)
	engine.POST("/api/admin/distributions/:orderId/status", admin, c.updateStatus)
}

// @Security AdminToken
// record godoc
// @Summary Record the reward distribution of a sale
// @Description Splits the sale total into creator, voter and platform pools. The order id is the idempotency key.
// @Tags distributions
// @Accept json
// @Produce json
// @Param request body models.RecordDistributionRequest true "Sale"
// @Success 201 {object} models.DistributionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Contest not found"
// @Failure 409 {object} models.ErrorResponse "Order already recorded"
// @Router /api/distributions [post]
func (c *DistributionController) record(g *gin.Context) {
	var req models.RecordDistributionRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		badRequest(g, "invalid request format")
		return
	}
	req.ContestID = strings.TrimSpace(req.ContestID)
	if req.ContestID == "" {
		badRequest(g, "contestId is required")
		return
	}
	if _, err := c.contestsStorage.Get(g.Request.Context(), req.ContestID); err != nil {
		respondError(g, "DISTRIBUTION", err)
		return
	}

	d, err := c.recorder.Record(g.Request.Context(), req.OrderID, req.ContestID, req.TotalAmount, c.breakdowns.Ratios())
	if err != nil {
		respondError(g, "DISTRIBUTION", err)
		return
	}
	g.JSON(http.StatusCreated, models.TransformDistributionFromStorage(d))
}

// get godoc
// @Summary Get the distribution of an order
// @Tags distributions
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} models.DistributionResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/distributions/{orderId} [get]
func (c *DistributionController) get(g *gin.Context) {
	d, err := c.recorder.Get(g.Request.Context(), g.Param("orderId"))
	if err != nil {
		respondError(g, "DISTRIBUTION", err)
		return
	}
	g.JSON(http.StatusOK, models.TransformDistributionFromStorage(d))
}

// allocations godoc
// @Summary Per-wallet allocations of a distribution
// @Description Splits the recorded pools with the current reward breakdown of the contest.
// @Tags distributions
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} models.AllocationsResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/distributions/{orderId}/allocations [get]
func (c *DistributionController) allocations(g *gin.Context) {
	d, err := c.recorder.Get(g.Request.Context(), g.Param("orderId"))
	if err != nil {
		respondError(g, "DISTRIBUTION", err)
		return
	}
	b, err := c.breakdowns.Breakdown(g.Request.Context(), d.ContestID)
	if err != nil {
		respondError(g, "DISTRIBUTION", err)
		return
	}
	g.JSON(http.StatusOK, models.TransformAllocations(c.recorder.Allocate(d, b)))
}

// listByContest godoc
// @Summary List distributions of a contest
// @Tags distributions
// @Produce json
// @Param id path string true "Contest ID"
// @Success 200 {array} models.DistributionResponse
// @Router /api/contests/{id}/distributions [get]
func (c *DistributionController) listByContest(g *gin.Context) {
	list, err := c.recorder.ListByContest(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondError(g, "DISTRIBUTION", err)
		return
	}

	response := make([]models.DistributionResponse, 0, len(list))
	for _, d := range list {
		response = append(response, models.TransformDistributionFromStorage(d))
	}
	g.JSON(http.StatusOK, response)
}

// @Security AdminToken
// updateStatus godoc
// @Summary Advance the status of a distribution
// @Description Allowed: pending_creator_transfer to transfer_failed or completed, transfer_failed to completed.
// @Tags admin
// @Accept json
// @Produce json
// @Param orderId path string true "Order ID"
// @Param request body models.UpdateDistributionStatusRequest true "Target status"
// @Success 200 {object} models.DistributionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Status change not allowed"
// @Router /api/admin/distributions/{orderId}/status [post]
func (c *DistributionController) updateStatus(g *gin.Context) {
	var req models.UpdateDistributionStatusRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		badRequest(g, "invalid request format")
		return
	}
	status, ok := distribution.ParseStatus(req.Status)
	if !ok {
		logging.Log.Warnf("ADMIN: unknown distribution status %q", req.Status)
		badRequest(g, "unknown status")
		return
	}

	d, err := c.recorder.AdvanceStatus(g.Request.Context(), g.Param("orderId"), status, req.Reason)
	if err != nil {
		respondError(g, "DISTRIBUTION", err)
		return
	}
	g.JSON(http.StatusOK, models.TransformDistributionFromStorage(d))
}
