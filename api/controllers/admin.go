package controllers

import (
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/jichangyoon/samu-rewards/api/transport"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/storage"
	"net/http"
	"strings"
	"time"
)

// contestTransitions maps a target status to the only status it can follow.
var contestTransitions = map[storage.ContestStatus]storage.ContestStatus{
	storage.ContestActive:   storage.ContestDraft,
	storage.ContestArchived: storage.ContestActive,
}

type AdminController struct {
	contestsStorage storage.ContestStorage
	memesStorage    storage.MemeStorage
	adminToken      string
}

func NewAdminController(contests storage.ContestStorage, memes storage.MemeStorage, adminToken string) *AdminController {
	return &AdminController{
		contestsStorage: contests,
		memesStorage:    memes,
		adminToken:      adminToken,
	}
}

func (c *AdminController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/admin", transport.AdminAuthMiddleware(c.adminToken))

	group.POST("/contests", c.createContest)
	group.POST("/contests/:id/status", c.updateContestStatus)
}

// @Security AdminToken
// createContest godoc
// @Summary Create a contest
// @Description New contests start as draft.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.CreateContestRequest true "Contest"
// @Success 201 {object} models.ContestResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/contests [post]
func (c *AdminController) createContest(g *gin.Context) {
	var req models.CreateContestRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		badRequest(g, "invalid request format")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		badRequest(g, "title is required")
		return
	}
	if !req.StartsAt.IsZero() && !req.EndsAt.IsZero() && !req.EndsAt.After(req.StartsAt) {
		badRequest(g, "endsAt must be after startsAt")
		return
	}

	id, err := newID()
	if err != nil {
		respondError(g, "ADMIN", err)
		return
	}
	contest := &storage.Contest{
		ID:        id,
		Title:     req.Title,
		Status:    storage.ContestDraft,
		PrizePool: req.PrizePool,
		StartsAt:  req.StartsAt.UTC(),
		EndsAt:    req.EndsAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	if err := c.contestsStorage.Create(g.Request.Context(), contest); err != nil {
		respondError(g, "ADMIN", err)
		return
	}

	logging.Log.Infof("ADMIN: created contest %s %q", contest.ID, contest.Title)
	g.JSON(http.StatusCreated, models.TransformContestFromStorage(contest))
}

// @Security AdminToken
// updateContestStatus godoc
// @Summary Move a contest along draft, active, archived
// @Description Archiving also archives every meme of the contest.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Contest ID"
// @Param request body models.UpdateContestStatusRequest true "Target status"
// @Success 200 {object} models.ContestResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Status change not allowed"
// @Router /api/admin/contests/{id}/status [post]
func (c *AdminController) updateContestStatus(g *gin.Context) {
	var req models.UpdateContestStatusRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		badRequest(g, "invalid request format")
		return
	}
	to := storage.ContestStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	from, ok := contestTransitions[to]
	if !ok {
		logging.Log.Warnf("ADMIN: invalid contest status %q requested", req.Status)
		badRequest(g, "status must be active or archived")
		return
	}

	id := g.Param("id")
	if err := c.contestsStorage.UpdateStatus(g.Request.Context(), id, from, to); err != nil {
		// Archiving an archived contest is a retry: it only archives the
		// memes a previous attempt left behind.
		if !errors.Is(err, storage.ErrInvalidStatusTransition) || !c.alreadyArchived(g, id, to) {
			respondError(g, "ADMIN", err)
			return
		}
		logging.Log.Infof("ADMIN: contest %s already archived, archiving remaining memes", id)
	}

	archived := 0
	if to == storage.ContestArchived {
		n, err := c.memesStorage.ArchiveByContest(g.Request.Context(), id)
		if err != nil {
			logging.Log.Errorf("ADMIN: contest %s is archived but archiving its memes stopped after %d: %v", id, n, err)
			respondError(g, "ADMIN", err)
			return
		}
		archived = n
	}

	contest, err := c.contestsStorage.Get(g.Request.Context(), id)
	if err != nil {
		respondError(g, "ADMIN", err)
		return
	}

	logging.Log.Infof("ADMIN: contest %s moved %s -> %s", id, from, to)
	response := models.TransformContestFromStorage(contest)
	response.ArchivedMemes = archived
	g.JSON(http.StatusOK, response)
}

func (c *AdminController) alreadyArchived(g *gin.Context, id string, to storage.ContestStatus) bool {
	if to != storage.ContestArchived {
		return false
	}
	contest, err := c.contestsStorage.Get(g.Request.Context(), id)
	return err == nil && contest.Status == storage.ContestArchived
}
