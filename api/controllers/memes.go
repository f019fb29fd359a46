package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/jichangyoon/samu-rewards/storage"
	"net/http"
	"strings"
	"time"
)

const maxImagesPerMeme = 10

type MemeController struct {
	memesStorage    storage.MemeStorage
	contestsStorage storage.ContestStorage
}

func NewMemeController(memes storage.MemeStorage, contests storage.ContestStorage) *MemeController {
	return &MemeController{
		memesStorage:    memes,
		contestsStorage: contests,
	}
}

func (c *MemeController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.POST("/memes", c.create)
	group.GET("/memes/:id", c.get)
	group.GET("/contests/:id", c.getContest)
	group.GET("/contests/:id/memes", c.listByContest)
}

// create godoc
// @Summary Register a meme
// @Description Stores meme metadata. Images are uploaded elsewhere and referenced by URL.
// @Tags memes
// @Accept json
// @Produce json
// @Param meme body models.CreateMemeRequest true "Meme"
// @Success 201 {object} models.MemeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Contest not found"
// @Router /api/memes [post]
func (c *MemeController) create(g *gin.Context) {
	var req models.CreateMemeRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		badRequest(g, "invalid request format")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		badRequest(g, "title is required")
		return
	}
	author, err := solana.ValidateAddress(req.AuthorWallet)
	if err != nil {
		badRequest(g, "authorWallet is not a valid address")
		return
	}
	if len(req.ImageURLs) > maxImagesPerMeme {
		badRequest(g, "too many images")
		return
	}

	var contestID *string
	if id := strings.TrimSpace(req.ContestID); id != "" {
		contest, err := c.contestsStorage.Get(g.Request.Context(), id)
		if err != nil {
			respondError(g, "MEME", err)
			return
		}
		if contest.Status == storage.ContestArchived {
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "contest is archived", Code: models.CodeContestClosed})
			return
		}
		contestID = &id
	}

	id, err := newID()
	if err != nil {
		respondError(g, "MEME", err)
		return
	}
	meme := &storage.Meme{
		ID:           id,
		ContestID:    contestID,
		Title:        req.Title,
		Description:  req.Description,
		ImageURLs:    req.ImageURLs,
		AuthorWallet: author.String(),
		CreatedAt:    time.Now().UTC(),
	}
	if err := c.memesStorage.Create(g.Request.Context(), meme); err != nil {
		respondError(g, "MEME", err)
		return
	}

	logging.Log.Infof("MEME: %s registered meme %s", meme.AuthorWallet, meme.ID)
	g.JSON(http.StatusCreated, models.TransformMemeFromStorage(meme))
}

// get godoc
// @Summary Get a meme
// @Tags memes
// @Produce json
// @Param id path string true "Meme ID"
// @Success 200 {object} models.MemeResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/memes/{id} [get]
func (c *MemeController) get(g *gin.Context) {
	meme, err := c.memesStorage.Get(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondError(g, "MEME", err)
		return
	}
	g.JSON(http.StatusOK, models.TransformMemeFromStorage(meme))
}

// getContest godoc
// @Summary Get a contest
// @Tags memes
// @Produce json
// @Param id path string true "Contest ID"
// @Success 200 {object} models.ContestResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/contests/{id} [get]
func (c *MemeController) getContest(g *gin.Context) {
	contest, err := c.contestsStorage.Get(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondError(g, "CONTEST", err)
		return
	}
	g.JSON(http.StatusOK, models.TransformContestFromStorage(contest))
}

// listByContest godoc
// @Summary List memes of a contest
// @Tags memes
// @Produce json
// @Param id path string true "Contest ID"
// @Success 200 {array} models.MemeResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/contests/{id}/memes [get]
func (c *MemeController) listByContest(g *gin.Context) {
	id := g.Param("id")
	if _, err := c.contestsStorage.Get(g.Request.Context(), id); err != nil {
		respondError(g, "MEME", err)
		return
	}
	memes, err := c.memesStorage.ListByContest(g.Request.Context(), id)
	if err != nil {
		respondError(g, "MEME", err)
		return
	}

	response := make([]models.MemeResponse, 0, len(memes))
	for _, m := range memes {
		response = append(response, models.TransformMemeFromStorage(m))
	}
	g.JSON(http.StatusOK, response)
}
