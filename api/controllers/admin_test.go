package controllers

import (
	"context"
	"errors"
	testutils "github.com/jichangyoon/samu-rewards/api/controllers/testing"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/jichangyoon/samu-rewards/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"testing"
	"time"
)

func TestCreateContest(t *testing.T) {
	app := setupTestApp(t)

	t.Run("Happy path - contest starts as draft", func(t *testing.T) {
		start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		res := testutils.PerformRequest(app.router, http.MethodPost, "/api/admin/contests", models.CreateContestRequest{
			Title:     "June memes",
			PrizePool: "1 NFT drop",
			StartsAt:  start,
			EndsAt:    start.Add(30 * 24 * time.Hour),
		}, adminHeaders())
		require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

		contest := decode[models.ContestResponse](t, res.Body.Bytes())
		assert.Len(t, contest.ID, models.IDLength)
		assert.Equal(t, "draft", contest.Status)

		get := testutils.PerformRequest(app.router, http.MethodGet, "/api/contests/"+contest.ID, nil, nil)
		require.Equal(t, http.StatusOK, get.Code)
		assert.Equal(t, "June memes", decode[models.ContestResponse](t, get.Body.Bytes()).Title)
	})

	t.Run("Unhappy path - missing admin token", func(t *testing.T) {
		res := testutils.PerformRequest(app.router, http.MethodPost, "/api/admin/contests",
			models.CreateContestRequest{Title: "x"}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("Unhappy path - invalid contest", func(t *testing.T) {
		start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		cases := []models.CreateContestRequest{
			{Title: "   "},
			{Title: "backwards", StartsAt: start, EndsAt: start.Add(-time.Hour)},
		}
		for _, req := range cases {
			res := testutils.PerformRequest(app.router, http.MethodPost, "/api/admin/contests", req, adminHeaders())
			assert.Equal(t, http.StatusBadRequest, res.Code, "request %+v", req)
		}
	})
}

func TestUpdateContestStatus(t *testing.T) {
	app := setupTestApp(t)

	changeStatus := func(id, status string) int {
		return testutils.PerformRequest(app.router, http.MethodPost, "/api/admin/contests/"+id+"/status",
			models.UpdateContestStatusRequest{Status: status}, adminHeaders()).Code
	}

	t.Run("Happy path - archiving snapshots the memes", func(t *testing.T) {
		contestID := app.createActiveContest(t)
		first := app.createMeme(t, contestID, walletA)
		app.createMeme(t, contestID, walletB)
		other := app.createMeme(t, "", walletA)

		res := testutils.PerformRequest(app.router, http.MethodPost, "/api/admin/contests/"+contestID+"/status",
			models.UpdateContestStatusRequest{Status: "archived"}, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)
		contest := decode[models.ContestResponse](t, res.Body.Bytes())
		assert.Equal(t, "archived", contest.Status)
		assert.Equal(t, 2, contest.ArchivedMemes)

		meme, err := app.memes.Get(t.Context(), first)
		require.NoError(t, err)
		assert.True(t, meme.Archived)

		untouched, err := app.memes.Get(t.Context(), other)
		require.NoError(t, err)
		assert.False(t, untouched.Archived)
	})

	t.Run("Unhappy path - transitions only move forward", func(t *testing.T) {
		contestID := app.createActiveContest(t)

		assert.Equal(t, http.StatusConflict, changeStatus(contestID, "active"), "active to active")
		assert.Equal(t, http.StatusBadRequest, changeStatus(contestID, "draft"), "draft is never a target")
		require.Equal(t, http.StatusOK, changeStatus(contestID, "archived"))
		assert.Equal(t, http.StatusConflict, changeStatus(contestID, "active"), "archived is terminal")
		assert.Equal(t, http.StatusOK, changeStatus(contestID, "archived"), "archiving again is a retry")
	})

	t.Run("Unhappy path - draft cannot be archived directly", func(t *testing.T) {
		res := testutils.PerformRequest(app.router, http.MethodPost, "/api/admin/contests",
			models.CreateContestRequest{Title: "skipped"}, adminHeaders())
		require.Equal(t, http.StatusCreated, res.Code)
		id := decode[models.ContestResponse](t, res.Body.Bytes()).ID

		assert.Equal(t, http.StatusConflict, changeStatus(id, "archived"))
	})

	t.Run("Unhappy path - unknown contest", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, changeStatus("doesnotexist", "active"))
	})
}

// flakyArchive fails the first ArchiveByContest call.
type flakyArchive struct {
	storage.MemeStorage
	failed bool
}

func (f *flakyArchive) ArchiveByContest(ctx context.Context, contestID string) (int, error) {
	if !f.failed {
		f.failed = true
		return 0, errors.New("dynamo throttled")
	}
	return f.MemeStorage.ArchiveByContest(ctx, contestID)
}

func TestArchiveRetry(t *testing.T) {
	app := setupTestApp(t)
	contestID := app.createActiveContest(t)
	app.createMeme(t, contestID, walletA)
	app.createMeme(t, contestID, walletB)

	r := newTestEngine()
	NewAdminController(app.contests, &flakyArchive{MemeStorage: app.memes}, adminToken).RegisterRoutes(r)
	archive := func() *httpResult {
		res := testutils.PerformRequest(r, http.MethodPost, "/api/admin/contests/"+contestID+"/status",
			models.UpdateContestStatusRequest{Status: "archived"}, adminHeaders())
		return &httpResult{code: res.Code, body: res.Body.Bytes()}
	}

	t.Run("Unhappy path - meme archive fails after the contest moved", func(t *testing.T) {
		res := archive()
		assert.Equal(t, http.StatusInternalServerError, res.code)

		contest, err := app.contests.Get(t.Context(), contestID)
		require.NoError(t, err)
		assert.Equal(t, storage.ContestArchived, contest.Status)

		memes, err := app.memes.ListByContest(t.Context(), contestID)
		require.NoError(t, err)
		for _, m := range memes {
			assert.False(t, m.Archived, m.ID)
		}
	})

	t.Run("Happy path - archiving again finishes the memes", func(t *testing.T) {
		res := archive()
		require.Equal(t, http.StatusOK, res.code, string(res.body))
		assert.Equal(t, 2, decode[models.ContestResponse](t, res.body).ArchivedMemes)

		memes, err := app.memes.ListByContest(t.Context(), contestID)
		require.NoError(t, err)
		for _, m := range memes {
			assert.True(t, m.Archived, m.ID)
		}
	})
}

func TestMemes(t *testing.T) {
	app := setupTestApp(t)
	contestID := app.createActiveContest(t)

	t.Run("Happy path - list memes of a contest", func(t *testing.T) {
		app.createMeme(t, contestID, walletA)
		app.createMeme(t, contestID, walletB)
		app.createMeme(t, "", walletB)

		res := testutils.PerformRequest(app.router, http.MethodGet, "/api/contests/"+contestID+"/memes", nil, nil)
		require.Equal(t, http.StatusOK, res.Code)
		memes := decode[[]models.MemeResponse](t, res.Body.Bytes())
		require.Len(t, memes, 2)
		for _, m := range memes {
			require.NotNil(t, m.ContestID)
			assert.Equal(t, contestID, *m.ContestID)
		}
	})

	t.Run("Unhappy path - invalid meme", func(t *testing.T) {
		cases := []models.CreateMemeRequest{
			{Title: "", AuthorWallet: walletA},
			{Title: "no author", AuthorWallet: "0OIl"},
			{Title: "bad contest", AuthorWallet: walletA, ContestID: "doesnotexist"},
		}
		expected := []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusNotFound}
		for i, req := range cases {
			res := testutils.PerformRequest(app.router, http.MethodPost, "/api/memes", req, nil)
			assert.Equal(t, expected[i], res.Code, "request %+v", req)
		}
	})

	t.Run("Unhappy path - unknown meme and contest", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound,
			testutils.PerformRequest(app.router, http.MethodGet, "/api/memes/doesnotexist", nil, nil).Code)
		assert.Equal(t, http.StatusNotFound,
			testutils.PerformRequest(app.router, http.MethodGet, "/api/contests/doesnotexist/memes", nil, nil).Code)
	})
}
