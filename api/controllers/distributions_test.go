package controllers

import (
	testutils "github.com/jichangyoon/samu-rewards/api/controllers/testing"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"testing"
)

func TestRecordDistribution(t *testing.T) {
	app := setupTestApp(t)
	contestID := seedContest(t, app)

	record := func(orderID string, total string) *httpResult {
		res := testutils.PerformRequest(app.router, http.MethodPost, "/api/distributions", models.RecordDistributionRequest{
			OrderID:     orderID,
			ContestID:   contestID,
			TotalAmount: decimal.RequireFromString(total),
		}, adminHeaders())
		return &httpResult{code: res.Code, body: res.Body.Bytes()}
	}

	t.Run("Happy path - sale is split into pools", func(t *testing.T) {
		res := record("order-1", "10.0")
		require.Equal(t, http.StatusCreated, res.code, string(res.body))

		d := decode[models.DistributionResponse](t, res.body)
		assert.Equal(t, "order-1", d.OrderID)
		assert.Equal(t, "SOL", d.Currency)
		assert.Equal(t, "pending_creator_transfer", d.Status)
		assert.True(t, decimal.RequireFromString("4.5").Equal(d.CreatorAmount))
		assert.True(t, decimal.RequireFromString("4").Equal(d.VoterPoolAmount))
		assert.True(t, decimal.RequireFromString("1.5").Equal(d.PlatformAmount))
	})

	t.Run("Unhappy path - same order twice keeps one record", func(t *testing.T) {
		res := record("order-1", "99")
		require.Equal(t, http.StatusConflict, res.code)
		assert.Equal(t, models.CodeDuplicateOrder, decode[models.ErrorResponse](t, res.body).Code)

		list := testutils.PerformRequest(app.router, http.MethodGet, "/api/contests/"+contestID+"/distributions", nil, nil)
		require.Equal(t, http.StatusOK, list.Code)
		all := decode[[]models.DistributionResponse](t, list.Body.Bytes())
		require.Len(t, all, 1)
		assert.True(t, decimal.RequireFromString("10").Equal(all[0].TotalAmount))
	})

	t.Run("Unhappy path - invalid amount", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, record("order-2", "0").code)
		assert.Equal(t, http.StatusBadRequest, record("order-3", "-1").code)
		assert.Equal(t, http.StatusBadRequest, record("   ", "1").code)
	})

	t.Run("Unhappy path - unknown contest", func(t *testing.T) {
		res := testutils.PerformRequest(app.router, http.MethodPost, "/api/distributions", models.RecordDistributionRequest{
			OrderID:     "order-4",
			ContestID:   "doesnotexist",
			TotalAmount: decimal.NewFromInt(1),
		}, adminHeaders())
		assert.Equal(t, http.StatusNotFound, res.Code)
	})

	t.Run("Unhappy path - admin token required", func(t *testing.T) {
		res := testutils.PerformRequest(app.router, http.MethodPost, "/api/distributions", models.RecordDistributionRequest{
			OrderID:     "order-5",
			ContestID:   contestID,
			TotalAmount: decimal.NewFromInt(1),
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})
}

type httpResult struct {
	code int
	body []byte
}

func TestDistributionAllocations(t *testing.T) {
	app := setupTestApp(t)
	contestID := seedContest(t, app)

	res := testutils.PerformRequest(app.router, http.MethodPost, "/api/distributions", models.RecordDistributionRequest{
		OrderID:     "order-1",
		ContestID:   contestID,
		TotalAmount: decimal.RequireFromString("10"),
	}, adminHeaders())
	require.Equal(t, http.StatusCreated, res.Code)

	t.Run("Happy path - pools split per wallet", func(t *testing.T) {
		res := testutils.PerformRequest(app.router, http.MethodGet, "/api/distributions/order-1/allocations", nil, nil)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())

		a := decode[models.AllocationsResponse](t, res.Body.Bytes())
		require.Len(t, a.Creators, 2)
		assert.Equal(t, walletA, a.Creators[0].Wallet)
		assert.True(t, decimal.RequireFromString("3.6").Equal(a.Creators[0].Amount), a.Creators[0].Amount.String())
		assert.True(t, decimal.RequireFromString("0.9").Equal(a.Creators[1].Amount), a.Creators[1].Amount.String())

		require.Len(t, a.Voters, 4)
		sum := decimal.Zero
		for _, v := range a.Voters {
			sum = sum.Add(v.Amount)
		}
		assert.True(t, a.Distribution.VoterPoolAmount.Equal(sum), sum.String())
		assert.True(t, decimal.RequireFromString("1.6").Equal(a.Voters[0].Amount))
	})

	t.Run("Unhappy path - unknown order", func(t *testing.T) {
		res := testutils.PerformRequest(app.router, http.MethodGet, "/api/distributions/nope/allocations", nil, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
		res = testutils.PerformRequest(app.router, http.MethodGet, "/api/distributions/nope", nil, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}

func TestUpdateDistributionStatus(t *testing.T) {
	app := setupTestApp(t)
	contestID := app.createActiveContest(t)

	res := testutils.PerformRequest(app.router, http.MethodPost, "/api/distributions", models.RecordDistributionRequest{
		OrderID:     "order-1",
		ContestID:   contestID,
		TotalAmount: decimal.NewFromInt(2),
	}, adminHeaders())
	require.Equal(t, http.StatusCreated, res.Code)

	advance := func(status, reason string) (int, []byte) {
		res := testutils.PerformRequest(app.router, http.MethodPost, "/api/admin/distributions/order-1/status",
			models.UpdateDistributionStatusRequest{Status: status, Reason: reason}, adminHeaders())
		return res.Code, res.Body.Bytes()
	}

	t.Run("Happy path - failed then completed", func(t *testing.T) {
		code, body := advance("transfer_failed", "creator wallet closed")
		require.Equal(t, http.StatusOK, code, string(body))
		d := decode[models.DistributionResponse](t, body)
		assert.Equal(t, "transfer_failed", d.Status)
		assert.Equal(t, "creator wallet closed", d.FailureReason)

		code, body = advance("completed", "")
		require.Equal(t, http.StatusOK, code)
		d = decode[models.DistributionResponse](t, body)
		assert.Equal(t, "completed", d.Status)
		assert.Empty(t, d.FailureReason)
	})

	t.Run("Unhappy path - completed is terminal", func(t *testing.T) {
		code, _ := advance("transfer_failed", "late")
		assert.Equal(t, http.StatusConflict, code)
		code, _ = advance("pending_creator_transfer", "")
		assert.Equal(t, http.StatusConflict, code)
	})

	t.Run("Unhappy path - unknown status", func(t *testing.T) {
		code, _ := advance("paid", "")
		assert.Equal(t, http.StatusBadRequest, code)
	})
}
