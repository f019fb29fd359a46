package controllers

import (
	"context"
	"encoding/json"
	"github.com/gin-gonic/gin"
	testutils "github.com/jichangyoon/samu-rewards/api/controllers/testing"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/jichangyoon/samu-rewards/api/transport"
	"github.com/jichangyoon/samu-rewards/balance"
	"github.com/jichangyoon/samu-rewards/distribution"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/rewards"
	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/jichangyoon/samu-rewards/storage"
	"github.com/jichangyoon/samu-rewards/storage/storagetest"
	"github.com/jichangyoon/samu-rewards/wallet"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"net/http"
	"sync"
	"testing"
)

const (
	adminToken = "secret"

	walletA = "So11111111111111111111111111111111111111112"
	walletB = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	walletX = "SysvarRent111111111111111111111111111111111"
	walletY = "Vote111111111111111111111111111111111111111"
	walletZ = "11111111111111111111111111111111"
)

type stubChain struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	fetchErr error
	sendErr  error
}

func newStubChain() *stubChain {
	return &stubChain{balances: make(map[string]decimal.Decimal)}
}

func (s *stubChain) Balance(_ context.Context, wallet string, token solana.TokenType) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return decimal.Zero, s.fetchErr
	}
	return s.balances[wallet+"/"+string(token)], nil
}

func (s *stubChain) SendTransaction(_ context.Context, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return "", s.sendErr
	}
	return "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW", nil
}

func (s *stubChain) SignatureStatus(_ context.Context, _ string) (solana.Confirmation, error) {
	return solana.ConfirmationPending, nil
}

func (s *stubChain) setBalance(wallet string, token solana.TokenType, amount string) {
	s.mu.Lock()
	s.balances[wallet+"/"+string(token)] = decimal.RequireFromString(amount)
	s.mu.Unlock()
}

type testApp struct {
	router     *gin.Engine
	chain      *stubChain
	contests   storage.ContestStorage
	memes      storage.MemeStorage
	votes      storage.VoteStorage
	registry   *wallet.Registry
	reconciler *balance.Reconciler
}

// setupTestApp wires every controller against in-memory sqlite and a stub
// chain, the same way the server does.
func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	logging.Log = logrus.New()

	db := storagetest.NewSQLiteDB(t)
	contests := &storage.SQLContestStorage{DB: db}
	memes := &storage.SQLMemeStorage{DB: db}
	votes := &storage.SQLVoteStorage{DB: db}
	distributions := &storage.SQLDistributionStorage{DB: db}

	breakdowns, err := rewards.NewService(rewards.ServiceConfig{
		Reader: rewards.NewLedgerReader(memes, votes),
		Ratios: rewards.DefaultRatios(),
	})
	require.NoError(t, err)

	recorder, err := distribution.NewRecorder(distribution.RecorderConfig{
		Store:            distributions,
		CurrencyDecimals: distribution.DefaultCurrencyDecimals,
	})
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	registry, err := wallet.NewRegistry(wallet.RegistryConfig{Clock: clock})
	require.NoError(t, err)

	chain := newStubChain()
	reconciler, err := balance.NewReconciler(balance.ReconcilerConfig{
		Fetcher:  chain,
		Relay:    chain,
		Sessions: registry,
		Clock:    clock,
	})
	require.NoError(t, err)
	t.Cleanup(reconciler.Close)

	limiter := transport.NewRateLimiter(1000, 1000)

	r := newTestEngine()
	NewVotingController(memes, votes, contests, breakdowns, reconciler, limiter).RegisterRoutes(r)
	NewMemeController(memes, contests).RegisterRoutes(r)
	NewRewardsController(breakdowns, contests, registry).RegisterRoutes(r)
	NewDistributionController(recorder, breakdowns, contests, adminToken).RegisterRoutes(r)
	NewWalletController(registry, reconciler, limiter).RegisterRoutes(r)
	NewAdminController(contests, memes, adminToken).RegisterRoutes(r)

	return &testApp{
		router:     r,
		chain:      chain,
		contests:   contests,
		memes:      memes,
		votes:      votes,
		registry:   registry,
		reconciler: reconciler,
	}
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func adminHeaders() map[string]string {
	return map[string]string{transport.HeaderAdminToken: adminToken}
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

// createActiveContest creates a contest through the admin API and activates it.
func (a *testApp) createActiveContest(t *testing.T) string {
	t.Helper()
	res := testutils.PerformRequest(a.router, http.MethodPost, "/api/admin/contests",
		models.CreateContestRequest{Title: "Summer memes"}, adminHeaders())
	require.Equal(t, http.StatusCreated, res.Code)
	contest := decode[models.ContestResponse](t, res.Body.Bytes())

	res = testutils.PerformRequest(a.router, http.MethodPost, "/api/admin/contests/"+contest.ID+"/status",
		models.UpdateContestStatusRequest{Status: "active"}, adminHeaders())
	require.Equal(t, http.StatusOK, res.Code)
	return contest.ID
}

func (a *testApp) createMeme(t *testing.T, contestID, author string) string {
	t.Helper()
	res := testutils.PerformRequest(a.router, http.MethodPost, "/api/memes", models.CreateMemeRequest{
		ContestID:    contestID,
		Title:        "samu at the beach",
		ImageURLs:    []string{"https://cdn.example.com/samu.png"},
		AuthorWallet: author,
	}, nil)
	require.Equal(t, http.StatusCreated, res.Code)
	return decode[models.MemeResponse](t, res.Body.Bytes()).ID
}

func (a *testApp) vote(t *testing.T, memeID, voter, amount string) int {
	t.Helper()
	a.chain.setBalance(voter, solana.TokenSAMU, "1000000")
	res := testutils.PerformRequest(a.router, http.MethodPost, "/api/votes", models.SubmitVoteRequest{
		MemeID:      memeID,
		VoterWallet: voter,
		Amount:      decimal.RequireFromString(amount),
	}, nil)
	return res.Code
}
