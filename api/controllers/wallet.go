package controllers

import (
	"context"
	"encoding/base64"
	"github.com/gin-gonic/gin"
	"github.com/jichangyoon/samu-rewards/api/models"
	"github.com/jichangyoon/samu-rewards/api/transport"
	"github.com/jichangyoon/samu-rewards/balance"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/solana"
	"github.com/jichangyoon/samu-rewards/wallet"
	"net/http"
)

// SessionRegistry owns wallet connection contexts.
type SessionRegistry interface {
	transport.SessionLookup
	Connect(address string) (*wallet.Session, error)
	Disconnect(id string) error
}

// TransferSubmitter runs the optimistic transfer protocol.
type TransferSubmitter interface {
	BalanceReader
	SubmitTransfer(ctx context.Context, req balance.TransferRequest) (balance.TransferResult, error)
}

type WalletController struct {
	sessions SessionRegistry
	balances TransferSubmitter
	limiter  *transport.RateLimiter
}

func NewWalletController(sessions SessionRegistry, balances TransferSubmitter, limiter *transport.RateLimiter) *WalletController {
	return &WalletController{
		sessions: sessions,
		balances: balances,
		limiter:  limiter,
	}
}

func (c *WalletController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.POST("/wallet/connect", c.connect)
	group.DELETE("/wallet/sessions/:id", c.disconnect)
	group.GET("/balances/:wallet", c.getBalance)
	group.POST("/transfers",
		transport.RateLimitMiddleware(c.limiter),
		transport.WalletSessionMiddleware(c.sessions),
		c.submitTransfer)
}

// connect godoc
// @Summary Connect a wallet
// @Description Opens a wallet session. The session id goes into the x-wallet-session header.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body models.ConnectWalletRequest true "Wallet"
// @Success 201 {object} models.SessionResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/wallet/connect [post]
func (c *WalletController) connect(g *gin.Context) {
	var req models.ConnectWalletRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		badRequest(g, "invalid request format")
		return
	}

	session, err := c.sessions.Connect(req.Wallet)
	if err != nil {
		respondError(g, "WALLET", err)
		return
	}
	g.JSON(http.StatusCreated, models.TransformSession(session))
}

// disconnect godoc
// @Summary Disconnect a wallet session
// @Tags wallet
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/wallet/sessions/{id} [delete]
func (c *WalletController) disconnect(g *gin.Context) {
	if err := c.sessions.Disconnect(g.Param("id")); err != nil {
		respondError(g, "WALLET", err)
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "disconnected"})
}

// getBalance godoc
// @Summary Displayed balance of a wallet
// @Description The amount may be optimistic while a transfer is pending confirmation.
// @Tags wallet
// @Produce json
// @Param wallet path string true "Wallet address"
// @Param token query string false "SAMU or SOL" default(SAMU)
// @Success 200 {object} models.BalanceResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/balances/{wallet} [get]
func (c *WalletController) getBalance(g *gin.Context) {
	address, err := solana.ValidateAddress(g.Param("wallet"))
	if err != nil {
		respondError(g, "BALANCE", err)
		return
	}
	token, err := solana.ParseTokenType(g.DefaultQuery("token", string(solana.TokenSAMU)))
	if err != nil {
		respondError(g, "BALANCE", err)
		return
	}

	view, err := c.balances.Balance(g.Request.Context(), address.String(), token)
	if err != nil {
		respondError(g, "BALANCE", err)
		return
	}
	g.JSON(http.StatusOK, models.TransformBalance(view))
}

// submitTransfer godoc
// @Summary Relay a signed transfer
// @Description Lowers the displayed balance right away and reconciles it with the chain once the transfer settles.
// @Tags wallet
// @Accept json
// @Produce json
// @Security WalletSession
// @Param request body models.TransferRequest true "Signed transfer"
// @Success 202 {object} models.TransferResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse "Session does not own the wallet"
// @Failure 409 {object} models.ErrorResponse "A transfer is already pending"
// @Failure 502 {object} models.ErrorResponse "Transfer could not be submitted"
// @Router /api/transfers [post]
func (c *WalletController) submitTransfer(g *gin.Context) {
	session, _ := wallet.FromContext(g.Request.Context())

	var req models.TransferRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		badRequest(g, "invalid request format")
		return
	}
	token, err := solana.ParseTokenType(req.TokenType)
	if err != nil {
		respondError(g, "BALANCE", err)
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.SignedTransaction)
	if err != nil {
		logging.Log.Warnf("BALANCE: undecodable transaction from %s", req.FromWallet)
		badRequest(g, "signedTransaction must be base64")
		return
	}

	res, err := c.balances.SubmitTransfer(g.Request.Context(), balance.TransferRequest{
		Session:    session,
		FromWallet: req.FromWallet,
		ToAddress:  req.ToAddress,
		Amount:     req.Amount,
		Token:      token,
		RawTx:      raw,
	})
	if err != nil {
		respondError(g, "BALANCE", err)
		return
	}

	g.JSON(http.StatusAccepted, &models.TransferResponse{
		Signature:        res.Signature,
		DisplayedBalance: res.Displayed,
		Pending:          true,
	})
}
