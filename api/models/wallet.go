package models

import (
	"github.com/jichangyoon/samu-rewards/balance"
	"github.com/jichangyoon/samu-rewards/wallet"
	"github.com/shopspring/decimal"
	"time"
)

type ConnectWalletRequest struct {
	Wallet string `json:"wallet"`
}

type SessionResponse struct {
	SessionID   string    `json:"sessionId"`
	Wallet      string    `json:"wallet"`
	ConnectedAt time.Time `json:"connectedAt"`
}

type BalanceResponse struct {
	Wallet    string          `json:"wallet"`
	TokenType string          `json:"tokenType"`
	Amount    decimal.Decimal `json:"amount"`
	Pending   bool            `json:"pending"`
}

type TransferRequest struct {
	FromWallet string          `json:"fromWallet"`
	ToAddress  string          `json:"toAddress"`
	Amount     decimal.Decimal `json:"amount"`
	TokenType  string          `json:"tokenType"`
	// SignedTransaction is the wallet-signed transaction, base64 encoded.
	SignedTransaction string `json:"signedTransaction"`
}

type TransferResponse struct {
	Signature        string          `json:"signature"`
	DisplayedBalance decimal.Decimal `json:"displayedBalance"`
	Pending          bool            `json:"pending"`
}

func TransformSession(s *wallet.Session) SessionResponse {
	return SessionResponse{SessionID: s.ID, Wallet: s.Wallet, ConnectedAt: s.ConnectedAt}
}

func TransformBalance(v balance.View) BalanceResponse {
	return BalanceResponse{
		Wallet:    v.Wallet,
		TokenType: string(v.Token),
		Amount:    v.Amount,
		Pending:   v.Pending,
	}
}
