package solana

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/jichangyoon/samu-rewards/logging"
	"github.com/jichangyoon/samu-rewards/metrics"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

const (
	DefaultEndpoint = rpc.MainNetBeta_RPC
	lamportDecimals = 9
)

// ErrRPCUnavailable is returned once every endpoint failed for every attempt.
var ErrRPCUnavailable = errors.New("solana rpc unavailable")

// RPC is the subset of the solana-go rpc client the service calls.
type RPC interface {
	GetBalance(ctx context.Context, account solanago.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountsByOwner(ctx context.Context, owner solanago.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error)
	GetTokenAccountBalance(ctx context.Context, account solanago.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	SendRawTransactionWithOpts(ctx context.Context, rawTx []byte, opts rpc.TransactionOpts) (solanago.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solanago.Signature) (*rpc.GetSignatureStatusesResult, error)
}

type Endpoint struct {
	Name string
	RPC  RPC
}

// NewEndpoints dials one rpc client per url.
func NewEndpoints(urls []string) []Endpoint {
	if len(urls) == 0 {
		urls = []string{DefaultEndpoint}
	}
	out := make([]Endpoint, 0, len(urls))
	for _, u := range urls {
		out = append(out, Endpoint{Name: u, RPC: rpc.New(u)})
	}
	return out
}

type ClientConfig struct {
	Endpoints   []Endpoint
	SamuMint    solanago.PublicKey
	Commitment  rpc.CommitmentType
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Clock       clockwork.Clock
}

func (cfg *ClientConfig) Validate() error {
	if len(cfg.Endpoints) == 0 {
		return errors.New("at least one rpc endpoint is required")
	}
	if cfg.SamuMint.IsZero() {
		return errors.New("samu mint is required")
	}
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 250 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = 4 * cfg.BaseBackoff
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Client talks to Solana through a list of endpoints. Each attempt walks the
// list in order and the first success wins; attempts are separated by an
// exponential backoff.
type Client struct {
	cfg ClientConfig
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg}, nil
}

func (c *Client) call(ctx context.Context, method string, fn func(RPC) error) error {
	var lastErr error
	backoff := c.cfg.BaseBackoff
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.cfg.Clock.After(backoff):
			}
			backoff *= 2
			if backoff > c.cfg.MaxBackoff {
				backoff = c.cfg.MaxBackoff
			}
		}

		for _, ep := range c.cfg.Endpoints {
			lastErr = fn(ep.RPC)
			if lastErr == nil {
				metrics.RPCRequestsTotal.WithLabelValues(method, "ok").Inc()
				return nil
			}
			metrics.RPCRequestsTotal.WithLabelValues(method, "error").Inc()
			if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
				return lastErr
			}
			logging.Log.Warnf("SOLANA: %s via %s failed (attempt %d): %v", method, ep.Name, attempt, lastErr)
		}
	}
	logging.Log.Errorf("SOLANA: %s failed on every endpoint: %v", method, lastErr)
	return fmt.Errorf("%w: %s: %v", ErrRPCUnavailable, method, lastErr)
}

// Balance returns the wallet's balance of token in whole units.
func (c *Client) Balance(ctx context.Context, wallet string, token TokenType) (decimal.Decimal, error) {
	owner, err := ValidateAddress(wallet)
	if err != nil {
		return decimal.Zero, err
	}
	switch token {
	case TokenSOL:
		return c.solBalance(ctx, owner)
	case TokenSAMU:
		return c.tokenBalance(ctx, owner, c.cfg.SamuMint)
	}
	return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownToken, token)
}

func (c *Client) solBalance(ctx context.Context, owner solanago.PublicKey) (decimal.Decimal, error) {
	var lamports uint64
	err := c.call(ctx, "getBalance", func(r RPC) error {
		res, err := r.GetBalance(ctx, owner, c.cfg.Commitment)
		if err != nil {
			return err
		}
		lamports = res.Value
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -lamportDecimals), nil
}

// tokenBalance sums every token account the owner holds for mint. A wallet
// without an account for the mint has a zero balance.
func (c *Client) tokenBalance(ctx context.Context, owner, mint solanago.PublicKey) (decimal.Decimal, error) {
	var accounts []solanago.PublicKey
	err := c.call(ctx, "getTokenAccountsByOwner", func(r RPC) error {
		res, err := r.GetTokenAccountsByOwner(ctx, owner,
			&rpc.GetTokenAccountsConfig{Mint: &mint},
			&rpc.GetTokenAccountsOpts{Commitment: c.cfg.Commitment, Encoding: solanago.EncodingBase64},
		)
		if err != nil {
			return err
		}
		accounts = accounts[:0]
		for _, acc := range res.Value {
			if acc != nil {
				accounts = append(accounts, acc.Pubkey)
			}
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, account := range accounts {
		var amount decimal.Decimal
		err := c.call(ctx, "getTokenAccountBalance", func(r RPC) error {
			res, err := r.GetTokenAccountBalance(ctx, account, c.cfg.Commitment)
			if err != nil {
				return err
			}
			if res.Value == nil {
				amount = decimal.Zero
				return nil
			}
			raw, err := decimal.NewFromString(res.Value.Amount)
			if err != nil {
				return fmt.Errorf("parse token amount %q: %w", res.Value.Amount, err)
			}
			amount = raw.Shift(-int32(res.Value.Decimals))
			return nil
		})
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return total, nil
}

// SendTransaction relays an already signed transaction. Resending the same
// transaction to another endpoint is safe, it lands at most once.
func (c *Client) SendTransaction(ctx context.Context, rawTx []byte) (string, error) {
	if len(rawTx) == 0 {
		return "", errors.New("empty transaction")
	}
	var sig solanago.Signature
	err := c.call(ctx, "sendTransaction", func(r RPC) error {
		s, err := r.SendRawTransactionWithOpts(ctx, rawTx, rpc.TransactionOpts{
			PreflightCommitment: c.cfg.Commitment,
		})
		if err != nil {
			return err
		}
		sig = s
		return nil
	})
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}

type Confirmation int

const (
	ConfirmationPending Confirmation = iota
	ConfirmationConfirmed
	ConfirmationFailed
)

func (c Confirmation) String() string {
	switch c {
	case ConfirmationConfirmed:
		return "confirmed"
	case ConfirmationFailed:
		return "failed"
	}
	return "pending"
}

// SignatureStatus reports whether the transaction has reached the configured
// commitment, failed on chain, or is not visible yet.
func (c *Client) SignatureStatus(ctx context.Context, signature string) (Confirmation, error) {
	sig, err := ValidateSignature(signature)
	if err != nil {
		return ConfirmationPending, err
	}

	var status *rpc.SignatureStatusesResult
	err = c.call(ctx, "getSignatureStatuses", func(r RPC) error {
		res, err := r.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return err
		}
		status = nil
		if res != nil && len(res.Value) > 0 {
			status = res.Value[0]
		}
		return nil
	})
	if err != nil {
		return ConfirmationPending, err
	}

	switch {
	case status == nil:
		return ConfirmationPending, nil
	case status.Err != nil:
		return ConfirmationFailed, nil
	case status.ConfirmationStatus == rpc.ConfirmationStatusFinalized:
		return ConfirmationConfirmed, nil
	case status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed && c.cfg.Commitment != rpc.CommitmentFinalized:
		return ConfirmationConfirmed, nil
	}
	return ConfirmationPending, nil
}
