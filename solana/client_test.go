package solana

import (
	"context"
	"errors"
	"testing"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWallet = "So11111111111111111111111111111111111111112"
	testMint   = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

type fakeRPC struct {
	err        error
	calls      int
	lamports   uint64
	accounts   []solanago.PublicKey
	amounts    map[solanago.PublicKey]*rpc.UiTokenAmount
	signature  solanago.Signature
	status     *rpc.SignatureStatusesResult
	lastConfig *rpc.GetTokenAccountsConfig
}

func (f *fakeRPC) GetBalance(_ context.Context, _ solanago.PublicKey, _ rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &rpc.GetBalanceResult{Value: f.lamports}, nil
}

func (f *fakeRPC) GetTokenAccountsByOwner(_ context.Context, _ solanago.PublicKey, conf *rpc.GetTokenAccountsConfig, _ *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error) {
	f.calls++
	f.lastConfig = conf
	if f.err != nil {
		return nil, f.err
	}
	res := &rpc.GetTokenAccountsResult{}
	for _, pk := range f.accounts {
		res.Value = append(res.Value, &rpc.TokenAccount{Pubkey: pk})
	}
	return res, nil
}

func (f *fakeRPC) GetTokenAccountBalance(_ context.Context, account solanago.PublicKey, _ rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &rpc.GetTokenAccountBalanceResult{Value: f.amounts[account]}, nil
}

func (f *fakeRPC) SendRawTransactionWithOpts(_ context.Context, _ []byte, _ rpc.TransactionOpts) (solanago.Signature, error) {
	f.calls++
	if f.err != nil {
		return solanago.Signature{}, f.err
	}
	return f.signature, nil
}

func (f *fakeRPC) GetSignatureStatuses(_ context.Context, _ bool, _ ...solanago.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{f.status}}, nil
}

func newTestClient(t *testing.T, rpcs ...RPC) *Client {
	t.Helper()
	endpoints := make([]Endpoint, 0, len(rpcs))
	for i, r := range rpcs {
		endpoints = append(endpoints, Endpoint{Name: string(rune('a' + i)), RPC: r})
	}
	c, err := NewClient(ClientConfig{
		Endpoints:   endpoints,
		SamuMint:    solanago.MustPublicKeyFromBase58(testMint),
		MaxAttempts: 2,
		BaseBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func testSignature() solanago.Signature {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	return solanago.SignatureFromBytes(raw)
}

func TestBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path - sol balance in whole units", func(t *testing.T) {
		c := newTestClient(t, &fakeRPC{lamports: 1_500_000_000})
		bal, err := c.Balance(ctx, testWallet, TokenSOL)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("1.5").Equal(bal), bal.String())
	})

	t.Run("Happy path - samu summed across token accounts", func(t *testing.T) {
		acc1 := solanago.MustPublicKeyFromBase58("11111111111111111111111111111111")
		acc2 := solanago.MustPublicKeyFromBase58(testWallet)
		fake := &fakeRPC{
			accounts: []solanago.PublicKey{acc1, acc2},
			amounts: map[solanago.PublicKey]*rpc.UiTokenAmount{
				acc1: {Amount: "1500000", Decimals: 6},
				acc2: {Amount: "250000", Decimals: 6},
			},
		}
		c := newTestClient(t, fake)
		bal, err := c.Balance(ctx, testWallet, TokenSAMU)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("1.75").Equal(bal), bal.String())
		require.NotNil(t, fake.lastConfig)
		assert.Equal(t, testMint, fake.lastConfig.Mint.String())
	})

	t.Run("Happy path - no token account is zero", func(t *testing.T) {
		c := newTestClient(t, &fakeRPC{})
		bal, err := c.Balance(ctx, testWallet, TokenSAMU)
		require.NoError(t, err)
		assert.True(t, bal.IsZero())
	})

	t.Run("Happy path - falls back to the next endpoint", func(t *testing.T) {
		broken := &fakeRPC{err: errors.New("503 service unavailable")}
		healthy := &fakeRPC{lamports: 2_000_000_000}
		c := newTestClient(t, broken, healthy)

		bal, err := c.Balance(ctx, testWallet, TokenSOL)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(2).Equal(bal))
		assert.Equal(t, 1, broken.calls)
		assert.Equal(t, 1, healthy.calls)
	})

	t.Run("Unhappy path - every endpoint fails for every attempt", func(t *testing.T) {
		a := &fakeRPC{err: errors.New("connection reset")}
		b := &fakeRPC{err: errors.New("timeout")}
		c := newTestClient(t, a, b)

		_, err := c.Balance(ctx, testWallet, TokenSOL)
		assert.ErrorIs(t, err, ErrRPCUnavailable)
		assert.Equal(t, 2, a.calls)
		assert.Equal(t, 2, b.calls)
	})

	t.Run("Unhappy path - cancelled context stops retrying", func(t *testing.T) {
		a := &fakeRPC{err: context.Canceled}
		c := newTestClient(t, a, &fakeRPC{})
		_, err := c.Balance(ctx, testWallet, TokenSOL)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, a.calls)
	})

	t.Run("Unhappy path - malformed address never reaches rpc", func(t *testing.T) {
		fake := &fakeRPC{}
		c := newTestClient(t, fake)
		_, err := c.Balance(ctx, "not-a-wallet!", TokenSOL)
		assert.ErrorIs(t, err, ErrInvalidAddress)
		assert.Zero(t, fake.calls)
	})
}

func TestSendAndConfirm(t *testing.T) {
	ctx := context.Background()
	sig := testSignature()

	t.Run("Happy path - send returns base58 signature", func(t *testing.T) {
		c := newTestClient(t, &fakeRPC{signature: sig})
		got, err := c.SendTransaction(ctx, []byte{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, base58.Encode(sig[:]), got)
	})

	t.Run("Unhappy path - empty transaction", func(t *testing.T) {
		c := newTestClient(t, &fakeRPC{})
		_, err := c.SendTransaction(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("Happy path - status mapping", func(t *testing.T) {
		fake := &fakeRPC{}
		c := newTestClient(t, fake)

		st, err := c.SignatureStatus(ctx, sig.String())
		require.NoError(t, err)
		assert.Equal(t, ConfirmationPending, st)

		fake.status = &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusProcessed}
		st, _ = c.SignatureStatus(ctx, sig.String())
		assert.Equal(t, ConfirmationPending, st)

		fake.status = &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}
		st, _ = c.SignatureStatus(ctx, sig.String())
		assert.Equal(t, ConfirmationConfirmed, st)

		fake.status = &rpc.SignatureStatusesResult{Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}}
		st, _ = c.SignatureStatus(ctx, sig.String())
		assert.Equal(t, ConfirmationFailed, st)
	})
}

func TestValidation(t *testing.T) {
	t.Run("Happy path - address", func(t *testing.T) {
		pk, err := ValidateAddress(" " + testWallet + " ")
		require.NoError(t, err)
		assert.Equal(t, testWallet, pk.String())
	})

	t.Run("Unhappy path - address", func(t *testing.T) {
		for _, addr := range []string{"", "0x1234", "abc"} {
			_, err := ValidateAddress(addr)
			assert.ErrorIs(t, err, ErrInvalidAddress, addr)
		}
	})

	t.Run("Happy path - signature", func(t *testing.T) {
		sig := testSignature()
		got, err := ValidateSignature(base58.Encode(sig[:]))
		require.NoError(t, err)
		assert.Equal(t, sig, got)
	})

	t.Run("Unhappy path - signature", func(t *testing.T) {
		_, err := ValidateSignature(base58.Encode([]byte{1, 2, 3}))
		assert.ErrorIs(t, err, ErrInvalidSignature)
		_, err = ValidateSignature("0OIl")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Happy path - token type", func(t *testing.T) {
		tt, err := ParseTokenType("samu")
		require.NoError(t, err)
		assert.Equal(t, TokenSAMU, tt)
		_, err = ParseTokenType("BONK")
		assert.ErrorIs(t, err, ErrUnknownToken)
	})
}
