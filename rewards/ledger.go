package rewards

import (
	"context"
	"fmt"

	"github.com/jichangyoon/samu-rewards/storage"
)

// LedgerReader reads a contest's memes and votes from storage.
type LedgerReader struct {
	memes storage.MemeStorage
	votes storage.VoteStorage
}

func NewLedgerReader(memes storage.MemeStorage, votes storage.VoteStorage) *LedgerReader {
	return &LedgerReader{memes: memes, votes: votes}
}

func (r *LedgerReader) Read(ctx context.Context, contestID string) (Ledger, error) {
	memes, err := r.memes.ListByContest(ctx, contestID)
	if err != nil {
		return Ledger{}, fmt.Errorf("list memes for contest %s: %w", contestID, err)
	}
	votes, err := r.votes.ListByContest(ctx, contestID)
	if err != nil {
		return Ledger{}, fmt.Errorf("list votes for contest %s: %w", contestID, err)
	}

	ledger := Ledger{
		ContestID: contestID,
		Memes:     make([]MemeTally, 0, len(memes)),
		Votes:     make([]VoteTally, 0, len(votes)),
	}
	for _, m := range memes {
		ledger.Memes = append(ledger.Memes, MemeTally{MemeID: m.ID, AuthorWallet: m.AuthorWallet, VotesReceived: m.VoteCount})
	}
	for _, v := range votes {
		ledger.Votes = append(ledger.Votes, VoteTally{VoterWallet: v.VoterWallet, SamuAmount: v.Amount})
	}
	return ledger, nil
}
