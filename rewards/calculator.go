package rewards

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MemeTally is the part of a meme the calculator needs.
type MemeTally struct {
	MemeID        string
	AuthorWallet  string
	VotesReceived int64
}

// VoteTally is the part of a vote the calculator needs.
type VoteTally struct {
	VoterWallet string
	SamuAmount  decimal.Decimal
}

// Ledger is every meme and vote of one contest.
type Ledger struct {
	ContestID string
	Memes     []MemeTally
	Votes     []VoteTally
}

type CreatorShare struct {
	Wallet        string
	VotesReceived int64
	MemeCount     int
	Percent       float64
}

type VoterShare struct {
	Wallet    string
	SamuSpent decimal.Decimal
	VoteCount int
	Percent   float64
}

// Breakdown is derived from a Ledger and never persisted.
type Breakdown struct {
	ContestID      string
	Ratios         ShareRatios
	Creators       []CreatorShare
	Voters         []VoterShare
	TotalVotes     int64
	TotalSamuSpent decimal.Decimal
}

// Calculate maps a contest ledger to creator and voter percentages. The result
// does not depend on the order of ledger entries. Memes are grouped by author
// before percentages are assigned, and wallets with nothing received or spent
// are left out, so a ledger with no votes yields empty lists.
func Calculate(ledger Ledger, ratios ShareRatios) Breakdown {
	b := Breakdown{
		ContestID:      ledger.ContestID,
		Ratios:         ratios,
		Creators:       []CreatorShare{},
		Voters:         []VoterShare{},
		TotalSamuSpent: decimal.Zero,
	}

	byAuthor := make(map[string]*CreatorShare)
	for _, m := range ledger.Memes {
		if m.VotesReceived <= 0 {
			continue
		}
		c, ok := byAuthor[m.AuthorWallet]
		if !ok {
			c = &CreatorShare{Wallet: m.AuthorWallet}
			byAuthor[m.AuthorWallet] = c
		}
		c.VotesReceived += m.VotesReceived
		c.MemeCount++
		b.TotalVotes += m.VotesReceived
	}

	if b.TotalVotes > 0 {
		total := decimal.NewFromInt(b.TotalVotes)
		for _, c := range byAuthor {
			c.Percent = decimal.NewFromInt(c.VotesReceived).Mul(hundred).Div(total).InexactFloat64()
			b.Creators = append(b.Creators, *c)
		}
		sort.Slice(b.Creators, func(i, j int) bool {
			if b.Creators[i].VotesReceived != b.Creators[j].VotesReceived {
				return b.Creators[i].VotesReceived > b.Creators[j].VotesReceived
			}
			return strings.Compare(b.Creators[i].Wallet, b.Creators[j].Wallet) < 0
		})
	}

	byVoter := make(map[string]*VoterShare)
	for _, v := range ledger.Votes {
		if !v.SamuAmount.IsPositive() {
			continue
		}
		s, ok := byVoter[v.VoterWallet]
		if !ok {
			s = &VoterShare{Wallet: v.VoterWallet, SamuSpent: decimal.Zero}
			byVoter[v.VoterWallet] = s
		}
		s.SamuSpent = s.SamuSpent.Add(v.SamuAmount)
		s.VoteCount++
		b.TotalSamuSpent = b.TotalSamuSpent.Add(v.SamuAmount)
	}

	if b.TotalSamuSpent.IsPositive() {
		for _, s := range byVoter {
			s.Percent = s.SamuSpent.Mul(hundred).Div(b.TotalSamuSpent).InexactFloat64()
			b.Voters = append(b.Voters, *s)
		}
		sort.Slice(b.Voters, func(i, j int) bool {
			if c := b.Voters[i].SamuSpent.Cmp(b.Voters[j].SamuSpent); c != 0 {
				return c > 0
			}
			return strings.Compare(b.Voters[i].Wallet, b.Voters[j].Wallet) < 0
		})
	}

	return b
}

// Allocation is one wallet's absolute share of a pool.
type Allocation struct {
	Wallet  string
	Percent float64
	Amount  decimal.Decimal
}

// CreatorAllocations splits pool across creators by votes received, rounded
// to places. The allocations always add up to pool exactly.
func (b Breakdown) CreatorAllocations(pool decimal.Decimal, places int32) []Allocation {
	weights := make([]weight, 0, len(b.Creators))
	for _, c := range b.Creators {
		weights = append(weights, weight{wallet: c.Wallet, percent: c.Percent, value: decimal.NewFromInt(c.VotesReceived)})
	}
	return allocate(pool, weights, decimal.NewFromInt(b.TotalVotes), places)
}

// VoterAllocations splits pool across voters by token spent, rounded to places.
func (b Breakdown) VoterAllocations(pool decimal.Decimal, places int32) []Allocation {
	weights := make([]weight, 0, len(b.Voters))
	for _, v := range b.Voters {
		weights = append(weights, weight{wallet: v.Wallet, percent: v.Percent, value: v.SamuSpent})
	}
	return allocate(pool, weights, b.TotalSamuSpent, places)
}

// WalletShare is one wallet's standing in both pools. Combined is a display
// figure only.
type WalletShare struct {
	Wallet         string
	CreatorPercent float64
	VoterPercent   float64
}

func (b Breakdown) ShareOf(wallet string) WalletShare {
	ws := WalletShare{Wallet: wallet}
	for _, c := range b.Creators {
		if c.Wallet == wallet {
			ws.CreatorPercent = c.Percent
			break
		}
	}
	for _, v := range b.Voters {
		if v.Wallet == wallet {
			ws.VoterPercent = v.Percent
			break
		}
	}
	return ws
}

// CombinedPercentOfSale is the wallet's share of a whole sale across both pools.
func (ws WalletShare) CombinedPercentOfSale(r ShareRatios) float64 {
	return r.Creator.InexactFloat64()*ws.CreatorPercent + r.Voter.InexactFloat64()*ws.VoterPercent
}

type weight struct {
	wallet  string
	percent float64
	value   decimal.Decimal
}

// allocate floors every share to places and hands the leftover minor units
// to the largest remainders, ties broken by wallet.
func allocate(pool decimal.Decimal, weights []weight, total decimal.Decimal, places int32) []Allocation {
	out := make([]Allocation, len(weights))
	if len(weights) == 0 || !total.IsPositive() {
		return out
	}

	type rem struct {
		idx int
		r   decimal.Decimal
	}
	rems := make([]rem, len(weights))
	assigned := decimal.Zero
	for i, w := range weights {
		exact := pool.Mul(w.value).Div(total)
		floored := exact.RoundFloor(places)
		out[i] = Allocation{Wallet: w.wallet, Percent: w.percent, Amount: floored}
		rems[i] = rem{idx: i, r: exact.Sub(floored)}
		assigned = assigned.Add(floored)
	}

	unit := decimal.New(1, -places)
	leftover := pool.RoundFloor(places).Sub(assigned)
	sort.SliceStable(rems, func(i, j int) bool {
		if c := rems[i].r.Cmp(rems[j].r); c != 0 {
			return c > 0
		}
		return weights[rems[i].idx].wallet < weights[rems[j].idx].wallet
	})
	for k := 0; leftover.IsPositive() && len(rems) > 0; k = (k + 1) % len(rems) {
		idx := rems[k].idx
		out[idx].Amount = out[idx].Amount.Add(unit)
		leftover = leftover.Sub(unit)
	}
	return out
}
