package distribution

import (
	"github.com/jichangyoon/samu-rewards/rewards"
	"github.com/jichangyoon/samu-rewards/storage"
)

// Allocations is the per-wallet payout plan of one recorded distribution.
type Allocations struct {
	Distribution *storage.Distribution
	Creators     []rewards.Allocation
	Voters       []rewards.Allocation
}

// Allocate applies the contest breakdown to the creator and voter pools of d.
// A pool with nobody to pay yields an empty list; its amount stays unassigned.
func (r *Recorder) Allocate(d *storage.Distribution, b rewards.Breakdown) Allocations {
	return Allocations{
		Distribution: d,
		Creators:     b.CreatorAllocations(d.CreatorAmount, r.cfg.CurrencyDecimals),
		Voters:       b.VoterAllocations(d.VoterPoolAmount, r.cfg.CurrencyDecimals),
	}
}
