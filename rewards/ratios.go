package rewards

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidRatios = errors.New("share ratios must each be in [0,1] and sum to 1")

var ratioTolerance = decimal.New(1, -9)

// ShareRatios is the platform-wide split of sale proceeds per role.
type ShareRatios struct {
	Creator  decimal.Decimal
	Voter    decimal.Decimal
	Platform decimal.Decimal
}

func DefaultRatios() ShareRatios {
	return ShareRatios{
		Creator:  decimal.RequireFromString("0.45"),
		Voter:    decimal.RequireFromString("0.40"),
		Platform: decimal.RequireFromString("0.15"),
	}
}

func NewShareRatios(creator, voter, platform float64) (ShareRatios, error) {
	r := ShareRatios{
		Creator:  decimal.NewFromFloat(creator),
		Voter:    decimal.NewFromFloat(voter),
		Platform: decimal.NewFromFloat(platform),
	}
	return r, r.Validate()
}

func (r ShareRatios) Validate() error {
	one := decimal.NewFromInt(1)
	for _, v := range []decimal.Decimal{r.Creator, r.Voter, r.Platform} {
		if v.IsNegative() || v.GreaterThan(one) {
			return fmt.Errorf("%w: %s out of range", ErrInvalidRatios, v)
		}
	}
	sum := r.Creator.Add(r.Voter).Add(r.Platform)
	if sum.Sub(one).Abs().GreaterThan(ratioTolerance) {
		return fmt.Errorf("%w: sum is %s", ErrInvalidRatios, sum)
	}
	return nil
}
