package arbitrage

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/arbstream/internal/models"
)

// DefaultMaxAdjustRounds bounds the post-rounding correction passes
const DefaultMaxAdjustRounds = 10

var opportunityNamespace = uuid.MustParse("6f1c8a52-3d0e-4b8e-9a57-2f4d1c0b7e91")

// Allocator turns candidates into whole-unit stake plans
type Allocator struct {
	BankrollCeiling float64
	MaxAdjustRounds int
}

// NewAllocator creates an allocator. A ceiling of zero disables the cap.
func NewAllocator(bankrollCeiling float64, maxAdjustRounds int) *Allocator {
	if maxAdjustRounds <= 0 {
		maxAdjustRounds = DefaultMaxAdjustRounds
	}
	return &Allocator{BankrollCeiling: bankrollCeiling, MaxAdjustRounds: maxAdjustRounds}
}

// Allocate assigns whole-unit stakes to the candidate's legs so that every
// leg's payout covers the total investment, and returns the finished
// opportunity. It returns ErrStakeRounding when no such plan keeps a
// strictly positive guaranteed profit.
func (a *Allocator) Allocate(c models.Candidate, bankroll float64) (*models.Opportunity, error) {
	if bankroll <= 0 {
		return nil, ErrInvalidBankroll
	}
	if len(c.Legs) < 2 {
		return nil, fmt.Errorf("%w: need at least two legs", ErrNotArbitrage)
	}

	odds := make([]decimal.Decimal, len(c.Legs))
	index := decimal.Zero
	for i, leg := range c.Legs {
		if leg.Odds <= 1 {
			return nil, fmt.Errorf("leg %s: %w", leg.Market, models.ErrInvalidOdds)
		}
		odds[i] = decimal.NewFromFloat(leg.Odds)
		index = index.Add(decimal.NewFromInt(1).Div(odds[i]))
	}
	if index.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, ErrNotArbitrage
	}

	budget := decimal.NewFromFloat(bankroll)
	ceiling := decimal.NewFromFloat(a.BankrollCeiling)
	capped := a.BankrollCeiling > 0
	if capped && budget.GreaterThan(ceiling) {
		budget = ceiling
	}

	stakes, err := a.plan(odds, index, budget)
	if err != nil {
		return nil, err
	}
	if total := sum(stakes); capped && total.GreaterThan(ceiling) {
		// scale down proportionally and try once more
		budget = budget.Mul(ceiling).Div(total)
		if stakes, err = a.plan(odds, index, budget); err != nil {
			return nil, err
		}
		if sum(stakes).GreaterThan(ceiling) {
			return nil, fmt.Errorf("%w: total exceeds bankroll ceiling", ErrStakeRounding)
		}
	}

	total := sum(stakes)
	minPayout := stakes[0].Mul(odds[0])
	for i := 1; i < len(stakes); i++ {
		if p := stakes[i].Mul(odds[i]); p.LessThan(minPayout) {
			minPayout = p
		}
	}
	profit := minPayout.Sub(total)
	if !profit.IsPositive() {
		return nil, ErrStakeRounding
	}

	legs := make([]models.Leg, len(c.Legs))
	for i, leg := range c.Legs {
		leg.Stake = stakes[i].IntPart()
		legs[i] = leg
	}

	return &models.Opportunity{
		ID:               OpportunityID(c),
		EventID:          c.EventID,
		EventName:        c.EventName,
		MarketType:       c.MarketType,
		Legs:             legs,
		ArbitrageIndex:   c.ArbitrageIndex,
		Margin:           c.Margin,
		GuaranteedProfit: profit.InexactFloat64(),
		TotalInvestment:  total.InexactFloat64(),
		ROI:              profit.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64(),
		DetectedAt:       c.DetectedAt,
	}, nil
}

// plan rounds the equal-payout stakes to whole units, hands out any whole
// units lost to rounding by largest remainder, then raises failing legs
// until every payout covers the total or the round limit is hit.
func (a *Allocator) plan(odds []decimal.Decimal, index, budget decimal.Decimal) ([]decimal.Decimal, error) {
	n := len(odds)
	raw := make([]decimal.Decimal, n)
	stakes := make([]decimal.Decimal, n)
	for i, o := range odds {
		raw[i] = budget.Div(o.Mul(index))
		stakes[i] = raw[i].Round(0)
	}

	if leftover := budget.Floor().Sub(sum(stakes)).IntPart(); leftover > 0 {
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(x, y int) bool {
			rx := raw[order[x]].Sub(raw[order[x]].Floor())
			ry := raw[order[y]].Sub(raw[order[y]].Floor())
			return rx.GreaterThan(ry)
		})
		for k := int64(0); k < leftover; k++ {
			i := order[int(k)%n]
			stakes[i] = stakes[i].Add(decimal.NewFromInt(1))
		}
	}

	one := decimal.NewFromInt(1)
	for round := 0; ; round++ {
		total := sum(stakes)
		failing := false
		for i := range stakes {
			payout := stakes[i].Mul(odds[i])
			if payout.GreaterThanOrEqual(total) {
				continue
			}
			failing = true
			// smallest k with (stake+k)*odds >= total+k
			k := total.Sub(payout).Div(odds[i].Sub(one)).Ceil()
			if k.LessThan(one) {
				k = one
			}
			stakes[i] = stakes[i].Add(k)
		}
		if !failing {
			return stakes, nil
		}
		if round+1 >= a.MaxAdjustRounds {
			return nil, fmt.Errorf("%w: no stable plan after %d adjustment rounds", ErrStakeRounding, a.MaxAdjustRounds)
		}
	}
}

// PayoutCheck summarises the spread of payouts across legs
type PayoutCheck struct {
	Min      float64
	Max      float64
	Spread   float64
	Balanced bool // payouts agree within one currency unit
}

// VerifyPayout reports how evenly a stake plan pays out across its legs
func VerifyPayout(legs []models.Leg) PayoutCheck {
	if len(legs) == 0 {
		return PayoutCheck{}
	}
	lo := decimal.NewFromInt(legs[0].Stake).Mul(decimal.NewFromFloat(legs[0].Odds))
	hi := lo
	for _, leg := range legs[1:] {
		p := decimal.NewFromInt(leg.Stake).Mul(decimal.NewFromFloat(leg.Odds))
		lo = decimal.Min(lo, p)
		hi = decimal.Max(hi, p)
	}
	spread := hi.Sub(lo)
	return PayoutCheck{
		Min:      lo.InexactFloat64(),
		Max:      hi.InexactFloat64(),
		Spread:   spread.InexactFloat64(),
		Balanced: spread.LessThanOrEqual(decimal.NewFromInt(1)),
	}
}

// OpportunityID derives a stable identifier from the event, market and legs,
// so the same opportunity keeps its ID across scans.
func OpportunityID(c models.Candidate) uuid.UUID {
	var b strings.Builder
	b.WriteString(c.EventID)
	b.WriteByte('|')
	b.WriteString(c.MarketType)
	for _, leg := range c.Legs {
		b.WriteByte('|')
		b.WriteString(leg.Bookmaker)
		b.WriteByte('@')
		b.WriteString(strconv.FormatFloat(leg.Odds, 'f', -1, 64))
	}
	return uuid.NewSHA1(opportunityNamespace, []byte(b.String()))
}

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
