// Package tier maps total scores to service tiers and recommended base rates.
package tier

import (
	"fmt"
	"math"
)

// Canonical tier names, in ascending order.
const (
	Developing = "Developing"
	SemiPro    = "Semi Pro"
	Pro        = "Pro"
	Elite      = "Elite"
)

// Tier is one reliability class with its score interval and base-rate band.
// Intervals are inclusive on both ends.
type Tier struct {
	Name     string
	MinScore int
	MaxScore int
	MinRate  int
	MaxRate  int
}

// Option applies a configuration option to the Table.
type Option func(*Table)

// WithTiers replaces the default tier definitions. The slice must be ordered
// ascending by score; New validates it.
func WithTiers(tiers []Tier) Option {
	return func(t *Table) {
		if len(tiers) > 0 {
			t.tiers = append([]Tier(nil), tiers...)
		}
	}
}

// Table is an immutable ordered set of tier definitions.
type Table struct {
	tiers []Tier
}

// DefaultTiers returns the production tier definitions.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: Developing, MinScore: 0, MaxScore: 59, MinRate: 150, MaxRate: 350},
		{Name: SemiPro, MinScore: 60, MaxScore: 74, MinRate: 350, MaxRate: 450},
		{Name: Pro, MinScore: 75, MaxScore: 89, MinRate: 450, MaxRate: 600},
		{Name: Elite, MinScore: 90, MaxScore: 100, MinRate: 600, MaxRate: 850},
	}
}

// New builds a validated Table. Tier score intervals must partition 0-100
// contiguously and rate bands must rise with tier order.
func New(opts ...Option) (*Table, error) {
	t := &Table{tiers: DefaultTiers()}

	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) validate() error {
	if len(t.tiers) == 0 {
		return fmt.Errorf("%w: no tiers defined", ErrInvalidTable)
	}
	first := t.tiers[0]
	if first.MinScore != 0 {
		return fmt.Errorf("%w: first tier must start at 0, got %d", ErrInvalidTable, first.MinScore)
	}
	last := t.tiers[len(t.tiers)-1]
	if last.MaxScore != 100 {
		return fmt.Errorf("%w: last tier must end at 100, got %d", ErrInvalidTable, last.MaxScore)
	}
	for i, tr := range t.tiers {
		if tr.Name == "" {
			return fmt.Errorf("%w: tier %d has no name", ErrInvalidTable, i)
		}
		if tr.MinScore > tr.MaxScore {
			return fmt.Errorf("%w: tier %q has inverted score range", ErrInvalidTable, tr.Name)
		}
		if tr.MinRate > tr.MaxRate {
			return fmt.Errorf("%w: tier %q has inverted rate band", ErrInvalidTable, tr.Name)
		}
		if i == 0 {
			continue
		}
		prev := t.tiers[i-1]
		if tr.MinScore != prev.MaxScore+1 {
			return fmt.Errorf("%w: gap or overlap between %q and %q", ErrInvalidTable, prev.Name, tr.Name)
		}
		if tr.MinRate < prev.MinRate || tr.MaxRate < prev.MaxRate {
			return fmt.Errorf("%w: rate band for %q falls below %q", ErrInvalidTable, tr.Name, prev.Name)
		}
	}
	return nil
}

// Tiers returns a copy of the tier definitions in ascending order.
func (t *Table) Tiers() []Tier {
	return append([]Tier(nil), t.tiers...)
}

// Classify returns the tier containing score.
func (t *Table) Classify(score int) (Tier, error) {
	for _, tr := range t.tiers {
		if score >= tr.MinScore && score <= tr.MaxScore {
			return tr, nil
		}
	}
	return Tier{}, fmt.Errorf("%w: score %d", ErrScoreOutOfRange, score)
}

// RecommendedRate interpolates a base rate from the score's position within
// its tier's score span. At the tier minimum the rate is exactly MinRate.
func (t *Table) RecommendedRate(score int) (int, error) {
	tr, err := t.Classify(score)
	if err != nil {
		return 0, err
	}
	span := tr.MaxScore - tr.MinScore
	if span == 0 {
		return tr.MinRate, nil
	}
	frac := float64(score-tr.MinScore) / float64(span)
	rate := float64(tr.MinRate) + float64(tr.MaxRate-tr.MinRate)*frac
	return int(math.Round(rate)), nil
}

// Rank returns the ordinal position of a tier name, or -1 when unknown.
// Higher rank means a better tier.
func (t *Table) Rank(name string) int {
	for i, tr := range t.tiers {
		if tr.Name == name {
			return i
		}
	}
	return -1
}
