package domain

import "time"

// Weights maps a criterion name (or WowBoostKey) to an integer weight.
// Missing keys weigh 0. Negative weights are allowed and invert a rating.
type Weights map[string]int

// For returns the weight of criterion c.
func (w Weights) For(c Criterion) int {
	return w[string(c)]
}

// WowBoost returns the flat bonus applied to wow jobs.
func (w Weights) WowBoost() int {
	return w[WowBoostKey]
}

type ScoringFormula struct {
	ID        string    `json:"id" yaml:"id,omitempty"`
	Name      string    `json:"name" yaml:"name"`
	Weights   Weights   `json:"weights" yaml:"weights"`
	CreatedAt time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"-"`
}
