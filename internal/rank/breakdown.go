package rank

import "github.com/danbim/application-tracker/internal/domain"

// Contribution is one term of a score.
type Contribution struct {
	Key    string `json:"key"` // criterion name or domain.WowBoostKey
	Label  string `json:"label"`
	Rating *int   `json:"rating,omitempty"`
	Weight int    `json:"weight"`
	Points int    `json:"points"`
}

// Breakdown lists the terms ComputeScore adds up, in canonical criterion
// order with the wow term last. The Points always sum to ComputeScore.
func Breakdown(job domain.JobOpening, formula domain.ScoringFormula) []Contribution {
	var out []Contribution
	for _, ci := range domain.Criteria() {
		r := ci.Field(&job.Ratings)
		if !r.Valid {
			continue
		}
		v := r.Int
		w := formula.Weights.For(ci.Criterion)
		out = append(out, Contribution{
			Key:    string(ci.Criterion),
			Label:  ci.Label,
			Rating: &v,
			Weight: w,
			Points: v * w,
		})
	}
	if job.Wow {
		w := formula.Weights.WowBoost()
		out = append(out, Contribution{
			Key:    domain.WowBoostKey,
			Label:  "Wow",
			Weight: w,
			Points: w,
		})
	}
	return out
}

// Total sums the points of cs.
func Total(cs []Contribution) int {
	n := 0
	for _, c := range cs {
		n += c.Points
	}
	return n
}
