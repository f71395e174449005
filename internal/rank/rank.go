// Package rank scores job openings against a scoring formula and orders them
// by score. Everything here is a pure function of its arguments: no I/O, no
// shared state, safe for concurrent use.
package rank

import (
	"sort"

	"github.com/danbim/application-tracker/internal/domain"
)

// RankedJobOpening pairs a job with its score under one formula.
type RankedJobOpening struct {
	Job   domain.JobOpening `json:"job"`
	Score int               `json:"score"`
}

// ComputeScore sums rating*weight over every rated criterion, then adds the
// formula's wow boost once if the job is flagged wow. Unrated criteria and
// criteria missing from the formula contribute nothing.
func ComputeScore(job domain.JobOpening, formula domain.ScoringFormula) int {
	score := 0
	for _, ci := range domain.Criteria() {
		r := ci.Field(&job.Ratings)
		if !r.Valid {
			continue
		}
		score += r.Int * formula.Weights.For(ci.Criterion)
	}
	if job.Wow {
		score += formula.Weights.WowBoost()
	}
	return score
}

// RankJobOpenings scores every job and returns them highest score first.
// Jobs with equal scores keep their input order. The input slice is not
// modified.
func RankJobOpenings(jobs []domain.JobOpening, formula domain.ScoringFormula) []RankedJobOpening {
	out := make([]RankedJobOpening, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, RankedJobOpening{Job: j, Score: ComputeScore(j, formula)})
	}
	sort.SliceStable(out, func(i, k int) bool {
		return out[i].Score > out[k].Score
	})
	return out
}

// Unscored pairs every job with score 0, in input order. Used when no
// formula exists yet.
func Unscored(jobs []domain.JobOpening) []RankedJobOpening {
	out := make([]RankedJobOpening, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, RankedJobOpening{Job: j})
	}
	return out
}

// SortByDateAdded reorders ranked jobs newest first, in place. Jobs added at
// the same instant keep their score order.
func SortByDateAdded(ranked []RankedJobOpening) {
	sort.SliceStable(ranked, func(i, k int) bool {
		return ranked[i].Job.DateAdded.After(ranked[k].Job.DateAdded)
	})
}
