package rank

import (
	"errors"
	"strings"

	"github.com/danbim/application-tracker/internal/domain"
)

var ErrUnknownFormula = errors.New("unknown formula")

// PickFormula chooses the formula to rank with from fs (ordered by name).
// An explicit ref, matched by ID then by name, must exist. Without one the
// default ref is tried, then the first formula. ok is false when fs is empty.
func PickFormula(fs []domain.ScoringFormula, ref, def string) (f domain.ScoringFormula, ok bool, err error) {
	if ref = strings.TrimSpace(ref); ref != "" {
		if f, ok := matchFormula(fs, ref); ok {
			return f, true, nil
		}
		return domain.ScoringFormula{}, false, ErrUnknownFormula
	}
	if def = strings.TrimSpace(def); def != "" {
		if f, ok := matchFormula(fs, def); ok {
			return f, true, nil
		}
	}
	if len(fs) == 0 {
		return domain.ScoringFormula{}, false, nil
	}
	return fs[0], true, nil
}

func matchFormula(fs []domain.ScoringFormula, key string) (domain.ScoringFormula, bool) {
	for _, f := range fs {
		if f.ID == key {
			return f, true
		}
	}
	for _, f := range fs {
		if f.Name == key {
			return f, true
		}
	}
	return domain.ScoringFormula{}, false
}
