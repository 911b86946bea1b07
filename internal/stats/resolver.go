package stats

import (
	"cmp"
	"slices"

	"github.com/desertthunder/repertoire/internal/models"
)

// Latest reduces evaluations to the current evaluation of every key in a single pass.
//
// The evaluation with the greatest EvaluatedAt wins. Equal EvaluatedAt values fall back to the later
// CreatedAt, and when both timestamps match the evaluation seen first is kept.
func Latest(evaluations []*models.Evaluation) map[models.Key]*models.Evaluation {
	latest := make(map[models.Key]*models.Evaluation, len(evaluations))
	for _, e := range evaluations {
		if e == nil {
			continue
		}
		key := e.Key()
		if current, ok := latest[key]; !ok || newer(e, current) {
			latest[key] = e
		}
	}
	return latest
}

// Current resolves evaluations like [Latest] and returns the result newest first.
func Current(evaluations []*models.Evaluation) []*models.Evaluation {
	latest := Latest(evaluations)
	current := make([]*models.Evaluation, 0, len(latest))
	for _, e := range latest {
		current = append(current, e)
	}
	slices.SortFunc(current, byRecency)
	return current
}

// newer reports whether a should replace b as the current evaluation of their key.
func newer(a, b *models.Evaluation) bool {
	if !a.EvaluatedAt().Equal(b.EvaluatedAt()) {
		return a.EvaluatedAt().After(b.EvaluatedAt())
	}
	return a.CreatedAt().After(b.CreatedAt())
}

// byRecency orders newest first. IDs break exact ties so map-derived slices sort deterministically.
func byRecency(a, b *models.Evaluation) int {
	if c := b.EvaluatedAt().Compare(a.EvaluatedAt()); c != 0 {
		return c
	}
	if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID(), b.ID())
}
