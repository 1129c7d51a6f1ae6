// Package resolve expands user selections into concrete entity ID lists.
// It performs no network or disk access.
package resolve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/printdex/printdex/internal/pokedex"
)

// ErrInvalidSelection marks selection input the resolver rejects. Callers
// surface the wrapped detail verbatim; nothing here is retryable.
var ErrInvalidSelection = errors.New("invalid selection")

// MaxBatch caps how many entities one ID expression may expand to.
const MaxBatch = 50

// Selection expands a comma-separated ID expression into a deduplicated
// list preserving first-seen order. Terms are single IDs ("25") or
// inclusive ascending ranges ("133-136").
func Selection(expr string) ([]int, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidSelection)
	}

	var ids []int
	seen := make(map[int]bool)
	for _, term := range strings.Split(trimmed, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			return nil, fmt.Errorf("%w: empty term in %q", ErrInvalidSelection, expr)
		}
		first, last, err := parseTerm(term)
		if err != nil {
			return nil, err
		}
		for id := first; id <= last; id++ {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if len(ids) > MaxBatch {
		return nil, fmt.Errorf("%w: %d entities selected, maximum is %d", ErrInvalidSelection, len(ids), MaxBatch)
	}
	return ids, nil
}

// Generations expands generation numbers into their full ID ranges,
// deduplicated, preserving first-seen order of the generations given.
func Generations(gens []int) ([]int, error) {
	if len(gens) == 0 {
		return nil, fmt.Errorf("%w: no generations given", ErrInvalidSelection)
	}

	var ids []int
	seen := make(map[int]bool)
	for _, gen := range gens {
		r, err := pokedex.GenerationRange(gen)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
		}
		for _, id := range r.IDs() {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func parseTerm(term string) (int, int, error) {
	if first, last, isRange := strings.Cut(term, "-"); isRange {
		lo, err := parseID(first)
		if err != nil {
			return 0, 0, err
		}
		hi, err := parseID(last)
		if err != nil {
			return 0, 0, err
		}
		if hi < lo {
			return 0, 0, fmt.Errorf("%w: descending range %q", ErrInvalidSelection, term)
		}
		return lo, hi, nil
	}

	id, err := parseID(term)
	if err != nil {
		return 0, 0, err
	}
	return id, id, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidSelection, s)
	}
	if !pokedex.ValidID(id) {
		return 0, fmt.Errorf("%w: id %d out of range 1-%d", ErrInvalidSelection, id, pokedex.MaxID)
	}
	return id, nil
}
