// Package pokedex holds the static catalog data the card pipeline draws
// from: generation ID ranges, supported display languages, artwork styles,
// and the franchise type palette.
package pokedex

import "fmt"

// MaxGeneration is the newest generation with a known ID range.
const MaxGeneration = 9

// MaxID is the highest national dex number across all generations.
const MaxID = 1025

// IDRange is an inclusive span of national dex numbers.
type IDRange struct {
	First int
	Last  int
}

var generationRanges = map[int]IDRange{
	1: {1, 151},
	2: {152, 251},
	3: {252, 386},
	4: {387, 493},
	5: {494, 649},
	6: {650, 721},
	7: {722, 809},
	8: {810, 905},
	9: {906, 1025},
}

// GenerationRange returns the ID span for a generation number.
func GenerationRange(gen int) (IDRange, error) {
	r, ok := generationRanges[gen]
	if !ok {
		return IDRange{}, fmt.Errorf("unknown generation %d (supported: 1-%d)", gen, MaxGeneration)
	}
	return r, nil
}

// IDs expands the range into ascending order.
func (r IDRange) IDs() []int {
	ids := make([]int, 0, r.Last-r.First+1)
	for id := r.First; id <= r.Last; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Len is the number of IDs in the range.
func (r IDRange) Len() int {
	return r.Last - r.First + 1
}

// ValidID reports whether id is a known national dex number.
func ValidID(id int) bool {
	return id >= 1 && id <= MaxID
}
