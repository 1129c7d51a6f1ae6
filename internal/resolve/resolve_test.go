package resolve

import (
	"errors"
	"testing"

	"github.com/printdex/printdex/internal/pokedex"
)

func TestSelection(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []int
	}{
		{name: "single id", expr: "25", want: []int{25}},
		{name: "comma list", expr: "1,4,7", want: []int{1, 4, 7}},
		{name: "range", expr: "133-136", want: []int{133, 134, 135, 136}},
		{name: "mixed list and range", expr: "1,4,7,133-135", want: []int{1, 4, 7, 133, 134, 135}},
		{name: "whitespace tolerated", expr: " 1 , 4 , 7 ", want: []int{1, 4, 7}},
		{name: "duplicates collapse first seen", expr: "7,1,7,4,1", want: []int{7, 1, 4}},
		{name: "overlapping ranges", expr: "3-5,4-6", want: []int{3, 4, 5, 6}},
		{name: "single element range", expr: "9-9", want: []int{9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Selection(tt.expr)
			if err != nil {
				t.Fatalf("Selection(%q) failed: %v", tt.expr, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Selection(%q) = %v, want %v", tt.expr, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Selection(%q)[%d] = %d, want %d", tt.expr, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSelectionInvalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "letters", expr: "abc"},
		{name: "descending range", expr: "5-2"},
		{name: "zero", expr: "0"},
		{name: "negative", expr: "-3"},
		{name: "empty", expr: ""},
		{name: "blank", expr: "   "},
		{name: "trailing comma", expr: "1,4,"},
		{name: "open range", expr: "1-"},
		{name: "id above max", expr: "1026"},
		{name: "range above max", expr: "1020-1030"},
		{name: "batch too large", expr: "1-51"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Selection(tt.expr)
			if err == nil {
				t.Fatalf("Selection(%q) expected error, got nil", tt.expr)
			}
			if !errors.Is(err, ErrInvalidSelection) {
				t.Errorf("Selection(%q) error = %v, want ErrInvalidSelection", tt.expr, err)
			}
		})
	}
}

func TestSelectionMaxBatchBoundary(t *testing.T) {
	ids, err := Selection("1-50")
	if err != nil {
		t.Fatalf("Selection(1-50) failed: %v", err)
	}
	if len(ids) != MaxBatch {
		t.Errorf("Expected %d ids, got %d", MaxBatch, len(ids))
	}
}

func TestGenerations(t *testing.T) {
	for gen := 1; gen <= pokedex.MaxGeneration; gen++ {
		ids, err := Generations([]int{gen})
		if err != nil {
			t.Fatalf("Generations(%d) failed: %v", gen, err)
		}
		r, err := pokedex.GenerationRange(gen)
		if err != nil {
			t.Fatalf("GenerationRange(%d) failed: %v", gen, err)
		}
		if len(ids) != r.Len() {
			t.Fatalf("Generations(%d) returned %d ids, want %d", gen, len(ids), r.Len())
		}
		for i, id := range ids {
			if id != r.First+i {
				t.Fatalf("Generations(%d)[%d] = %d, want %d", gen, i, id, r.First+i)
			}
		}
	}
}

func TestGenerationsDedupAndOrder(t *testing.T) {
	ids, err := Generations([]int{2, 1, 2})
	if err != nil {
		t.Fatalf("Generations failed: %v", err)
	}
	if len(ids) != 251 {
		t.Fatalf("Expected 251 ids, got %d", len(ids))
	}
	// Generation 2 was requested first, so its IDs lead.
	if ids[0] != 152 {
		t.Errorf("ids[0] = %d, want 152", ids[0])
	}
	if ids[100] != 1 {
		t.Errorf("ids[100] = %d, want 1", ids[100])
	}
}

func TestGenerationsInvalid(t *testing.T) {
	for _, gens := range [][]int{nil, {}, {0}, {10}, {1, 99}} {
		_, err := Generations(gens)
		if err == nil {
			t.Errorf("Generations(%v) expected error, got nil", gens)
			continue
		}
		if !errors.Is(err, ErrInvalidSelection) {
			t.Errorf("Generations(%v) error = %v, want ErrInvalidSelection", gens, err)
		}
	}
}
