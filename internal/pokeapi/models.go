package pokeapi

import (
	"sort"
	"strings"

	"github.com/printdex/printdex/internal/pokedex"
)

// NamedResource is PokeAPI's ubiquitous {name, url} pair.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TypeSlot is one typed slot on a pokemon.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// Pokemon is the subset of /pokemon/{id} the card pipeline needs.
type Pokemon struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Types []TypeSlot `json:"types"`
}

// TypeNames returns the type names in slot order.
func (p *Pokemon) TypeNames() []string {
	slots := append([]TypeSlot(nil), p.Types...)
	sort.Slice(slots, func(i, j int) bool { return slots[i].Slot < slots[j].Slot })
	names := make([]string, 0, len(slots))
	for _, s := range slots {
		names = append(names, s.Type.Name)
	}
	return names
}

// LocalName is one localized species name entry.
type LocalName struct {
	Name     string        `json:"name"`
	Language NamedResource `json:"language"`
}

// Species is the subset of /pokemon-species/{id} the card pipeline needs.
type Species struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Names []LocalName `json:"names"`
}

// LocalizedName returns the species name for lang, falling back to the
// English entry and finally to the capitalized API name.
func (s *Species) LocalizedName(lang pokedex.Language) string {
	for _, n := range s.Names {
		if lang.Matches(n.Language.Name) && n.Name != "" {
			return n.Name
		}
	}
	if lang.Code != pokedex.English.Code {
		for _, n := range s.Names {
			if pokedex.English.Matches(n.Language.Name) && n.Name != "" {
				return n.Name
			}
		}
	}
	return Capitalize(s.Name)
}

// Capitalize upper-cases the first letter of an API slug name.
func Capitalize(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
