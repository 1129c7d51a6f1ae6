package pokedex

import (
	"fmt"
	"strings"
)

// ArtStyle selects which artwork variant a card uses.
type ArtStyle string

const (
	StyleOfficial ArtStyle = "official"
	StyleShiny    ArtStyle = "shiny"
	StyleHome     ArtStyle = "home"
)

// Styles lists the supported artwork styles.
var Styles = []ArtStyle{StyleOfficial, StyleShiny, StyleHome}

// ParseStyle resolves a CLI art style name. An empty string means the
// default official artwork.
func ParseStyle(s string) (ArtStyle, error) {
	switch ArtStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", StyleOfficial:
		return StyleOfficial, nil
	case StyleShiny:
		return StyleShiny, nil
	case StyleHome:
		return StyleHome, nil
	}
	return "", fmt.Errorf("unknown art style %q (supported: official, shiny, home)", s)
}
