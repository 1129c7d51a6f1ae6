package pokedex

import (
	"image/color"
	"strings"
)

// typeColors is the franchise palette used for type badges.
var typeColors = map[string]color.RGBA{
	"normal":   {0xA8, 0xA8, 0x78, 0xFF},
	"fire":     {0xF0, 0x80, 0x30, 0xFF},
	"water":    {0x68, 0x90, 0xF0, 0xFF},
	"electric": {0xF8, 0xD0, 0x30, 0xFF},
	"grass":    {0x78, 0xC8, 0x50, 0xFF},
	"ice":      {0x98, 0xD8, 0xD8, 0xFF},
	"fighting": {0xC0, 0x30, 0x28, 0xFF},
	"poison":   {0xA0, 0x40, 0xA0, 0xFF},
	"ground":   {0xE0, 0xC0, 0x68, 0xFF},
	"flying":   {0xA8, 0x90, 0xF0, 0xFF},
	"psychic":  {0xF8, 0x58, 0x88, 0xFF},
	"bug":      {0xA8, 0xB8, 0x20, 0xFF},
	"rock":     {0xB8, 0xA0, 0x38, 0xFF},
	"ghost":    {0x70, 0x58, 0x98, 0xFF},
	"dragon":   {0x70, 0x38, 0xF8, 0xFF},
	"dark":     {0x70, 0x58, 0x48, 0xFF},
	"steel":    {0xB8, 0xB8, 0xD0, 0xFF},
	"fairy":    {0xEE, 0x99, 0xAC, 0xFF},
}

// defaultTypeColor covers types missing from the palette.
var defaultTypeColor = color.RGBA{0x68, 0xA0, 0x90, 0xFF}

// TypeColor returns the badge color for a type name.
func TypeColor(name string) color.RGBA {
	if c, ok := typeColors[strings.ToLower(name)]; ok {
		return c
	}
	return defaultTypeColor
}
