package pokedex

import (
	"fmt"
	"strings"
)

// Language identifies one of the supported card display languages and how
// it maps onto PokeAPI's localized name entries.
type Language struct {
	Code     string   // CLI code: en, zh-tw, ja
	APICode  string   // primary PokeAPI names[] language code
	AltCodes []string // alternate API codes accepted as a match
}

var (
	English            = Language{Code: "en", APICode: "en"}
	TraditionalChinese = Language{Code: "zh-tw", APICode: "zh-Hant"}
	Japanese           = Language{Code: "ja", APICode: "ja-Hrkt", AltCodes: []string{"ja"}}
)

// Languages lists the supported card languages in canonical order.
var Languages = []Language{English, TraditionalChinese, Japanese}

// Matches reports whether a PokeAPI language code belongs to this language.
func (l Language) Matches(apiCode string) bool {
	if apiCode == l.APICode {
		return true
	}
	for _, alt := range l.AltCodes {
		if apiCode == alt {
			return true
		}
	}
	return false
}

// ParseLanguage resolves a CLI language code.
func ParseLanguage(code string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en", "english":
		return English, nil
	case "zh-tw", "zh-hant", "zht":
		return TraditionalChinese, nil
	case "ja", "jp", "japanese":
		return Japanese, nil
	}
	return Language{}, fmt.Errorf("unsupported language %q (supported: en, zh-tw, ja)", code)
}

// ParseLanguages resolves an ordered list of language codes, dropping
// duplicates while preserving first-seen order. At least one language is
// required; the order is the stacking order on the card.
func ParseLanguages(codes []string) ([]Language, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("at least one language is required")
	}
	langs := make([]Language, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		lang, err := ParseLanguage(code)
		if err != nil {
			return nil, err
		}
		if seen[lang.Code] {
			continue
		}
		seen[lang.Code] = true
		langs = append(langs, lang)
	}
	return langs, nil
}
