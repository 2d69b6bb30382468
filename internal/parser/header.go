package parser

import (
	"regexp"
	"strings"
)

const defaultRarity = "N"

var (
	legendRe = regexp.MustCompile(`(?i)\(legend\)`)
	rarityRe = regexp.MustCompile(`\(([A-Z/]+)\)`)
)

type header struct {
	Rarity   string
	NameJP   string
	AltName  string
	IsLegend bool
}

// parseHeader разбирает строку заголовка: "RD/KP01-JP000 (UR) 連撃竜ドラギアス(連擊龍)"
func parseHeader(text, cardID string) header {
	h := header{Rarity: defaultRarity}

	if legendRe.MatchString(text) {
		h.IsLegend = true
		text = legendRe.ReplaceAllString(text, "")
	}

	// Редкость сохраняется как есть, включая составные "UR/SER"
	if m := rarityRe.FindStringSubmatch(text); m != nil {
		h.Rarity = m[1]
	}

	name := strings.ReplaceAll(text, cardID, "")
	name = rarityRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if idx := strings.IndexAny(name, "(（"); idx > 0 {
		rest := name[idx:]
		_, size := firstRune(rest)
		if r, _ := firstRune(rest[size:]); isCJK(r) {
			h.AltName = enclosed(rest[size:])
			name = strings.TrimSpace(name[:idx])
		}
	}

	h.NameJP = name
	return h
}

// enclosed текст до закрывающей скобки
func enclosed(s string) string {
	if idx := strings.IndexAny(s, ")）"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func isCJK(r rune) bool {
	return r >= '一' && r <= '鿿'
}

func firstRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 0
}
