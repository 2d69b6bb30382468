package parser

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	rarityScanLimit = 2000
	setNameLines    = 10
)

var (
	rarityCountRe = regexp.MustCompile(`([\p{L}\p{N}_]+)\s+(\d+)種`)
	katakanaRe    = regexp.MustCompile(`[\x{30A0}-\x{30FF}]{3,}`)
)

// rarityDistribution счётчики вида "UR 5種" в начале текста поста
func rarityDistribution(text string) map[string]int {
	dist := make(map[string]int)

	head := text
	if runes := []rune(text); len(runes) > rarityScanLimit {
		head = string(runes[:rarityScanLimit])
	}

	for _, m := range rarityCountRe.FindAllStringSubmatch(head, -1) {
		count, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		dist[m[1]] = count
	}
	return dist
}

// setNameJP первая из первых строк поста, похожая на японское название набора
func setNameJP(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > setNameLines {
		lines = lines[:setNameLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if katakanaRe.MatchString(line) && !strings.Contains(line, "RD/") {
			return line
		}
	}
	return ""
}
