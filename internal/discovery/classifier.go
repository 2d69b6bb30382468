package discovery

import (
	"regexp"
	"strings"
)

// Verdict результат классификации поста
type Verdict int

const (
	Inconclusive Verdict = iota
	Accept
	Reject
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	default:
		return "inconclusive"
	}
}

// cardListTag тег постов со списками карт
const cardListTag = "卡表資料"

var (
	excludeKeywords = []string{"禁限卡表", "Meta", "meta", "Combo", "combo", "基礎介紹", "卡圖故事"}

	seriesKeywords = []string{
		"Rush Duel", "rush duel", "RD/", "超速決鬥", "ラッシュデュエル",
		"RDGRD", "rdgrd", "Revolution Booster",
	}

	urlMarkers = []string{"rush-duel", "rdgrd", "revolution-booster"}

	urlExcludes = []*regexp.Regexp{
		regexp.MustCompile(`/rush-duel-202\d{2,}`),
		regexp.MustCompile(`/rush-duel-duel`),
		regexp.MustCompile(`meta-\d`),
		regexp.MustCompile(`combo`),
		regexp.MustCompile(`jump-festa.*pr`),
	}
)

// ClassifyTitle классифицирует пост по заголовку.
// Слова-исключения побеждают всегда; тег списка карт без слова серии означает отказ.
func ClassifyTitle(title string) Verdict {
	if containsAny(title, excludeKeywords) {
		return Reject
	}
	if strings.Contains(title, cardListTag) {
		if containsAny(title, seriesKeywords) {
			return Accept
		}
		return Reject
	}
	return Inconclusive
}

// IsURLCandidate URL похож на пост серии и не попадает под исключения
func IsURLCandidate(postURL string) bool {
	lower := strings.ToLower(postURL)
	if !containsAny(lower, urlMarkers) {
		return false
	}
	for _, re := range urlExcludes {
		if re.MatchString(lower) {
			return false
		}
	}
	return true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
