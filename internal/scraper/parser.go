package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Курсор пагинации Blogger: updated-max=2021-03-05T10:00:00+08:00
	cursorYearRe = regexp.MustCompile(`updated-max=(\d{4})-`)

	// Дата выхода в тексте поста: 2020/4/4
	releaseDateRe = regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`)
)

// CursorYear извлекает год из курсора updated-max ссылки пагинации
func CursorYear(link string) (int, bool) {
	decoded := link
	if unescaped, err := url.QueryUnescape(link); err == nil {
		decoded = unescaped
	}

	matches := cursorYearRe.FindStringSubmatch(decoded)
	if len(matches) < 2 {
		return 0, false
	}
	year, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

type DateParser struct{}

func NewDateParser() *DateParser {
	return &DateParser{}
}

// Parse парсит дату вида YYYY/M/D и возвращает time.Time (UTC, 00:00:00)
func (dp *DateParser) Parse(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	matches := releaseDateRe.FindStringSubmatch(dateStr)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
	}
	return dp.fromParts(matches[1], matches[2], matches[3])
}

// FindReleaseDate возвращает первую корректную дату YYYY/M/D в тексте в исходном виде
func (dp *DateParser) FindReleaseDate(text string) (string, bool) {
	for _, m := range releaseDateRe.FindAllStringSubmatch(text, -1) {
		if _, err := dp.Parse(m[0]); err == nil {
			return m[0], true
		}
	}
	return "", false
}

func (dp *DateParser) fromParts(yearStr, monthStr, dayStr string) (time.Time, error) {
	year, err := parseIntSafe(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year: %q: %w", yearStr, err)
	}
	month, err := parseIntSafe(monthStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month: %q: %w", monthStr, err)
	}
	day, err := parseIntSafe(dayStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %q: %w", dayStr, err)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month: %d", month)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date нормализует 2020/2/31 в март, такие даты отбрасываем
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid day: %d", day)
	}
	return t, nil
}

func parseIntSafe(s string) (int, error) {
	var result int
	_, err := fmt.Sscanf(s, "%d", &result)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q as int: %w", s, err)
	}
	return result, nil
}
