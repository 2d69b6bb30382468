package parser

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// stats строка характеристик:
// (中文名) 類型 [等級] [屬性] [種族] [攻/守]
type stats struct {
	NameZH    string
	CardType  string
	Level     *int
	Attribute string
	Race      string
	ATK       string
	DEF       string
	// End байтовое смещение конца распознанной части строки
	End int
}

// parseStats ищет в строке первую позицию, где скобки с именем сразу
// продолжаются типом карты, и разбирает необязательные поля за ним.
func parseStats(line string) (*stats, bool) {
	for i, r := range line {
		if r != '(' && r != '（' {
			continue
		}
		open := i + utf8.RuneLen(r)

		closeRel := strings.IndexAny(line[open:], ")）")
		if closeRel <= 0 {
			continue
		}
		closeIdx := open + closeRel
		_, closeSize := utf8.DecodeRuneInString(line[closeIdx:])

		pos := skipSpaces(line, closeIdx+closeSize)
		cardType := cardTypePrefix(line[pos:])
		if cardType == "" {
			continue
		}

		st := &stats{
			NameZH:   strings.TrimSpace(line[open:closeIdx]),
			CardType: cardType,
		}
		st.End = st.parseFields(line, pos+len(cardType))
		return st, true
	}
	return nil, false
}

// parseFields поля идут в фиксированном порядке, каждое отделено пробелом и
// может отсутствовать. Поле, занявшее только часть токена, завершает разбор;
// число перед "/" не уровень, чтобы "2600/2200" ушло в атаку/защиту.
func (st *stats) parseFields(line string, pos int) int {
	// Уровень
	if p, ok := afterSpace(line, pos); ok {
		if n := prefixLen(line[p:], unicode.IsDigit); n > 0 && !separatorAt(line, p+n) {
			if level, err := strconv.Atoi(width.Narrow.String(line[p : p+n])); err == nil {
				st.Level = &level
			}
			pos = p + n
		}
	}

	// Атрибут
	if p, ok := afterSpace(line, pos); ok {
		if r, size := utf8.DecodeRuneInString(line[p:]); size > 0 && isAttribute(string(r)) {
			st.Attribute = string(r)
			pos = p + size
		}
	}

	// Раса: непробельная последовательность, заканчивающаяся на 族
	if p, ok := afterSpace(line, pos); ok {
		token := line[p : p+prefixLen(line[p:], func(r rune) bool { return !unicode.IsSpace(r) })]
		if idx := strings.LastIndex(token, "族"); idx > 0 {
			st.Race = token[:idx+len("族")]
			pos = p + idx + len("族")
		}
	}

	// Атака/защита
	if p, ok := afterSpace(line, pos); ok {
		if atk, n := statValue(line[p:]); n > 0 && separatorAt(line, p+n) {
			_, sepSize := utf8.DecodeRuneInString(line[p+n:])
			if def, m := statValue(line[p+n+sepSize:]); m > 0 {
				st.ATK = atk
				st.DEF = def
				pos = p + n + sepSize + m
			}
		}
	}

	return pos
}

// separatorAt разделитель атаки и защиты: "/" или "／"
func separatorAt(line string, pos int) bool {
	if pos >= len(line) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line[pos:])
	return r == '/' || r == '／'
}

// statValue число или "?" в начале строки
func statValue(s string) (string, int) {
	if n := prefixLen(s, unicode.IsDigit); n > 0 {
		return width.Narrow.String(s[:n]), n
	}
	if strings.HasPrefix(s, "?") {
		return "?", 1
	}
	return "", 0
}

// afterSpace позиция после одного или более пробелов
func afterSpace(line string, pos int) (int, bool) {
	p := skipSpaces(line, pos)
	return p, p > pos && p < len(line)
}

func skipSpaces(line string, pos int) int {
	return pos + prefixLen(line[pos:], unicode.IsSpace)
}

func prefixLen(s string, pred func(rune) bool) int {
	for i, r := range s {
		if !pred(r) {
			return i
		}
	}
	return len(s)
}
