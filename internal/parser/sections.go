package parser

import (
	"strings"
	"unicode/utf8"
)

type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionCondition
	sectionContinuous
	sectionEffect
)

// Метки секций; 永續效果 проверяется раньше 效果
var sectionLabels = []struct {
	label string
	kind  sectionKind
}{
	{"永續效果", sectionContinuous},
	{"條件", sectionCondition},
	{"效果", sectionEffect},
}

const continuousPrefix = "永續"

type sections struct {
	Summon     []string
	Condition  []string
	Continuous []string
	Effect     []string
}

// labelAt метка секции с двоеточием в позиции pos
func labelAt(line string, pos int) (sectionKind, int, bool) {
	for _, l := range sectionLabels {
		if !strings.HasPrefix(line[pos:], l.label) {
			continue
		}
		r, size := utf8.DecodeRuneInString(line[pos+len(l.label):])
		if r != ':' && r != '：' {
			continue
		}
		// 效果 внутри 永續效果 не является отдельной меткой
		if l.kind == sectionEffect && strings.HasSuffix(line[:pos], continuousPrefix) {
			continue
		}
		return l.kind, len(l.label) + size, true
	}
	return sectionNone, 0, false
}

// splitLabels режет строку перед каждой меткой секции:
// "條件:X可以發動效果:Y" → ["條件:X可以發動", "效果:Y"]
func splitLabels(line string) []string {
	var parts []string
	start := 0
	for pos := range line {
		if pos == 0 {
			continue
		}
		if _, _, ok := labelAt(line, pos); ok {
			parts = append(parts, line[start:pos])
			start = pos
		}
	}
	return append(parts, line[start:])
}

// assignSections раскладывает строки после строки характеристик по секциям.
// Текст до первой метки: условие призыва; строки без метки дописываются
// в открытую секцию.
func assignSections(lines []string) sections {
	var sec sections
	open := sectionNone

	for _, line := range lines {
		for _, part := range splitLabels(line) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			if kind, n, ok := labelAt(part, 0); ok {
				open = kind
				part = strings.TrimSpace(part[n:])
				if part != "" {
					sec.add(open, part)
				}
				continue
			}

			if open == sectionNone {
				sec.Summon = append(sec.Summon, part)
				continue
			}
			if _, isStats := parseStats(part); isStats {
				continue
			}
			sec.add(open, part)
		}
	}
	return sec
}

func (s *sections) add(kind sectionKind, text string) {
	switch kind {
	case sectionCondition:
		s.Condition = append(s.Condition, text)
	case sectionContinuous:
		s.Continuous = append(s.Continuous, text)
	case sectionEffect:
		s.Effect = append(s.Effect, text)
	}
}

// joined склеивает части секции без разделителя; nil если секции нет
func joined(parts []string) *string {
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, "")
	return &s
}
