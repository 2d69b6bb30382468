package parser

import "strings"

// detailWindow сколько чанков после заголовка просматривается при проверке на деталь
const (
	detailWindow    = 5
	detailTextLimit = 3
)

// Entry сырой блок карты: заголовок с идентификатором, строки описания и изображение
type Entry struct {
	CardID   string
	Header   string
	Lines    []string
	ImageURL string
}

// Extract выделяет из чанков детальные блоки карт.
// Упоминания в сводных таблицах пропускаются, для каждого идентификатора
// берётся первое детальное вхождение.
func Extract(chunks []Chunk) []Entry {
	var entries []Entry
	seen := make(map[string]bool)

	i := 0
	for i < len(chunks) {
		c := chunks[i]
		if !c.IsText() {
			i++
			continue
		}

		cardID := FindCardID(c.Value)
		if cardID == "" || seen[cardID] || !isDetail(chunks, i) {
			i++
			continue
		}
		seen[cardID] = true

		entry, next := harvest(chunks, i, cardID)
		entries = append(entries, entry)
		i = next
	}

	return entries
}

// isDetail отличает детальный блок от строки сводной таблицы:
// тип карты в заголовке или в ближайших строках до следующего идентификатора.
func isDetail(chunks []Chunk, idx int) bool {
	if HasCardType(chunks[idx].Value) {
		return true
	}

	end := idx + 1 + detailWindow
	if end > len(chunks) {
		end = len(chunks)
	}

	checked := 0
	for j := idx + 1; j < end; j++ {
		c := chunks[j]
		if !c.IsText() {
			continue
		}
		if cardIDRe.MatchString(c.Value) {
			return false
		}
		if HasCardType(c.Value) {
			return true
		}
		checked++
		if checked >= detailTextLimit {
			break
		}
	}
	return false
}

// harvest собирает строки и первое изображение до следующего идентификатора
// (или пустой строки перед идентификатором). Возвращает индекс остановки.
func harvest(chunks []Chunk, idx int, cardID string) (Entry, int) {
	entry := Entry{CardID: cardID, Header: chunks[idx].Value}

	j := idx + 1
	for j < len(chunks) {
		c := chunks[j]
		if c.Kind == ImageChunk {
			if entry.ImageURL == "" {
				entry.ImageURL = c.Value
			}
			j++
			continue
		}

		text := strings.TrimSpace(c.Value)
		if cardIDRe.MatchString(text) {
			break
		}
		if text == "" {
			if j+1 < len(chunks) && chunks[j+1].IsText() && cardIDRe.MatchString(chunks[j+1].Value) {
				break
			}
			j++
			continue
		}

		entry.Lines = append(entry.Lines, text)
		j++
	}

	return entry, j
}
