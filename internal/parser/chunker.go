package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type ChunkKind int

const (
	TextChunk ChunkKind = iota
	ImageChunk
)

// Chunk строка текста или ссылка на изображение в порядке документа.
// Для ImageChunk поле Value содержит URL.
type Chunk struct {
	Kind  ChunkKind
	Value string
}

func (c Chunk) IsText() bool {
	return c.Kind == TextChunk
}

var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
}

// Flatten разворачивает тело поста в плоскую последовательность чанков.
// Элемент без дочерних тегов (кроме br) даёт один чанк со склеенным текстом,
// иначе обход спускается к детям.
func Flatten(root *goquery.Selection, imageHost string) []Chunk {
	var chunks []Chunk
	for _, n := range root.Nodes {
		chunks = walk(n, imageHost, chunks)
	}
	return chunks
}

func walk(n *html.Node, imageHost string, chunks []Chunk) []Chunk {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			chunks = append(chunks, Chunk{Kind: TextChunk, Value: text})
		}
		return chunks
	case html.ElementNode:
	case html.DocumentNode:
		return walkChildren(n, imageHost, chunks)
	default:
		return chunks
	}

	tag := strings.ToLower(n.Data)
	if skippedTags[tag] {
		return chunks
	}

	switch tag {
	case "img":
		if src := imageSource(n); src != "" && strings.Contains(src, imageHost) {
			chunks = append(chunks, Chunk{Kind: ImageChunk, Value: src})
		}
		return chunks
	case "br":
		return chunks
	}

	if !hasChildTags(n) {
		if text := strippedText(n); text != "" {
			return append(chunks, Chunk{Kind: TextChunk, Value: text})
		}
	}

	return walkChildren(n, imageHost, chunks)
}

func walkChildren(n *html.Node, imageHost string, chunks []Chunk) []Chunk {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		chunks = walk(c, imageHost, chunks)
	}
	return chunks
}

func imageSource(n *html.Node) string {
	var src, dataSrc string
	for _, a := range n.Attr {
		switch a.Key {
		case "src":
			src = a.Val
		case "data-src":
			dataSrc = a.Val
		}
	}
	if src != "" {
		return src
	}
	return dataSrc
}

// hasChildTags есть ли у элемента дочерние теги, кроме br
func hasChildTags(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !strings.EqualFold(c.Data, "br") {
			return true
		}
	}
	return false
}

// strippedText склеивает обрезанные текстовые узлы без разделителя
func strippedText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(c.Data))
		}
	}
	return sb.String()
}
