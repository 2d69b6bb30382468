package parser

import (
	"regexp"
	"strings"
)

var (
	// RD/KP01-JP000, RD/SD01-JPS01
	cardIDRe = regexp.MustCompile(`RD/\w+-JPS?\d{2,3}`)
	setIDRe  = regexp.MustCompile(`RD/(\w+)-JP`)
)

// cardTypes словарь типов карт; составные типы идут первыми
var cardTypes = []string{
	"儀式/效果怪獸",
	"融合/效果怪獸",
	"巨極/效果怪獸",
	"通常怪獸",
	"效果怪獸",
	"融合怪獸",
	"儀式怪獸",
	"儀式魔法",
	"通常魔法",
	"速攻魔法",
	"永續魔法",
	"裝備魔法",
	"場地魔法",
	"通常陷阱",
	"永續陷阱",
	"反擊陷阱",
}

var attributes = []string{"光", "暗", "炎", "水", "風", "地"}

// FindCardID первый идентификатор карты в тексте
func FindCardID(text string) string {
	return cardIDRe.FindString(text)
}

// HasCardType содержит ли текст ключевое слово типа карты
func HasCardType(text string) bool {
	for _, ct := range cardTypes {
		if strings.Contains(text, ct) {
			return true
		}
	}
	return false
}

// LooksLikeCardList признак поста со списком карт: есть идентификатор и тип карты
func LooksLikeCardList(text string) bool {
	return cardIDRe.MatchString(text) && HasCardType(text)
}

// cardTypePrefix тип карты, с которого начинается s
func cardTypePrefix(s string) string {
	for _, ct := range cardTypes {
		if strings.HasPrefix(s, ct) {
			return ct
		}
	}
	return ""
}

func isAttribute(r string) bool {
	for _, a := range attributes {
		if a == r {
			return true
		}
	}
	return false
}
