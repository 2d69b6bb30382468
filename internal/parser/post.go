package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rd-card-scraper/internal/cards"
	"rd-card-scraper/internal/normalize"
	"rd-card-scraper/internal/scraper"
)

const unknownSetID = "UNKNOWN"

// Parser собирает CardSetRecord из HTML поста
type Parser struct {
	scraper    *scraper.Scraper
	dateParser *scraper.DateParser
	imageHost  string
}

func NewParser(s *scraper.Scraper, imageHost string) *Parser {
	return &Parser{
		scraper:    s,
		dateParser: scraper.NewDateParser(),
		imageHost:  imageHost,
	}
}

// ParsePost разбирает HTML поста. Пост без тела или без карт даёт nil без ошибки.
func (p *Parser) ParsePost(html, postURL string) (*cards.CardSetRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return p.ParseDocument(doc, postURL), nil
}

// ParseDocument то же для уже разобранного документа
func (p *Parser) ParseDocument(doc *goquery.Document, postURL string) *cards.CardSetRecord {
	body := p.scraper.PostBody(doc)
	if body.Length() == 0 {
		return nil
	}

	entries := Extract(Flatten(body, p.imageHost))
	if len(entries) == 0 {
		return nil
	}

	records := make([]*cards.CardRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, buildCard(e))
	}

	setID := unknownSetID
	if m := setIDRe.FindStringSubmatch(records[0].CardID); m != nil {
		setID = m[1]
	}

	bodyText := body.Text()
	title := p.scraper.PostTitle(doc)

	set := &cards.CardSetRecord{
		SetID:              setID,
		SetNameJP:          setNameJP(bodyText),
		SetNameZH:          title,
		ProductType:        cards.ProductType(setID),
		PostURL:            postURL,
		TotalCards:         len(records),
		RarityDistribution: rarityDistribution(bodyText),
		Cards:              records,
	}
	if date, ok := p.dateParser.FindReleaseDate(bodyText); ok {
		set.ReleaseDate = cards.StringPtr(date)
	}
	return set
}

func buildCard(e Entry) *cards.CardRecord {
	h := parseHeader(e.Header, e.CardID)
	card := &cards.CardRecord{
		CardID:   e.CardID,
		Rarity:   h.Rarity,
		NameJP:   h.NameJP,
		IsLegend: h.IsLegend,
	}

	// Строка характеристик ищется в строках блока, затем в самом заголовке.
	// Хвост строки после характеристик идёт в текст карты, только если
	// начинается с метки секции.
	var st *stats
	var rest []string
	for i, line := range e.Lines {
		if s, ok := parseStats(line); ok {
			st = s
			rest = append(statsRemainder(line[s.End:]), e.Lines[i+1:]...)
			break
		}
	}
	if st == nil {
		if s, ok := parseStats(e.Header); ok {
			st = s
			rest = append(statsRemainder(e.Header[s.End:]), e.Lines...)
		}
	}

	if st != nil {
		card.NameZH = st.NameZH
		card.CardType = st.CardType
		card.Level = st.Level
		card.Attribute = optional(st.Attribute)
		card.MonsterType = optional(st.Race)
		card.ATK = optional(st.ATK)
		card.Defense = optional(st.DEF)
	} else {
		card.NameZH = h.AltName
	}

	sec := assignSections(rest)
	card.SummonCondition = joined(sec.Summon)
	card.Condition = joined(sec.Condition)
	card.Effect = joined(sec.Effect)
	card.ContinuousEffect = joined(sec.Continuous)

	if e.ImageURL != "" {
		card.ImageURL = cards.StringPtr(normalize.ImageURL(e.ImageURL))
	}
	return card
}

// statsRemainder хвост строки характеристик: нераспознанные поля отбрасываются
func statsRemainder(tail string) []string {
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return nil
	}
	if _, _, ok := labelAt(tail, 0); !ok {
		return nil
	}
	return []string{tail}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
