package cards

import "strings"

// CardRecord одна карта из поста-списка.
// Необязательные поля хранятся указателями: отсутствие значения не равно пустой строке.
type CardRecord struct {
	CardID           string  `json:"card_id"`
	Rarity           string  `json:"rarity"`
	NameJP           string  `json:"name_jp"`
	NameZH           string  `json:"name_zh"`
	CardType         string  `json:"card_type"`
	Attribute        *string `json:"attribute,omitempty"`
	MonsterType      *string `json:"monster_type,omitempty"`
	Level            *int    `json:"level,omitempty"`
	ATK              *string `json:"atk,omitempty"`
	Defense          *string `json:"defense,omitempty"`
	SummonCondition  *string `json:"summon_condition,omitempty"`
	Condition        *string `json:"condition,omitempty"`
	Effect           *string `json:"effect,omitempty"`
	ContinuousEffect *string `json:"continuous_effect,omitempty"`
	ImageURL         *string `json:"image_url,omitempty"`
	ImageFile        *string `json:"image_file,omitempty"`
	IsLegend         bool    `json:"is_legend"`
}

// CardSetRecord набор карт, извлечённый из одного поста.
// TotalCards информативен, авторитетна длина Cards.
type CardSetRecord struct {
	SetID              string         `json:"set_id"`
	SetNameJP          string         `json:"set_name_jp"`
	SetNameZH          string         `json:"set_name_zh"`
	ProductType        string         `json:"product_type"`
	ReleaseDate        *string        `json:"release_date"`
	PostURL            string         `json:"post_url"`
	TotalCards         int            `json:"total_cards"`
	RarityDistribution map[string]int `json:"rarity_distribution"`
	Cards              []*CardRecord  `json:"cards"`
}

const ProductUnknown = "unknown"

// productPrefixes порядок важен: первый совпавший префикс выигрывает
var productPrefixes = []struct {
	prefix  string
	product string
}{
	{"KP", "booster"},
	{"ST", "starter"},
	{"CP", "character_pack"},
	{"GRC", "go_rush_character"},
	{"GRD", "go_rush_deck"},
	{"B0", "battle_pack"},
	{"B2", "battle_pack"},
	{"MAX", "maximum_pack"},
	{"EXT", "extra_pack"},
	{"LGP", "legend_pack"},
	{"SD", "structure_deck"},
	{"VSP", "vs_pack"},
	{"TB", "tournament_pack"},
	{"AP", "advanced_pack"},
	{"ORP", "over_rush_pack"},
}

// ProductType определяет тип продукта по префиксу set_id
func ProductType(setID string) string {
	for _, p := range productPrefixes {
		if strings.HasPrefix(setID, p.prefix) {
			return p.product
		}
	}
	return ProductUnknown
}

// ImageFileName имя файла изображения для карты: "RD/KP01-JP000" → "RD_KP01-JP000.jpg"
func ImageFileName(cardID string) string {
	return strings.ReplaceAll(cardID, "/", "_") + ".jpg"
}

// StringPtr вспомогательная функция для необязательных полей
func StringPtr(s string) *string {
	return &s
}

func IntPtr(v int) *int {
	return &v
}
