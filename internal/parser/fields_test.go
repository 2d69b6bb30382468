package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		cardID   string
		expected header
	}{
		{
			name:     "plain rarity",
			text:     "RD/KP01-JP000 (UR) 連撃竜ドラギアス",
			cardID:   "RD/KP01-JP000",
			expected: header{Rarity: "UR", NameJP: "連撃竜ドラギアス"},
		},
		{
			name:     "compound rarity kept raw",
			text:     "RD/KP09-JP000 (UR/SER) ロイヤルデモンズ・ヘヴィメタル",
			cardID:   "RD/KP09-JP000",
			expected: header{Rarity: "UR/SER", NameJP: "ロイヤルデモンズ・ヘヴィメタル"},
		},
		{
			name:     "default rarity",
			text:     "RD/KP01-JP030 ハーピィ・レディ",
			cardID:   "RD/KP01-JP030",
			expected: header{Rarity: "N", NameJP: "ハーピィ・レディ"},
		},
		{
			name:     "legend marker",
			text:     "RD/KP01-JP000 (SR) 青眼の白龍 (Legend)",
			cardID:   "RD/KP01-JP000",
			expected: header{Rarity: "SR", NameJP: "青眼の白龍", IsLegend: true},
		},
		{
			name:     "secondary name split",
			text:     "RD/KP01-JP001 (N) ハーピィ・レディ（鷹身女郎）",
			cardID:   "RD/KP01-JP001",
			expected: header{Rarity: "N", NameJP: "ハーピィ・レディ", AltName: "鷹身女郎"},
		},
		{
			name:     "non han parenthesis kept",
			text:     "RD/KP01-JP002 (N) セブンス(Ver.2)",
			cardID:   "RD/KP01-JP002",
			expected: header{Rarity: "N", NameJP: "セブンス(Ver.2)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseHeader(tt.text, tt.cardID))
		})
	}
}

func TestParseStatsMonster(t *testing.T) {
	st, ok := parseStats("(連擊龍 德拉吉亞斯) 效果怪獸 7 暗 龍族 2500/1500")
	require.True(t, ok)

	assert.Equal(t, "連擊龍 德拉吉亞斯", st.NameZH)
	assert.Equal(t, "效果怪獸", st.CardType)
	require.NotNil(t, st.Level)
	assert.Equal(t, 7, *st.Level)
	assert.Equal(t, "暗", st.Attribute)
	assert.Equal(t, "龍族", st.Race)
	assert.Equal(t, "2500", st.ATK)
	assert.Equal(t, "1500", st.DEF)
}

func TestParseStatsFullWidth(t *testing.T) {
	st, ok := parseStats("（黑魔導）通常怪獸　７　暗　魔法使族　２５００/２１００")
	require.True(t, ok)

	assert.Equal(t, "黑魔導", st.NameZH)
	assert.Equal(t, "通常怪獸", st.CardType)
	require.NotNil(t, st.Level)
	assert.Equal(t, 7, *st.Level)
	assert.Equal(t, "暗", st.Attribute)
	assert.Equal(t, "魔法使族", st.Race)
	assert.Equal(t, "2500", st.ATK)
	assert.Equal(t, "2100", st.DEF)
}

func TestParseStatsVariants(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		cardType  string
		level     int
		attribute string
		race      string
		atk, def  string
	}{
		{"compound type first", "(融合龍) 融合/效果怪獸 8 光 龍族 ?/0", "融合/效果怪獸", 8, "光", "龍族", "?", "0"},
		{"spell", "(強欲之壺) 通常魔法", "通常魔法", 0, "", "", "", ""},
		{"trap after non stats paren", "(a)(b) 反擊陷阱", "反擊陷阱", 0, "", "", "", ""},
		{"no level", "(名) 效果怪獸 2600/2200", "效果怪獸", 0, "", "", "2600", "2200"},
		{"partial attribute token stops", "(名) 效果怪獸 4 暗屬性 龍族 100/100", "效果怪獸", 4, "暗", "", "", ""},
		{"full width separator", "(天使) 效果怪獸　７　光　天使族　１５００／１０００", "效果怪獸", 7, "光", "天使族", "1500", "1000"},
		{"level glued to attribute", "(火炎兵) 效果怪獸 9炎 機械族 2500/800", "效果怪獸", 9, "", "", "", ""},
		{"maximum", "(極) 巨極/效果怪獸 10 地 岩石族 3500/0", "巨極/效果怪獸", 10, "地", "岩石族", "3500", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := parseStats(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.cardType, st.CardType)
			if tt.level == 0 {
				assert.Nil(t, st.Level)
			} else {
				require.NotNil(t, st.Level)
				assert.Equal(t, tt.level, *st.Level)
			}
			assert.Equal(t, tt.attribute, st.Attribute)
			assert.Equal(t, tt.race, st.Race)
			assert.Equal(t, tt.atk, st.ATK)
			assert.Equal(t, tt.def, st.DEF)
		})
	}
}

func TestBuildCardStatsTail(t *testing.T) {
	card := buildCard(Entry{
		CardID: "RD/KP05-JP010",
		Header: "RD/KP05-JP010 (N) 天使",
		Lines:  []string{"(天使) 效果怪獸　７　光　天使族　１５００／１０００", "條件:無", "效果:X"},
	})
	require.NotNil(t, card.ATK)
	assert.Equal(t, "1500", *card.ATK)
	require.NotNil(t, card.Defense)
	assert.Equal(t, "1000", *card.Defense)
	assert.Nil(t, card.SummonCondition)
	require.NotNil(t, card.Condition)
	assert.Equal(t, "無", *card.Condition)
	require.NotNil(t, card.Effect)
	assert.Equal(t, "X", *card.Effect)

	// нераспознанный хвост не становится условием призыва
	card = buildCard(Entry{
		CardID: "RD/KP05-JP011",
		Header: "RD/KP05-JP011 (N) 火炎兵",
		Lines:  []string{"(火炎兵) 效果怪獸 9炎 機械族 2500/800", "效果:Y"},
	})
	require.NotNil(t, card.Level)
	assert.Equal(t, 9, *card.Level)
	assert.Nil(t, card.Attribute)
	assert.Nil(t, card.ATK)
	assert.Nil(t, card.SummonCondition)
	require.NotNil(t, card.Effect)
	assert.Equal(t, "Y", *card.Effect)

	// хвост с меткой секции сохраняется
	card = buildCard(Entry{
		CardID: "RD/KP05-JP012",
		Header: "RD/KP05-JP012 (N) 壺",
		Lines:  []string{"(壺) 通常魔法 效果:抽2張。"},
	})
	assert.Equal(t, "通常魔法", card.CardType)
	require.NotNil(t, card.Effect)
	assert.Equal(t, "抽2張。", *card.Effect)
}

func TestParseStatsRejects(t *testing.T) {
	for _, line := range []string{
		"效果:對手場上1張卡破壞。",
		"(連擊龍) 這張卡",
		"() 效果怪獸",
		"RD/KP01-JP000 (UR) 連撃竜ドラギアス",
	} {
		_, ok := parseStats(line)
		assert.False(t, ok, line)
	}
}

func TestSplitLabels(t *testing.T) {
	tests := []struct {
		line     string
		expected []string
	}{
		{"條件:X可以發動效果:Y", []string{"條件:X可以發動", "效果:Y"}},
		{"條件:X永續效果:Y", []string{"條件:X", "永續效果:Y"}},
		{"永續效果:A效果：B", []string{"永續效果:A", "效果：B"}},
		{"這個效果不能無效", []string{"這個效果不能無效"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, splitLabels(tt.line), tt.line)
	}
}

func TestAssignSections(t *testing.T) {
	sec := assignSections([]string{"條件:X可以發動效果:Y"})
	assert.Equal(t, []string{"X可以發動"}, sec.Condition)
	assert.Equal(t, []string{"Y"}, sec.Effect)
	assert.Empty(t, sec.Summon)
	assert.Empty(t, sec.Continuous)

	sec = assignSections([]string{"條件:X永續效果:Y"})
	assert.Equal(t, []string{"X"}, sec.Condition)
	assert.Equal(t, []string{"Y"}, sec.Continuous)
	assert.Empty(t, sec.Effect)

	sec = assignSections([]string{
		"這張卡不能通常召喚。",
		"條件：",
		"墓地有3隻怪獸",
		"效果:抽1張。",
		"那之後丟棄1張。",
		"(別名) 效果怪獸 1 光 天使族 0/0",
	})
	assert.Equal(t, []string{"這張卡不能通常召喚。"}, sec.Summon)
	assert.Equal(t, []string{"墓地有3隻怪獸"}, sec.Condition)
	assert.Equal(t, []string{"抽1張。", "那之後丟棄1張。"}, sec.Effect)

	require.NotNil(t, joined(sec.Effect))
	assert.Equal(t, "抽1張。那之後丟棄1張。", *joined(sec.Effect))
	assert.Nil(t, joined(nil))
}

func TestRarityDistribution(t *testing.T) {
	dist := rarityDistribution("收錄 UR 4種 SR 6種\nR 10種 N 30種")
	assert.Equal(t, map[string]int{"UR": 4, "SR": 6, "R": 10, "N": 30}, dist)
	assert.Empty(t, rarityDistribution("沒有"))
}

func TestSetNameJP(t *testing.T) {
	text := "\n卡表資料\nRD/KP01 マキシマム\nデッキ改造パック 激闘のサンダーストーム!!\n"
	assert.Equal(t, "デッキ改造パック 激闘のサンダーストーム!!", setNameJP(text))
	assert.Empty(t, setNameJP("只有中文\n"))
}
