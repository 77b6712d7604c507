package tokenize

// ignored words appear at every level and are not counted as vocabulary.
var ignored = setOf(
	// particles
	"は", "が", "を", "に", "で", "と", "も", "の", "へ", "から", "まで", "より",
	"や", "か", "ね", "よ", "な", "わ", "さ", "ぞ", "ぜ", "こそ", "だけ", "しか", "ばかり",
	// numbers
	"一", "二", "三", "四", "五", "六", "七", "八", "九", "十", "百", "千", "万",
	// basic verbs and demonstratives
	"する", "いる", "ある", "なる", "できる", "くる", "来る", "いく", "行く", "みる", "くれる", "もらう",
	"この", "その", "あの", "どの", "これ", "それ", "あれ", "どれ",
	"ここ", "そこ", "あそこ", "どこ", "こう", "そう", "ああ", "どう",
	// auxiliaries and endings
	"です", "ます", "た", "て", "ない", "ば", "う", "よう", "だ", "れる", "られる",
	"せる", "させる", "たい", "ぬ", "ん", "しまう", "ながら", "たり",
	// basic adverbs and conjunctions
	"とても", "もう", "まだ", "もっと", "ちょっと", "すぐ", "ずっと", "たくさん", "少し",
	"そして", "でも", "しかし", "だから", "けれど", "けど",
	// time and counters
	"時", "日", "年", "月", "週", "分", "秒", "回", "度", "番", "目", "時間",
	"今日", "明日", "昨日", "毎日",
	// generic nouns
	"人", "物", "事", "こと", "もの", "所", "方", "前", "後", "中", "上", "下", "外", "内",
	"ぐらい", "くらい", "ころ", "頃", "ため", "まま", "ほう",
)

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Ignored reports whether word is too common to count as vocabulary.
func Ignored(word string) bool {
	return ignored[word]
}
