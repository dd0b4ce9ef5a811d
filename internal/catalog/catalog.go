package catalog

import "math/rand"

// TarotCard 描述静态牌库中的一张牌。
// 核心流程只把整张牌透传给文案生成，不解析其中字段。
type TarotCard struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Meaning  string   `json:"meaning"`
	ImageURL string   `json:"image_url"`
}

// CardCount 为转盘牌位数量，与静态牌库长度保持一致。
const CardCount = 12

// Deck 为内置的韦特塔罗牌库（公共领域图源）。
var Deck = []TarotCard{
	{
		ID:       "c0",
		Name:     "愚人 (The Fool)",
		Keywords: []string{"新的开始", "天真", "自发性"},
		Meaning:  "向未知迈出信念的一跃，保持纯真与开放。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/9/90/RWS_Tarot_00_Fool.jpg",
	},
	{
		ID:       "c1",
		Name:     "魔术师 (The Magician)",
		Keywords: []string{"显化", "力量", "行动"},
		Meaning:  "你拥有实现目标所需的一切资源与天赋。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/d/de/RWS_Tarot_01_Magician.jpg",
	},
	{
		ID:       "c2",
		Name:     "女祭司 (The High Priestess)",
		Keywords: []string{"直觉", "神秘", "潜意识"},
		Meaning:  "向内探索，倾听你内在最深处的声音。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/8/88/RWS_Tarot_02_High_Priestess.jpg",
	},
	{
		ID:       "c3",
		Name:     "皇后 (The Empress)",
		Keywords: []string{"富足", "滋养", "自然"},
		Meaning:  "创造力正在流淌，拥抱生活中的美与丰盛。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/d/d2/RWS_Tarot_03_Empress.jpg",
	},
	{
		ID:       "c4",
		Name:     "皇帝 (The Emperor)",
		Keywords: []string{"权威", "结构", "稳固"},
		Meaning:  "建立秩序与规则，为你的生活带来结构。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/c/c3/RWS_Tarot_04_Emperor.jpg",
	},
	{
		ID:       "c5",
		Name:     "教皇 (The Hierophant)",
		Keywords: []string{"传统", "信仰", "学习"},
		Meaning:  "寻求智慧的指引，尊重传统或精神教导。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/8/8d/RWS_Tarot_05_Hierophant.jpg",
	},
	{
		ID:       "c9",
		Name:     "隐士 (The Hermit)",
		Keywords: []string{"内省", "独处", "指引"},
		Meaning:  "暂时撤退，在孤独中寻找内心的光。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/4/4d/RWS_Tarot_09_Hermit.jpg",
	},
	{
		ID:       "c17",
		Name:     "星星 (The Star)",
		Keywords: []string{"希望", "灵感", "宁静"},
		Meaning:  "在黑暗之后，希望之光重新闪耀。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/d/db/RWS_Tarot_17_Star.jpg",
	},
	{
		ID:       "c18",
		Name:     "月亮 (The Moon)",
		Keywords: []string{"幻觉", "潜意识", "不安"},
		Meaning:  "在迷雾中前行，直面内心的恐惧与直觉。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/7/7f/RWS_Tarot_18_Moon.jpg",
	},
	{
		ID:       "c19",
		Name:     "太阳 (The Sun)",
		Keywords: []string{"快乐", "成功", "活力"},
		Meaning:  "纯粹的喜悦与清晰，一切都在阳光下显现。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/1/17/RWS_Tarot_19_Sun.jpg",
	},
	{
		ID:       "c20",
		Name:     "审判 (Judgement)",
		Keywords: []string{"觉醒", "重生", "召唤"},
		Meaning:  "响应内心的召唤，通过反思获得新生。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/d/dd/RWS_Tarot_20_Judgement.jpg",
	},
	{
		ID:       "c21",
		Name:     "世界 (The World)",
		Keywords: []string{"完成", "整合", "圆满"},
		Meaning:  "一个周期的结束，享受圆满与成就。",
		ImageURL: "https://upload.wikimedia.org/wikipedia/commons/f/ff/RWS_Tarot_21_World.jpg",
	},
}

// FindCard 根据 ID 查找卡牌，未命中时回退到第一张，保证展示层总有内容。
func FindCard(id string) TarotCard {
	for _, card := range Deck {
		if card.ID == id {
			return card
		}
	}
	return Deck[0]
}

// RandomCard 从牌库中随机抽取一张。
// 注意：转盘上被点选的牌位只是视觉占位，真正的抽牌结果在此独立随机产生。
func RandomCard(rng *rand.Rand) TarotCard {
	return Deck[rng.Intn(len(Deck))]
}

// SeedSuggestionPool 为内置的「明日能量小目标」候选池。
var SeedSuggestionPool = []string{
	"抬头数出3朵形状不同的云",
	"盯着夕阳消失的方向站3分钟",
	"闭眼分辨周围5种不同的声音",
	"感受第一口咖啡在舌尖的苦涩",
	"深呼吸闻闻雨后泥土的气息",
	"抚摸一片绿叶感受它的脉络",
	"洗澡时专注感受水流的温度",
	"提前一站下车步行回家",
	"去从未走过的小巷转转",
	"放下手机在长椅坐5分钟",
	"模仿猫咪做一个彻底的拉伸",
	"整理书桌上最乱的一个角落",
	"手写下今天让你微笑的瞬间",
	"关机30分钟享受绝对安静",
	"对为你服务的人说声谢谢",
	"给远方的朋友发一张风景照",
	"在睡前对自己说声辛苦了",
	"慢下来认真咀嚼每一口食物",
	"拍一张今天路边盛开的花",
	"盯着烛火或窗外光影发会儿呆",
}

// SampleSeedSuggestions 从候选池中随机取 n 条互不重复的建议。
func SampleSeedSuggestions(rng *rand.Rand, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(SeedSuggestionPool) {
		n = len(SeedSuggestionPool)
	}

	picked := rng.Perm(len(SeedSuggestionPool))[:n]
	suggestions := make([]string, 0, n)
	for _, idx := range picked {
		suggestions = append(suggestions, SeedSuggestionPool[idx])
	}
	return suggestions
}
