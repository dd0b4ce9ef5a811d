package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/moontide/internal/db"
)

// emotivePattern 为双语情绪词表，用于估计对话的情绪密度。
// 词表是启发式的，不做分词，直接在拼接文本上做子串匹配。
var emotivePattern = regexp.MustCompile(
	`(?i)(feel|happy|sad|anxious|calm|love|hate|hope|lost|pain|grateful|` +
		`感觉|觉得|开心|难过|焦虑|平静|爱|恨|怕|希望|温柔|痛苦|迷茫|感恩|治愈|释放|沉重)`,
)

// CalculateComplexity 把对话记录映射为 0-100 的觉察复杂度分数。
// 轮次与情绪词密度加权（0.4/0.6）后放大 8 倍取整；空对话恒为 0。
func CalculateComplexity(messages []db.Message) int {
	if len(messages) == 0 {
		return 0
	}

	turns := len(messages)

	texts := make([]string, 0, len(messages))
	for _, m := range messages {
		texts = append(texts, m.Text)
	}
	combined := strings.Join(texts, " ")

	totalLength := utf8.RuneCountInString(combined)
	if totalLength == 0 {
		totalLength = 1
	}

	emotionalCount := len(emotivePattern.FindAllStringIndex(combined, -1))
	density := float64(emotionalCount) / float64(totalLength) * 100

	rawScore := float64(turns)*0.4 + density*0.6

	score := int(rawScore * 8)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
