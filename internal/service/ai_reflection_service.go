package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/moontide/internal/catalog"
	"github.com/moontide/internal/db"
)

// ReflectionOracle 定义占卜流程依赖的全部文案生成能力，
// 便于在业务层注入不同实现（测试中使用桩实现）。
// 任何方法失败时由调用方降级为固定文案，不向用户暴露错误。
type ReflectionOracle interface {
	// OpeningLine 根据抽到的牌生成对话开场白。
	OpeningLine(ctx context.Context, card catalog.TarotCard) (string, error)
	// Reply 基于完整历史与用户最新输入生成回应。
	Reply(ctx context.Context, history []db.Message, userText string) (string, error)
	// Titles 基于对话历史提炼最多 3 个结语标题。
	Titles(ctx context.Context, history []db.Message) ([]string, error)
	// SeedSuggestions 针对明日牌生成 3 条能量小目标建议。
	SeedSuggestions(ctx context.Context, card catalog.TarotCard) ([]string, error)
	// ReviewFeedback 根据昨日目标与完成情况生成回应文案。
	ReviewFeedback(ctx context.Context, goal string, completed bool) (string, error)
	// MonthlyInsight 根据本月关键词生成月度寄语。
	MonthlyInsight(ctx context.Context, keywords []string) (string, error)
}

const (
	defaultOpenAIReflectionModel   = "gpt-4o-mini"
	defaultDeepSeekReflectionModel = "deepseek-chat"
	defaultReflectionMaxTokens     = 240
	defaultReflectionTemperature   = 0.7
)

// defaultReflectionSystemPrompt 为叙事疗法向导的默认系统提示词，
// 可通过系统设置中的 reflection_prompt 覆盖。
const defaultReflectionSystemPrompt = `
你不是一个只会算命的AI，你是“月相引力”App的叙事疗法向导。你的目标是通过塔罗牌帮助用户记录和反思他们的一天。

必须严格遵守以下引导阶段：
1. **阶段一（视觉引导）**：不要直接解释牌意。首先引导用户观察牌面的具体细节（颜色、人物动作、符号）。询问用户：“看着这张牌，你第一眼被画面中的哪个细节吸引了？”
2. **阶段二（情绪连接）**：当用户描述细节后，询问这个细节带给他们什么感觉（是压抑、自由、焦虑还是平静？）。
3. **阶段三（现实投射/日记记录）**：将这种感觉引向用户今天的经历。询问：“这种感觉让你想到了今天发生的什么具体的时刻或事情吗？”
4. **阶段四（共情与深化）**：倾听用户的一天，给予简短的共情，并尝试用牌面的寓意为这件事赋予一个新的视角。

语言风格：
- 温暖、深邃、像一位耐心的倾听者。
- **必须使用中文**。
- 回复保持简短（60字以内），给用户留出表达空间，不要长篇大论。
`

// AIReflectionService 基于大模型接口实现 ReflectionOracle。
type AIReflectionService struct {
	client *aiChatClient
}

// NewAIReflectionService 构造默认的 AIReflectionService。
func NewAIReflectionService(settings *SystemSettingService) *AIReflectionService {
	return &AIReflectionService{
		client: newAIChatClient(settings, defaultOpenAIReflectionModel, defaultDeepSeekReflectionModel),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *AIReflectionService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// SetOpenAIBaseURL 覆盖默认的 OpenAI API 地址。
func (s *AIReflectionService) SetOpenAIBaseURL(base string) {
	s.client.SetOpenAIBaseURL(base)
}

// SetDeepSeekBaseURL 覆盖默认的 DeepSeek API 地址。
func (s *AIReflectionService) SetDeepSeekBaseURL(base string) {
	s.client.SetDeepSeekBaseURL(base)
}

func (s *AIReflectionService) generate(ctx context.Context, kind, userPrompt string, temperature float64) (string, error) {
	logAIExchange(kind, "prompt", userPrompt)

	settings, err := s.client.settings.GetSettings()
	if err != nil {
		return "", fmt.Errorf("读取系统设置失败: %w", err)
	}

	systemPrompt := strings.TrimSpace(settings.ReflectionPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultReflectionSystemPrompt
	}

	result, err := s.client.callWithSettings(ctx, settings, aiChatRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    defaultReflectionMaxTokens,
		Temperature:  temperature,
	})
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(result.Content)
	logAIExchange(kind, "response", content)
	return content, nil
}

// OpeningLine 生成视觉引导式的对话开场白。
func (s *AIReflectionService) OpeningLine(ctx context.Context, card catalog.TarotCard) (string, error) {
	prompt := fmt.Sprintf(`用户抽到的卡牌是: %s。
任务:
1. 不要解释这张牌的意思。
2. 邀请用户观察牌面。
3. 问一个关于视觉细节的问题，引导用户开始描述画面。
例如：“在这张%s中，哪个角落或色彩最先抓住了你的目光？”`, card.Name, card.Name)

	return s.generate(ctx, "OPENING", prompt, defaultReflectionTemperature)
}

// Reply 根据对话历史与用户最新输入生成引导式回应。
func (s *AIReflectionService) Reply(ctx context.Context, history []db.Message, userText string) (string, error) {
	prompt := fmt.Sprintf(`对话历史:
%s
用户最新回复: "%s"

任务:
判断当前处于引导的哪个阶段（视觉 -> 情绪 -> 现实经历）。
如果用户还在描述画面，引导他们谈论感受。
如果用户谈论了感受，引导他们联想今天发生的具体事情（记日记）。
如果用户已经讲了今天的事，给予共情并尝试结合牌义深化。

保持简短（50字内）。`, formatHistory(history), userText)

	return s.generate(ctx, "REPLY", prompt, defaultReflectionTemperature)
}

// Titles 提炼本次对话的结语标题，最多返回 3 个。
func (s *AIReflectionService) Titles(ctx context.Context, history []db.Message) ([]string, error) {
	prompt := fmt.Sprintf(`基于这段对话历史:
%s

任务: 提取用户在对话中提到的**真实生活经历**或**具体感受**，生成3个极简的日记标题。
要求：
1. 必须与用户具体的经历相关（不要只用塔罗牌的术语）。
2. 充满诗意但具体。
3. 每个标题不超过8个字。

仅返回标题，用竖线 "|" 分隔。
示例: 错过的早班车|雨中的宁静|与自我的和解`, formatHistory(history))

	content, err := s.generate(ctx, "TITLES", prompt, defaultReflectionTemperature)
	if err != nil {
		return nil, err
	}

	titles := splitPipeList(content, 3)
	if len(titles) == 0 {
		return nil, fmt.Errorf("模型未返回有效标题")
	}
	return titles, nil
}

// SeedSuggestions 生成 3 条可在 5 分钟内完成的明日能量小目标。
func (s *AIReflectionService) SeedSuggestions(ctx context.Context, card catalog.TarotCard) ([]string, error) {
	prompt := fmt.Sprintf(`卡牌: %s。
任务: 针对这张牌的能量，给出3个非常简单、具体、5分钟内可完成的“明日能量小目标”（Energy Seed）。
要求：
1. 极简，动词开头。
2. 像一种日常的小魔法。
3. 不要超过10个字。

仅返回3个短语，用竖线 "|" 分隔。
示例：喝一杯温水|整理书桌一角|看一次日落`, card.Name)

	content, err := s.generate(ctx, "SEEDS", prompt, defaultReflectionTemperature)
	if err != nil {
		return nil, err
	}

	suggestions := splitPipeList(content, 3)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("模型未返回有效建议")
	}
	return suggestions, nil
}

// ReviewFeedback 根据昨日目标完成情况生成夸奖或安慰。
func (s *AIReflectionService) ReviewFeedback(ctx context.Context, goal string, completed bool) (string, error) {
	var prompt string
	if completed {
		prompt = fmt.Sprintf(`用户完成了昨日目标：“%s”。请生成一句简短、极具灵性与诗意的夸奖。比如“星辰为你加冕”或“能量如潮水般涌来”。限20字以内。`, goal)
	} else {
		prompt = fmt.Sprintf(`用户没能完成昨日目标：“%s”。请结合月亮的阴晴圆缺，生成一句非常温柔的安慰，告诉他们休息和停滞也是生命周期的一部分。限30字以内。`, goal)
	}

	return s.generate(ctx, "REVIEW", prompt, defaultReflectionTemperature)
}

// MonthlyInsight 结合本月关键词生成月度寄语。
func (s *AIReflectionService) MonthlyInsight(ctx context.Context, keywords []string) (string, error) {
	if len(keywords) == 0 {
		return "本月的能量在静谧中流淌，等待着觉察的光亮。", nil
	}

	prompt := fmt.Sprintf(`本月用户的核心能量关键词是: [%s]。
请结合这些关键词和月相的隐喻（如盈亏、潮汐、引力），写一段简短、唯美、具有治愈感的“月度寄语”。

格式要求：
1. 必须包含至少一个关键词。
2. 语气像一位古老的智者或宇宙的信使。
3. 50字以内。
示例风格：“本月你的能量在 #信念 中沉淀，像渐盈的弦月，正在积蓄突破的力量。”`, strings.Join(keywords, ", "))

	return s.generate(ctx, "INSIGHT", prompt, defaultReflectionTemperature)
}

// formatHistory 把结构化历史压平成 role: text 的行式上下文。
func formatHistory(history []db.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Text))
	}
	return strings.Join(lines, "\n")
}

// splitPipeList 解析竖线分隔的短语列表并截断到 limit 条。
func splitPipeList(content string, limit int) []string {
	parts := strings.Split(content, "|")
	items := make([]string, 0, limit)
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		items = append(items, trimmed)
		if len(items) == limit {
			break
		}
	}
	return items
}
