package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/moontide/internal/catalog"
	"github.com/moontide/internal/db"
)

// ViewMode 表示仪式流程当前所处的界面阶段。
type ViewMode string

const (
	ViewHub         ViewMode = "hub"
	ViewEnergyInput ViewMode = "energy_input"
	ViewCarousel    ViewMode = "carousel"
	ViewChat        ViewMode = "chat"
	ViewSeedInput   ViewMode = "seed_input"
)

// 文案生成失败时使用的固定降级文案。
const (
	fallbackOpeningLine      = "闭上眼睛。提到这张牌，你脑海中浮现了什么画面？"
	fallbackReply            = "我在倾听..."
	fallbackReviewDone       = "做得好，能量在流动。"
	fallbackReviewMissed     = "没关系，这只是一个逗号。"
	fallbackMonthlyInsight   = "潮汐起伏，皆是生命的韵律。"
	maxTitleSuggestionsCount = 3
)

var fallbackTitles = []string{"静谧反思", "今日智慧", "月之低语"}

// 建议条数与文案生成保持一致，降级时从内置候选池抽取。
const seedSuggestionCount = 3

// SessionSnapshot 是仪式状态的只读快照，供接口层序列化返回。
type SessionSnapshot struct {
	Date            string              `json:"date"`
	View            ViewMode            `json:"view"`
	Loading         bool                `json:"loading"`
	PickingTomorrow bool                `json:"pickingTomorrow"`
	ShowCompletion  bool                `json:"showCompletion"`
	EnergyLevel     int                 `json:"energyLevel"`
	Card            *catalog.TarotCard  `json:"card,omitempty"`
	Messages        []db.Message        `json:"messages"`
	Titles          []string            `json:"titles,omitempty"`
	SelectedTitle   string              `json:"selectedTitle,omitempty"`
	TomorrowCard    *catalog.TarotCard  `json:"tomorrowCard,omitempty"`
	SeedSuggestions []string            `json:"seedSuggestions,omitempty"`
	CarouselState   CarouselState       `json:"carouselState"`
	Rotation        float64             `json:"rotation"`
	Candidates      []int               `json:"candidates,omitempty"`
}

// SessionService 驱动每日占卜仪式的完整状态机：
// hub → energy_input → carousel → chat →（completion 浮层）→
// carousel(为明日抽牌) → seed_input → hub。
// 所有守卫失败均按无操作处理，不向用户暴露错误；
// 文案生成失败时静默降级为固定文案。
type SessionService struct {
	mu sync.Mutex

	ledger *LedgerService
	oracle ReflectionOracle

	carousel *CarouselEngine

	now func() time.Time
	rng *rand.Rand

	// epoch 在每次离开当前对话上下文时自增，
	// 迟到的文案响应与其捕获的 epoch 不一致时直接丢弃。
	epoch uint64

	view            ViewMode
	activeDate      string
	energyLevel     int
	pickingTomorrow bool
	loading         bool
	showCompletion  bool

	card          *catalog.TarotCard
	messages      []db.Message
	titles        []string
	selectedTitle string
	sessionDone   bool

	tomorrowCard    *catalog.TarotCard
	seedSuggestions []string
}

// NewSessionService 构造 SessionService，时钟与随机源可再注入以便测试。
func NewSessionService(ledger *LedgerService, oracle ReflectionOracle) *SessionService {
	return &SessionService{
		ledger:   ledger,
		oracle:   oracle,
		carousel: NewCarouselEngine(),
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		view:     ViewHub,
	}
}

// SetClock 替换时钟来源，主要用于测试固定“今天”。
func (s *SessionService) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.now = now
	}
}

// SetRand 替换随机源，主要用于测试固定抽牌结果。
func (s *SessionService) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rng != nil {
		s.rng = rng
	}
}

// Snapshot 返回当前仪式状态的拷贝。
func (s *SessionService) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := SessionSnapshot{
		Date:            s.activeDate,
		View:            s.view,
		Loading:         s.loading,
		PickingTomorrow: s.pickingTomorrow,
		ShowCompletion:  s.showCompletion,
		EnergyLevel:     s.energyLevel,
		Card:            s.card,
		Messages:        append([]db.Message(nil), s.messages...),
		Titles:          append([]string(nil), s.titles...),
		SelectedTitle:   s.selectedTitle,
		TomorrowCard:    s.tomorrowCard,
		SeedSuggestions: append([]string(nil), s.seedSuggestions...),
		CarouselState:   s.carousel.State(),
		Rotation:        s.carousel.Rotation(),
		Candidates:      s.carousel.Candidates(),
	}
	return snap
}

// EnterToday 进入今日仪式。若今日已有记录则恢复对话历史，
// 不重新请求开场白；已完成的记录同时抑制结语标题的再次展示。
func (s *SessionService) EnterToday() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.resetTransientLocked()
	s.activeDate = TodayString(s.now())

	entry, err := s.ledger.Find(s.activeDate)
	if err != nil {
		if err == ErrDayEntryNotFound {
			s.view = ViewEnergyInput
			return nil
		}
		return fmt.Errorf("加载今日记录失败: %w", err)
	}

	if entry.TodayAwareness == nil {
		s.view = ViewEnergyInput
		return nil
	}

	aw := entry.TodayAwareness
	card := catalog.FindCard(aw.CardID)
	s.card = &card
	s.energyLevel = aw.EnergyLevel
	s.messages = append([]db.Message(nil), aw.ChatHistory...)
	s.selectedTitle = aw.SelectedTitle
	s.sessionDone = aw.Status == db.StatusDone
	s.view = ViewChat
	return nil
}

// ConfirmEnergy 记录今日能量值并进入抽牌轮盘。
func (s *SessionService) ConfirmEnergy(level int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != ViewEnergyInput || s.loading {
		return
	}
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}

	s.energyLevel = level
	s.view = ViewCarousel
	s.carousel.Reset()
}

// Tick 推进轮盘物理模拟。
func (s *SessionService) Tick(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != ViewCarousel {
		return
	}
	s.carousel.Tick(dt)
}

// StartShuffle 开始转动轮盘。
func (s *SessionService) StartShuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != ViewCarousel {
		return
	}
	s.carousel.StartShuffle()
}

// StopShuffle 请求轮盘减速停止。
func (s *SessionService) StopShuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != ViewCarousel {
		return
	}
	s.carousel.StopShuffle()
}

// SelectCard 在轮盘停稳后选中一个候选卡槽。
// 卡槽只决定交互位置，真正抽到的牌在此刻独立随机决定。
// 常规分支创建今日记录并请求开场白；
// 为明日抽牌分支转入种子目标输入。
func (s *SessionService) SelectCard(ctx context.Context, index int) error {
	s.mu.Lock()

	if s.view != ViewCarousel || s.loading || !s.carousel.IsCandidate(index) {
		s.mu.Unlock()
		return nil
	}

	drawn := catalog.RandomCard(s.rng)

	if s.pickingTomorrow {
		s.tomorrowCard = &drawn
		s.loading = true
		epoch := s.epoch
		s.mu.Unlock()

		suggestions, err := s.oracle.SeedSuggestions(ctx, drawn)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.epoch != epoch {
			return nil
		}
		if err != nil || len(suggestions) == 0 {
			if err != nil {
				log.Printf("[session] seed suggestions degraded: %v", err)
			}
			suggestions = catalog.SampleSeedSuggestions(s.rng, seedSuggestionCount)
		}
		s.loading = false
		s.seedSuggestions = suggestions
		s.view = ViewSeedInput
		return nil
	}

	s.card = &drawn
	s.messages = nil
	s.selectedTitle = ""
	s.sessionDone = false
	s.view = ViewChat
	s.loading = true
	date := s.activeDate
	if date == "" {
		date = TodayString(s.now())
		s.activeDate = date
	}
	epoch := s.epoch

	entry := s.buildTodayEntryLocked(date)
	s.mu.Unlock()

	if err := s.mergeAndUpsertToday(entry); err != nil {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return err
	}

	opening, err := s.oracle.OpeningLine(ctx, drawn)
	if err != nil || strings.TrimSpace(opening) == "" {
		if err != nil {
			log.Printf("[session] opening line degraded: %v", err)
		}
		opening = fallbackOpeningLine
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	s.loading = false
	s.appendMessageLocked(db.RoleModel, opening)
	return s.persistTodayLocked(date)
}

// SendMessage 追加一条用户消息并请求回应。
// 用户消息先落库，再带加载态等待回应；加载期间拒绝并发发送。
func (s *SessionService) SendMessage(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)

	s.mu.Lock()
	if s.view != ViewChat || s.loading || s.sessionDone || trimmed == "" || s.card == nil {
		s.mu.Unlock()
		return nil
	}

	s.appendMessageLocked(db.RoleUser, trimmed)
	s.loading = true
	date := s.activeDate
	epoch := s.epoch
	history := append([]db.Message(nil), s.messages...)
	entry := s.buildTodayEntryLocked(date)
	s.mu.Unlock()

	if err := s.mergeAndUpsertToday(entry); err != nil {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return err
	}

	reply, err := s.oracle.Reply(ctx, history, trimmed)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			log.Printf("[session] reply degraded: %v", err)
		}
		reply = fallbackReply
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	s.loading = false
	s.appendMessageLocked(db.RoleModel, reply)
	return s.persistTodayLocked(date)
}

// EndSession 请求结语标题供用户挑选，不修改账本。
// 已完成的记录不再展示标题。
func (s *SessionService) EndSession(ctx context.Context) error {
	s.mu.Lock()
	if s.view != ViewChat || s.loading || s.sessionDone {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	epoch := s.epoch
	history := append([]db.Message(nil), s.messages...)
	s.mu.Unlock()

	titles, err := s.oracle.Titles(ctx, history)
	if err != nil || len(titles) == 0 {
		if err != nil {
			log.Printf("[session] titles degraded: %v", err)
		}
		titles = append([]string(nil), fallbackTitles...)
	}
	if len(titles) > maxTitleSuggestionsCount {
		titles = titles[:maxTitleSuggestionsCount]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	s.loading = false
	s.titles = titles
	return nil
}

// SelectTitle 选定结语标题，记录转为完成态并打开结业浮层。
func (s *SessionService) SelectTitle(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(title)
	if s.view != ViewChat || s.loading || s.sessionDone || trimmed == "" {
		return nil
	}

	s.selectedTitle = trimmed
	s.sessionDone = true
	s.titles = nil
	s.showCompletion = true
	return s.persistTodayLocked(s.activeDate)
}

// StartTomorrowRitual 从结业浮层进入为明日抽牌的子流程。
func (s *SessionService) StartTomorrowRitual() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.showCompletion || s.loading {
		return
	}

	s.showCompletion = false
	s.pickingTomorrow = true
	s.tomorrowCard = nil
	s.seedSuggestions = nil
	s.view = ViewCarousel
	s.carousel.Reset()
}

// SaveTomorrowSeed 把明日种子目标写入今日记录并回到主页。
// skip 为 true 时目标留空，但仪式仍视为完成。
func (s *SessionService) SaveTomorrowSeed(goal string, skip bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != ViewSeedInput || s.loading || s.tomorrowCard == nil {
		return nil
	}

	seed := ""
	if !skip {
		seed = strings.TrimSpace(goal)
	}

	date := s.activeDate
	if date == "" {
		date = TodayString(s.now())
	}

	entry, err := s.ledger.Find(date)
	if err != nil && err != ErrDayEntryNotFound {
		return fmt.Errorf("加载今日记录失败: %w", err)
	}
	if entry == nil {
		entry = &db.DayEntry{Date: date}
	}

	suggestion := ""
	if len(s.seedSuggestions) > 0 {
		suggestion = s.seedSuggestions[0]
	}
	entry.TomorrowSeed = &db.TomorrowSeed{
		CardID:            s.tomorrowCard.ID,
		EnergySeed:        seed,
		BlessingCompleted: true,
		AISuggestion:      suggestion,
		Status:            db.StatusDone,
	}

	if _, err := s.ledger.Upsert(entry); err != nil {
		return fmt.Errorf("保存明日种子失败: %w", err)
	}

	s.epoch++
	s.resetTransientLocked()
	s.view = ViewHub
	return nil
}

// CloseCompletion 关闭结业浮层并回到主页。
func (s *SessionService) CloseCompletion() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.showCompletion {
		return
	}

	s.epoch++
	s.resetTransientLocked()
	s.view = ViewHub
}

// ReviewYesterday 回看昨日的种子目标，写回完成状态与回应文案。
// 只修改昨日记录，今日记录保持不变；
// 昨日没有种子或已回看过时按无操作处理。
func (s *SessionService) ReviewYesterday(ctx context.Context, completed bool) error {
	s.mu.Lock()
	yesterday := YesterdayString(s.now())
	s.mu.Unlock()

	entry, err := s.ledger.Find(yesterday)
	if err != nil {
		if err == ErrDayEntryNotFound {
			return nil
		}
		return fmt.Errorf("加载昨日记录失败: %w", err)
	}
	if entry.TomorrowSeed == nil || entry.TomorrowSeed.IsCompleted != nil {
		return nil
	}

	feedback, oracleErr := s.oracle.ReviewFeedback(ctx, entry.TomorrowSeed.EnergySeed, completed)
	if oracleErr != nil || strings.TrimSpace(feedback) == "" {
		if oracleErr != nil {
			log.Printf("[session] review feedback degraded: %v", oracleErr)
		}
		if completed {
			feedback = fallbackReviewDone
		} else {
			feedback = fallbackReviewMissed
		}
	}

	done := completed
	entry.TomorrowSeed.IsCompleted = &done
	entry.TomorrowSeed.CompletionMessage = feedback
	entry.TomorrowSeed.Status = db.StatusDone

	if _, err := s.ledger.Upsert(entry); err != nil {
		return fmt.Errorf("保存昨日回看失败: %w", err)
	}
	return nil
}

// MonthlyInsight 汇总当月所有结语标题作为关键词，生成月度寄语。
func (s *SessionService) MonthlyInsight(ctx context.Context, year int, month time.Month) (string, error) {
	entries, err := s.ledger.ListMonth(year, month)
	if err != nil {
		return "", fmt.Errorf("加载当月记录失败: %w", err)
	}

	keywords := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.TodayAwareness == nil {
			continue
		}
		title := strings.TrimSpace(entry.TodayAwareness.SelectedTitle)
		if title != "" {
			keywords = append(keywords, title)
		}
	}

	insight, err := s.oracle.MonthlyInsight(ctx, keywords)
	if err != nil || strings.TrimSpace(insight) == "" {
		if err != nil {
			log.Printf("[session] monthly insight degraded: %v", err)
		}
		return fallbackMonthlyInsight, nil
	}
	return insight, nil
}

func (s *SessionService) appendMessageLocked(role, text string) {
	s.messages = append(s.messages, db.Message{
		Role:      role,
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	})
}

// buildTodayEntryLocked 用当前瞬时状态组装今日记录，调用方负责落库。
func (s *SessionService) buildTodayEntryLocked(date string) *db.DayEntry {
	status := db.StatusPending
	if s.sessionDone {
		status = db.StatusDone
	}

	cardID := ""
	if s.card != nil {
		cardID = s.card.ID
	}

	entry := &db.DayEntry{
		Date: date,
		TodayAwareness: &db.TodayAwareness{
			CardID:          cardID,
			ChatHistory:     append([]db.Message(nil), s.messages...),
			SelectedTitle:   s.selectedTitle,
			ComplexityScore: CalculateComplexity(s.messages),
			EnergyLevel:     s.energyLevel,
			Status:          status,
		},
	}
	return entry
}

// persistTodayLocked 在持锁状态下落库今日记录。
func (s *SessionService) persistTodayLocked(date string) error {
	if date == "" {
		date = TodayString(s.now())
	}
	return s.mergeAndUpsertToday(s.buildTodayEntryLocked(date))
}

// mergeAndUpsertToday 落库今日记录，
// 同时保留同日已有的明日种子与练习数据。不依赖 s.mu。
func (s *SessionService) mergeAndUpsertToday(entry *db.DayEntry) error {
	if existing, err := s.ledger.Find(entry.Date); err == nil {
		entry.TomorrowSeed = existing.TomorrowSeed
		entry.Practices = existing.Practices
		entry.MoonPhase = existing.MoonPhase
	} else if err != ErrDayEntryNotFound {
		return fmt.Errorf("加载今日记录失败: %w", err)
	}

	if _, err := s.ledger.Upsert(entry); err != nil {
		return fmt.Errorf("保存今日记录失败: %w", err)
	}
	return nil
}

func (s *SessionService) resetTransientLocked() {
	s.loading = false
	s.pickingTomorrow = false
	s.showCompletion = false
	s.card = nil
	s.messages = nil
	s.titles = nil
	s.selectedTitle = ""
	s.sessionDone = false
	s.tomorrowCard = nil
	s.seedSuggestions = nil
	s.energyLevel = 0
	s.carousel.Reset()
}
