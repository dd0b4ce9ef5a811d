package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moontide/internal/db"
)

// PracticeInput 描述一次冥想练习的完成情况。
type PracticeInput struct {
	ScenarioID      string
	ScenarioTitle   string
	DurationSeconds int
	TotalDuration   int
	EnergyScore     int
	Completed       bool
}

// PracticeService 把练习记录以追加方式挂到当日记录上。
// 练习列表只增不改，占卜流程不会触碰它。
type PracticeService struct {
	ledger *LedgerService
	now    func() time.Time
}

// NewPracticeService 构造 PracticeService。
func NewPracticeService(ledger *LedgerService) *PracticeService {
	return &PracticeService{ledger: ledger, now: time.Now}
}

// SetClock 替换时钟来源，主要用于测试固定“今天”。
func (s *PracticeService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Append 把一次练习追加到今日记录，必要时创建当日记录。
func (s *PracticeService) Append(input PracticeInput) (*db.PracticeSession, error) {
	if strings.TrimSpace(input.ScenarioID) == "" {
		return nil, fmt.Errorf("practice scenario id is required")
	}

	score := input.EnergyScore
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	now := s.now()
	session := db.PracticeSession{
		ID:              uuid.NewString(),
		ScenarioID:      strings.TrimSpace(input.ScenarioID),
		ScenarioTitle:   strings.TrimSpace(input.ScenarioTitle),
		DurationSeconds: input.DurationSeconds,
		TotalDuration:   input.TotalDuration,
		EnergyScore:     score,
		Completed:       input.Completed,
		Timestamp:       now.UnixMilli(),
	}

	date := TodayString(now)
	entry, err := s.ledger.Find(date)
	if err != nil {
		if err != ErrDayEntryNotFound {
			return nil, fmt.Errorf("加载今日记录失败: %w", err)
		}
		entry = &db.DayEntry{Date: date}
	}

	entry.Practices = append(entry.Practices, session)
	if _, err := s.ledger.Upsert(entry); err != nil {
		return nil, fmt.Errorf("保存练习记录失败: %w", err)
	}
	return &session, nil
}

// ListToday 返回今日已完成的练习列表。
func (s *PracticeService) ListToday() ([]db.PracticeSession, error) {
	entry, err := s.ledger.Find(TodayString(s.now()))
	if err != nil {
		if err == ErrDayEntryNotFound {
			return nil, nil
		}
		return nil, err
	}
	return entry.Practices, nil
}
