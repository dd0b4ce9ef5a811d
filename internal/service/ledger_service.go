package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/moontide/internal/db"
	"github.com/moontide/internal/lunar"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDayEntryNotFound 在指定日期没有记录时返回。
var ErrDayEntryNotFound = errors.New("day entry not found")

const dateFormat = "2006-01-02"

// LedgerService 维护按日期唯一的 DayEntry 台账。
// 写入始终是整条记录按日期 upsert，查询始终按日期键进行；
// 记录顺序没有语义，时间序列表只在查询时派生。核心不提供删除。
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService 构造 LedgerService。
func NewLedgerService(gdb *gorm.DB) *LedgerService {
	return &LedgerService{db: gdb}
}

// Upsert 以 date 为键整条替换记录，不存在则创建。
// MoonPhase 缺失时按日期补算，保证展示层总能拿到月相标签。
func (s *LedgerService) Upsert(entry *db.DayEntry) (*db.DayEntry, error) {
	if entry == nil || len(entry.Date) != len(dateFormat) {
		return nil, fmt.Errorf("invalid day entry date: %q", entryDate(entry))
	}

	if entry.MoonPhase == "" {
		if parsed, err := time.ParseInLocation(dateFormat, entry.Date, time.Local); err == nil {
			entry.MoonPhase = string(lunar.Calculate(parsed))
		}
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"moon_phase", "today_awareness", "tomorrow_seed", "practices", "updated_at",
		}),
	}).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("upsert day entry: %w", err)
	}

	var saved db.DayEntry
	if err := s.db.Where("date = ?", entry.Date).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("reload day entry: %w", err)
	}
	return &saved, nil
}

// Find 按日期查找记录，不存在时返回 ErrDayEntryNotFound。
func (s *LedgerService) Find(date string) (*db.DayEntry, error) {
	var entry db.DayEntry
	if err := s.db.Where("date = ?", date).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDayEntryNotFound
		}
		return nil, fmt.Errorf("find day entry: %w", err)
	}
	return &entry, nil
}

// ListBetween 返回日期区间内的记录，按日期升序。
func (s *LedgerService) ListBetween(start, end string) ([]db.DayEntry, error) {
	var entries []db.DayEntry
	if err := s.db.Where("date BETWEEN ? AND ?", start, end).
		Order("date ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list day entries: %w", err)
	}
	return entries, nil
}

// ListMonth 返回某个自然月内的全部记录。
func (s *LedgerService) ListMonth(year int, month time.Month) ([]db.DayEntry, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)
	return s.ListBetween(first.Format(dateFormat), last.Format(dateFormat))
}

// TodayString 返回本地时区的今日日期串。
func TodayString(now time.Time) string {
	return now.Format(dateFormat)
}

// YesterdayString 返回本地时区的昨日日期串。
func YesterdayString(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(dateFormat)
}

func entryDate(entry *db.DayEntry) string {
	if entry == nil {
		return ""
	}
	return entry.Date
}
