package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/moontide/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupLedgerTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:ledger-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(&db.DayEntry{}, &db.SystemSetting{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}

func TestLedgerUpsertIsIdempotentPerDate(t *testing.T) {
	gdb, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	svc := NewLedgerService(gdb)

	first := &db.DayEntry{
		Date: "2024-05-01",
		TodayAwareness: &db.TodayAwareness{
			CardID: "c9", Status: db.StatusPending, EnergyLevel: 40,
		},
	}
	if _, err := svc.Upsert(first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := &db.DayEntry{
		Date: "2024-05-01",
		TodayAwareness: &db.TodayAwareness{
			CardID: "c18", Status: db.StatusDone, EnergyLevel: 70, SelectedTitle: "直觉指引",
		},
	}
	if _, err := svc.Upsert(second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	if err := gdb.Model(&db.DayEntry{}).Where("date = ?", "2024-05-01").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one record for the date, got %d", count)
	}

	saved, err := svc.Find("2024-05-01")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if saved.TodayAwareness == nil || saved.TodayAwareness.CardID != "c18" {
		t.Fatalf("second write should win: %+v", saved.TodayAwareness)
	}
	if saved.TodayAwareness.SelectedTitle != "直觉指引" {
		t.Fatalf("expected selected title persisted, got %q", saved.TodayAwareness.SelectedTitle)
	}
}

func TestLedgerUpsertBackfillsMoonPhase(t *testing.T) {
	gdb, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	svc := NewLedgerService(gdb)

	saved, err := svc.Upsert(&db.DayEntry{Date: "2024-05-01"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if saved.MoonPhase == "" {
		t.Fatalf("moon phase should be computed when absent")
	}
}

func TestLedgerFindMissingDate(t *testing.T) {
	gdb, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	svc := NewLedgerService(gdb)

	if _, err := svc.Find("1999-01-01"); !errors.Is(err, ErrDayEntryNotFound) {
		t.Fatalf("expected ErrDayEntryNotFound, got %v", err)
	}
}

func TestLedgerListBetweenOrdersByDate(t *testing.T) {
	gdb, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	svc := NewLedgerService(gdb)
	for _, date := range []string{"2024-05-03", "2024-05-01", "2024-05-02"} {
		if _, err := svc.Upsert(&db.DayEntry{Date: date}); err != nil {
			t.Fatalf("seed %s: %v", date, err)
		}
	}

	entries, err := svc.ListBetween("2024-05-01", "2024-05-31")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Date > entries[i].Date {
			t.Fatalf("entries out of order: %s before %s", entries[i-1].Date, entries[i].Date)
		}
	}
}

func TestLedgerRejectsMalformedDate(t *testing.T) {
	gdb, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	svc := NewLedgerService(gdb)
	if _, err := svc.Upsert(&db.DayEntry{Date: "20240501"}); err == nil {
		t.Fatalf("expected error for malformed date")
	}
	if _, err := svc.Upsert(nil); err == nil {
		t.Fatalf("expected error for nil entry")
	}
}
