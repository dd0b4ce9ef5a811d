package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/moontide/internal/catalog"
	"github.com/moontide/internal/config"
	"github.com/moontide/internal/db"
	"github.com/moontide/internal/service"
)

// 测试数据生成器：为最近一个月补齐带对话与种子目标的日记录。
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	ledger := service.NewLedgerService(db.DB)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	titles := []string{"错过的早班车", "雨中的宁静", "与自我的和解", "深夜的灯", "慢下来的一天"}
	seeds := catalog.SampleSeedSuggestions(rng, 5)

	now := time.Now()
	for offset := 30; offset >= 1; offset-- {
		day := now.AddDate(0, 0, -offset)
		entry := buildDayEntry(day, rng, titles, seeds)
		if _, err := ledger.Upsert(entry); err != nil {
			log.Fatalf("写入 %s 失败: %v", entry.Date, err)
		}
	}

	fmt.Println("测试数据生成完成。")
}

func buildDayEntry(day time.Time, rng *rand.Rand, titles, seeds []string) *db.DayEntry {
	card := catalog.RandomCard(rng)
	opened := day.Add(20 * time.Hour)

	history := []db.Message{
		{Role: db.RoleModel, Text: "看着这张牌，你第一眼被哪个细节吸引了？", Timestamp: opened.UnixMilli()},
		{Role: db.RoleUser, Text: "今天有点累，但画面里的光让我觉得平静。", Timestamp: opened.Add(time.Minute).UnixMilli()},
		{Role: db.RoleModel, Text: "这种平静让你想到了今天的哪个瞬间？", Timestamp: opened.Add(2 * time.Minute).UnixMilli()},
	}

	done := rng.Intn(2) == 0
	entry := &db.DayEntry{
		Date: service.TodayString(day),
		TodayAwareness: &db.TodayAwareness{
			CardID:          card.ID,
			ChatHistory:     history,
			SelectedTitle:   titles[rng.Intn(len(titles))],
			ComplexityScore: service.CalculateComplexity(history),
			EnergyLevel:     20 + rng.Intn(80),
			Status:          db.StatusDone,
		},
		TomorrowSeed: &db.TomorrowSeed{
			CardID:            catalog.RandomCard(rng).ID,
			EnergySeed:        seeds[rng.Intn(len(seeds))],
			BlessingCompleted: true,
			IsCompleted:       &done,
			CompletionMessage: "做得好，能量在流动。",
			Status:            db.StatusDone,
		},
	}
	return entry
}
