package db

import "gorm.io/gorm"

// 记录状态流转：locked 为预留的前置状态，当前流程不会进入。
const (
	StatusLocked  = "locked"
	StatusPending = "pending"
	StatusDone    = "done"
)

// 对话消息角色。
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message 表示觉察对话中的一条消息，Timestamp 为毫秒时间戳。
type Message struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// TodayAwareness 记录当日抽牌后的觉察对话。
// ComplexityScore 始终是 ChatHistory 的纯函数，任何追加都会先重算再落库。
type TodayAwareness struct {
	CardID          string    `json:"card_id"`
	ChatHistory     []Message `json:"chat_history"`
	SelectedTitle   string    `json:"selected_title,omitempty"`
	ComplexityScore int       `json:"complexity_score"`
	EnergyLevel     int       `json:"energy_level"`
	Status          string    `json:"status"`
}

// TomorrowSeed 记录为次日种下的能量种子。
// IsCompleted/CompletionMessage 只会在次日回顾时写入，创建当天不会出现。
type TomorrowSeed struct {
	CardID            string `json:"card_id"`
	EnergySeed        string `json:"energy_seed"`
	BlessingCompleted bool   `json:"blessing_completed"`
	AISuggestion      string `json:"ai_suggestion"`
	Status            string `json:"status"`
	IsCompleted       *bool  `json:"is_completed,omitempty"`
	CompletionMessage string `json:"completion_message,omitempty"`
}

// PracticeSession 记录一次正念练习，由练习子系统追加，占卜流程从不修改。
type PracticeSession struct {
	ID              string `json:"id"`
	ScenarioID      string `json:"scenario_id"`
	ScenarioTitle   string `json:"scenario_title"`
	DurationSeconds int    `json:"duration_seconds"`
	TotalDuration   int    `json:"total_duration"`
	EnergyScore     int    `json:"energy_score"`
	Completed       bool   `json:"completed"`
	Timestamp       int64  `json:"timestamp"`
}

// DayEntry 是每个日历日期唯一的记录，Date 采用 YYYY-MM-DD。
// 觉察、种子与练习均为文档型结构，序列化为 JSON 列存储；
// 按日期 upsert，永不按位置检索，也没有删除路径。
type DayEntry struct {
	gorm.Model
	Date           string            `gorm:"size:10;uniqueIndex;not null" json:"date"`
	MoonPhase      string            `json:"moon_phase"`
	TodayAwareness *TodayAwareness   `gorm:"serializer:json" json:"today_awareness,omitempty"`
	TomorrowSeed   *TomorrowSeed     `gorm:"serializer:json" json:"tomorrow_seed,omitempty"`
	Practices      []PracticeSession `gorm:"serializer:json" json:"practices,omitempty"`
}

// TableName 自定义表名以保持命名一致。
func (DayEntry) TableName() string {
	return "day_entries"
}
