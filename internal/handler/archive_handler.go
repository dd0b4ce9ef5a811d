package handler

import (
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moontide/internal/catalog"
	"github.com/moontide/internal/db"
	"github.com/moontide/internal/lunar"
	"github.com/moontide/internal/service"
	"github.com/moontide/internal/view"
)

type daySummaryPayload struct {
	Date          string `json:"date"`
	MoonPhase     string `json:"moonPhase"`
	MoonPhaseCn   string `json:"moonPhaseCn"`
	SelectedTitle string `json:"selectedTitle,omitempty"`
	EnergyLevel   int    `json:"energyLevel"`
	EnergyLabel   string `json:"energyLabel"`
	HasAwareness  bool   `json:"hasAwareness"`
	HasSeed       bool   `json:"hasSeed"`
	PracticeCount int    `json:"practiceCount"`
}

type chatMessagePayload struct {
	Role      string        `json:"role"`
	Text      string        `json:"text"`
	HTML      template.HTML `json:"html"`
	Timestamp int64         `json:"timestamp"`
}

type dayDetailPayload struct {
	daySummaryPayload
	Blessing        string               `json:"blessing"`
	Tip             string               `json:"tip"`
	Card            *catalog.TarotCard   `json:"card,omitempty"`
	ComplexityScore int                  `json:"complexityScore"`
	ChatHistory     []chatMessagePayload `json:"chatHistory,omitempty"`
	TomorrowSeed    *seedPayload         `json:"tomorrowSeed,omitempty"`
	Practices       []db.PracticeSession `json:"practices,omitempty"`
}

type seedPayload struct {
	Card              *catalog.TarotCard `json:"card,omitempty"`
	EnergySeed        string             `json:"energySeed"`
	BlessingCompleted bool               `json:"blessingCompleted"`
	IsCompleted       *bool              `json:"isCompleted,omitempty"`
	CompletionMessage string             `json:"completionMessage,omitempty"`
	CompletionHTML    template.HTML      `json:"completionHtml,omitempty"`
	Status            string             `json:"status"`
}

// ListDays 返回日期区间内的归档摘要，默认返回当月。
func (a *API) ListDays(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		now := time.Now()
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
		start = first.Format(dateFormat)
		end = first.AddDate(0, 1, -1).Format(dateFormat)
	}

	entries, err := a.ledger.ListBetween(start, end)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取归档失败")
		return
	}

	payload := make([]daySummaryPayload, 0, len(entries))
	for i := range entries {
		payload = append(payload, daySummary(&entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{"days": payload})
}

// GetDay 返回某一天的完整归档，对话渲染为净化后的 HTML。
func (a *API) GetDay(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.ParseInLocation(dateFormat, date, time.Local); err != nil {
		respondError(c, http.StatusBadRequest, "日期格式应为 YYYY-MM-DD")
		return
	}

	entry, err := a.ledger.Find(date)
	if err != nil {
		if err == service.ErrDayEntryNotFound {
			respondError(c, http.StatusNotFound, "这一天还没有记录")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取记录失败")
		return
	}

	c.JSON(http.StatusOK, dayDetail(entry))
}

// GetMonthlyInsight 返回指定月份的月度寄语。
func (a *API) GetMonthlyInsight(c *gin.Context) {
	now := time.Now()
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		respondError(c, http.StatusBadRequest, "年份无效")
		return
	}
	monthNum, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil || monthNum < 1 || monthNum > 12 {
		respondError(c, http.StatusBadRequest, "月份无效")
		return
	}

	insight, err := a.session.MonthlyInsight(c.Request.Context(), year, time.Month(monthNum))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "生成月度寄语失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"insight":     insight,
		"insightHtml": view.RenderMarkdown(insight),
	})
}

func daySummary(entry *db.DayEntry) daySummaryPayload {
	phase := entry.MoonPhase
	if phase == "" {
		if parsed, err := time.ParseInLocation(dateFormat, entry.Date, time.Local); err == nil {
			phase = string(lunar.Calculate(parsed))
		}
	}
	info := lunar.Info(lunar.Phase(phase))

	summary := daySummaryPayload{
		Date:          entry.Date,
		MoonPhase:     phase,
		MoonPhaseCn:   info.CnName,
		HasAwareness:  entry.TodayAwareness != nil,
		HasSeed:       entry.TomorrowSeed != nil,
		PracticeCount: len(entry.Practices),
	}
	if aw := entry.TodayAwareness; aw != nil {
		summary.SelectedTitle = aw.SelectedTitle
		summary.EnergyLevel = aw.EnergyLevel
		summary.EnergyLabel = view.EnergyLabel(aw.EnergyLevel)
	}
	return summary
}

func dayDetail(entry *db.DayEntry) dayDetailPayload {
	summary := daySummary(entry)
	info := lunar.Info(lunar.Phase(summary.MoonPhase))

	detail := dayDetailPayload{
		daySummaryPayload: summary,
		Blessing:          info.Blessing,
		Tip:               info.Tip,
		Practices:         entry.Practices,
	}

	if aw := entry.TodayAwareness; aw != nil {
		card := catalog.FindCard(aw.CardID)
		detail.Card = &card
		detail.ComplexityScore = aw.ComplexityScore
		detail.ChatHistory = make([]chatMessagePayload, 0, len(aw.ChatHistory))
		for _, msg := range aw.ChatHistory {
			detail.ChatHistory = append(detail.ChatHistory, chatMessagePayload{
				Role:      msg.Role,
				Text:      msg.Text,
				HTML:      view.RenderMarkdown(msg.Text),
				Timestamp: msg.Timestamp,
			})
		}
	}

	if seed := entry.TomorrowSeed; seed != nil {
		card := catalog.FindCard(seed.CardID)
		payload := &seedPayload{
			Card:              &card,
			EnergySeed:        seed.EnergySeed,
			BlessingCompleted: seed.BlessingCompleted,
			IsCompleted:       seed.IsCompleted,
			CompletionMessage: seed.CompletionMessage,
			Status:            seed.Status,
		}
		if seed.CompletionMessage != "" {
			payload.CompletionHTML = view.RenderMarkdown(seed.CompletionMessage)
		}
		detail.TomorrowSeed = payload
	}

	return detail
}
