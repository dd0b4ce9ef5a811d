package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moontide/internal/db"
	"github.com/moontide/internal/service"
)

type practiceRequest struct {
	ScenarioID      string `json:"scenarioId"`
	ScenarioTitle   string `json:"scenarioTitle"`
	DurationSeconds int    `json:"durationSeconds"`
	TotalDuration   int    `json:"totalDuration"`
	EnergyScore     int    `json:"energyScore"`
	Completed       bool   `json:"completed"`
}

// AppendPractice 把一次冥想练习追加到今日记录。
func (a *API) AppendPractice(c *gin.Context) {
	var payload practiceRequest
	if !bindJSON(c, &payload, "请填写完整的练习信息") {
		return
	}

	session, err := a.practices.Append(service.PracticeInput{
		ScenarioID:      payload.ScenarioID,
		ScenarioTitle:   payload.ScenarioTitle,
		DurationSeconds: payload.DurationSeconds,
		TotalDuration:   payload.TotalDuration,
		EnergyScore:     payload.EnergyScore,
		Completed:       payload.Completed,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "保存练习记录失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"practice": session})
}

// ListTodayPractices 返回今日的练习列表。
func (a *API) ListTodayPractices(c *gin.Context) {
	sessions, err := a.practices.ListToday()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取练习记录失败")
		return
	}
	if sessions == nil {
		sessions = []db.PracticeSession{}
	}
	c.JSON(http.StatusOK, gin.H{"practices": sessions})
}
