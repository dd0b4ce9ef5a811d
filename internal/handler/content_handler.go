package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moontide/internal/catalog"
	"github.com/moontide/internal/lunar"
)

// GetTodayMoon 返回今日月相及其展示文案。
func (a *API) GetTodayMoon(c *gin.Context) {
	now := time.Now()
	phase := lunar.Calculate(now)
	info := lunar.Info(phase)

	c.JSON(http.StatusOK, gin.H{
		"date":     now.Format(dateFormat),
		"phase":    phase,
		"cnName":   info.CnName,
		"blessing": info.Blessing,
		"tip":      info.Tip,
	})
}

// ListCards 返回静态塔罗牌目录。
func (a *API) ListCards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cards": catalog.Deck})
}
