package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/moontide/internal/handler"
	"gorm.io/gorm"
)

// SetupRouter 配置 Gin 引擎和路由。
func SetupRouter(gdb *gorm.DB, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 会话 Cookie 绑定单个活跃仪式上下文。
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("moontide_session", store))

	api := handler.NewAPI(gdb)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/healthz", api.HealthCheck)

	v1 := r.Group("/api")
	{
		session := v1.Group("/session")
		{
			session.GET("", api.GetSessionState)
			session.POST("/enter", api.EnterToday)
			session.POST("/energy", api.ConfirmEnergy)
			session.POST("/tick", api.TickCarousel)
			session.POST("/shuffle/start", api.StartShuffle)
			session.POST("/shuffle/stop", api.StopShuffle)
			session.POST("/card", api.SelectCard)
			session.POST("/message", api.SendMessage)
			session.POST("/end", api.EndSession)
			session.POST("/title", api.SelectTitle)
			session.POST("/tomorrow/start", api.StartTomorrowRitual)
			session.POST("/tomorrow/seed", api.SaveTomorrowSeed)
			session.POST("/completion/close", api.CloseCompletion)
			session.POST("/review", api.ReviewYesterday)
		}

		v1.GET("/days", api.ListDays)
		v1.GET("/days/:date", api.GetDay)
		v1.GET("/insight", api.GetMonthlyInsight)

		v1.POST("/practices", api.AppendPractice)
		v1.GET("/practices/today", api.ListTodayPractices)

		v1.GET("/moon/today", api.GetTodayMoon)
		v1.GET("/cards", api.ListCards)

		settings := v1.Group("/settings")
		{
			settings.GET("", api.GetSystemSettings)
			settings.PUT("", api.UpdateSystemSettings)
			settings.POST("/test-ai", api.TestAIConnection)
		}
	}

	return r
}
