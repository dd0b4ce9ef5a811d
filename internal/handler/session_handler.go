package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ritualDateSessionKey 把浏览器会话与当前活跃的仪式日期绑定。
const ritualDateSessionKey = "ritual_date"

type energyRequest struct {
	Level int `json:"level"`
}

type tickRequest struct {
	Delta float64 `json:"delta"`
}

type selectCardRequest struct {
	Index int `json:"index"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type seedRequest struct {
	Goal string `json:"goal"`
	Skip bool   `json:"skip"`
}

type reviewRequest struct {
	Completed bool `json:"completed"`
}

// GetSessionState 返回当前仪式状态快照。
func (a *API) GetSessionState(c *gin.Context) {
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// EnterToday 开启或恢复今日仪式，并把会话 Cookie 绑定到仪式日期。
func (a *API) EnterToday(c *gin.Context) {
	if err := a.session.EnterToday(); err != nil {
		respondError(c, http.StatusInternalServerError, "进入今日仪式失败")
		return
	}

	snap := a.session.Snapshot()
	sess := sessions.Default(c)
	sess.Set(ritualDateSessionKey, snap.Date)
	if err := sess.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "建立仪式会话失败")
		return
	}

	c.JSON(http.StatusOK, snap)
}

// requireRitualSession 校验请求的会话 Cookie 是否绑定了当前仪式日期。
// 未进入仪式或跨日的陈旧会话会被拒绝，避免误写当前仪式状态。
func (a *API) requireRitualSession(c *gin.Context) bool {
	sess := sessions.Default(c)
	bound, _ := sess.Get(ritualDateSessionKey).(string)
	if bound == "" || bound != a.session.Snapshot().Date {
		respondError(c, http.StatusConflict, "仪式尚未开始或已过期，请重新进入")
		return false
	}
	return true
}

// ConfirmEnergy 记录今日能量值。
func (a *API) ConfirmEnergy(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	var payload energyRequest
	if !bindJSON(c, &payload, "请填写有效的能量值") {
		return
	}
	a.session.ConfirmEnergy(payload.Level)
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// TickCarousel 以客户端上报的帧间隔推进轮盘模拟。
func (a *API) TickCarousel(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	var payload tickRequest
	if !bindJSON(c, &payload, "请上报有效的帧间隔") {
		return
	}
	a.session.Tick(payload.Delta)
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// StartShuffle 开始转动轮盘。
func (a *API) StartShuffle(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	a.session.StartShuffle()
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// StopShuffle 请求轮盘减速。
func (a *API) StopShuffle(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	a.session.StopShuffle()
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// SelectCard 选中候选卡槽并抽牌。
func (a *API) SelectCard(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	var payload selectCardRequest
	if !bindJSON(c, &payload, "请指定要选中的卡槽") {
		return
	}
	if err := a.session.SelectCard(c.Request.Context(), payload.Index); err != nil {
		respondError(c, http.StatusInternalServerError, "抽牌失败")
		return
	}
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// SendMessage 发送一条对话消息。
func (a *API) SendMessage(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	var payload messageRequest
	if !bindJSON(c, &payload, "请输入消息内容") {
		return
	}
	if err := a.session.SendMessage(c.Request.Context(), payload.Text); err != nil {
		respondError(c, http.StatusInternalServerError, "发送消息失败")
		return
	}
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// EndSession 请求结语标题。
func (a *API) EndSession(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	if err := a.session.EndSession(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, "结束会话失败")
		return
	}
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// SelectTitle 选定结语标题。
func (a *API) SelectTitle(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	var payload titleRequest
	if !bindJSON(c, &payload, "请选择一个标题") {
		return
	}
	if err := a.session.SelectTitle(payload.Title); err != nil {
		respondError(c, http.StatusInternalServerError, "保存标题失败")
		return
	}
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// StartTomorrowRitual 进入为明日抽牌的子流程。
func (a *API) StartTomorrowRitual(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	a.session.StartTomorrowRitual()
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// SaveTomorrowSeed 保存明日种子目标。
func (a *API) SaveTomorrowSeed(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	var payload seedRequest
	if !bindJSON(c, &payload, "请填写明日目标") {
		return
	}
	if err := a.session.SaveTomorrowSeed(payload.Goal, payload.Skip); err != nil {
		respondError(c, http.StatusInternalServerError, "保存明日种子失败")
		return
	}
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// CloseCompletion 关闭结业浮层。
func (a *API) CloseCompletion(c *gin.Context) {
	if !a.requireRitualSession(c) {
		return
	}
	a.session.CloseCompletion()
	c.JSON(http.StatusOK, a.session.Snapshot())
}

// ReviewYesterday 回看昨日的种子目标。
func (a *API) ReviewYesterday(c *gin.Context) {
	var payload reviewRequest
	if !bindJSON(c, &payload, "请标记昨日目标是否完成") {
		return
	}
	if err := a.session.ReviewYesterday(c.Request.Context(), payload.Completed); err != nil {
		respondError(c, http.StatusInternalServerError, "回看昨日目标失败")
		return
	}
	c.JSON(http.StatusOK, a.session.Snapshot())
}
