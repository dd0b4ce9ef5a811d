package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moontide/internal/db"
	"github.com/moontide/internal/router"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type e2eSuite struct {
	t       *testing.T
	server  *httptest.Server
	client  *http.Client
	baseURL string
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:e2e-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&db.DayEntry{}, &db.SystemSetting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	engine := router.SetupRouter(gdb, "e2e-secret")
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &e2eSuite{
		t:       t,
		server:  server,
		client:  &http.Client{Jar: jar},
		baseURL: server.URL,
	}
}

func (s *e2eSuite) post(path string, payload interface{}) map[string]interface{} {
	s.t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := s.client.Post(s.baseURL+path, "application/json", body)
	if err != nil {
		s.t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		s.t.Fatalf("POST %s: status %d body %s", path, resp.StatusCode, raw)
	}
	return decodeBody(s.t, resp.Body)
}

func (s *e2eSuite) get(path string) map[string]interface{} {
	s.t.Helper()

	resp, err := s.client.Get(s.baseURL + path)
	if err != nil {
		s.t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		s.t.Fatalf("GET %s: status %d body %s", path, resp.StatusCode, raw)
	}
	return decodeBody(s.t, resp.Body)
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

// 没有配置 AI Key 时，整条流程应依靠固定降级文案跑通。
func TestFullRitualOverHTTP(t *testing.T) {
	s := newE2ESuite(t)

	state := s.post("/api/session/enter", nil)
	if state["view"] != "energy_input" {
		t.Fatalf("expected energy_input, got %v", state["view"])
	}

	state = s.post("/api/session/energy", map[string]int{"level": 70})
	if state["view"] != "carousel" {
		t.Fatalf("expected carousel, got %v", state["view"])
	}

	s.post("/api/session/shuffle/start", nil)
	s.post("/api/session/tick", map[string]float64{"delta": 0.5})
	s.post("/api/session/shuffle/stop", nil)

	var candidates []interface{}
	for i := 0; i < 600; i++ {
		state = s.post("/api/session/tick", map[string]float64{"delta": 1.0 / 60.0})
		if state["carouselState"] == "selection" {
			candidates, _ = state["candidates"].([]interface{})
			break
		}
	}
	if len(candidates) != 3 {
		t.Fatalf("carousel never settled, state: %v", state["carouselState"])
	}

	index := int(candidates[1].(float64))
	state = s.post("/api/session/card", map[string]int{"index": index})
	if state["view"] != "chat" {
		t.Fatalf("expected chat, got %v", state["view"])
	}
	messages, _ := state["messages"].([]interface{})
	if len(messages) != 1 {
		t.Fatalf("expected fallback opening message, got %v", messages)
	}

	state = s.post("/api/session/message", map[string]string{"text": "今天很累"})
	messages, _ = state["messages"].([]interface{})
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages after send, got %d", len(messages))
	}

	state = s.post("/api/session/end", nil)
	titles, _ := state["titles"].([]interface{})
	if len(titles) == 0 {
		t.Fatalf("expected fallback titles")
	}

	state = s.post("/api/session/title", map[string]string{"title": titles[0].(string)})
	if state["showCompletion"] != true {
		t.Fatalf("completion overlay should be open")
	}

	state = s.post("/api/session/tomorrow/start", nil)
	if state["view"] != "carousel" || state["pickingTomorrow"] != true {
		t.Fatalf("expected tomorrow carousel, got %v", state)
	}

	s.post("/api/session/shuffle/start", nil)
	s.post("/api/session/tick", map[string]float64{"delta": 0.5})
	s.post("/api/session/shuffle/stop", nil)
	for i := 0; i < 600; i++ {
		state = s.post("/api/session/tick", map[string]float64{"delta": 1.0 / 60.0})
		if state["carouselState"] == "selection" {
			candidates, _ = state["candidates"].([]interface{})
			break
		}
	}
	index = int(candidates[0].(float64))
	state = s.post("/api/session/card", map[string]int{"index": index})
	if state["view"] != "seed_input" {
		t.Fatalf("expected seed_input, got %v", state["view"])
	}

	state = s.post("/api/session/tomorrow/seed", map[string]interface{}{"goal": "早睡一小时", "skip": false})
	if state["view"] != "hub" {
		t.Fatalf("expected hub after seed save, got %v", state["view"])
	}

	today := time.Now().Format("2006-01-02")
	detail := s.get("/api/days/" + today)
	if detail["date"] != today {
		t.Fatalf("unexpected day detail: %v", detail)
	}
	seed, _ := detail["tomorrowSeed"].(map[string]interface{})
	if seed == nil || seed["energySeed"] != "早睡一小时" {
		t.Fatalf("seed not persisted: %v", detail["tomorrowSeed"])
	}
}

// 进入仪式必须下发会话 Cookie，后续仪式操作缺少该 Cookie 时应被拒绝。
func TestRitualSessionCookieBinding(t *testing.T) {
	s := newE2ESuite(t)

	resp, err := http.Post(s.baseURL+"/api/session/enter", "application/json", nil)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enter status %d", resp.StatusCode)
	}

	cookieIssued := false
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "moontide_session" {
			cookieIssued = true
		}
	}
	if !cookieIssued {
		t.Fatalf("entering the ritual must issue the moontide_session cookie")
	}

	// 不带 Cookie 的客户端不能推进仪式。
	bare, err := http.Post(s.baseURL+"/api/session/energy", "application/json",
		bytes.NewReader([]byte(`{"level":70}`)))
	if err != nil {
		t.Fatalf("bare energy: %v", err)
	}
	defer bare.Body.Close()
	if bare.StatusCode != http.StatusConflict {
		t.Fatalf("unbound client should get 409, got %d", bare.StatusCode)
	}

	// 带 Cookie 的客户端正常推进。
	state := s.post("/api/session/enter", nil)
	if state["view"] != "energy_input" {
		t.Fatalf("expected energy_input, got %v", state["view"])
	}
	state = s.post("/api/session/energy", map[string]int{"level": 70})
	if state["view"] != "carousel" {
		t.Fatalf("bound client should advance to carousel, got %v", state["view"])
	}
}

func TestPracticeAndContentEndpoints(t *testing.T) {
	s := newE2ESuite(t)

	result := s.post("/api/practices", map[string]interface{}{
		"scenarioId":      "breath",
		"scenarioTitle":   "呼吸练习",
		"durationSeconds": 300,
		"totalDuration":   300,
		"energyScore":     80,
		"completed":       true,
	})
	practice, _ := result["practice"].(map[string]interface{})
	if practice == nil || practice["scenario_id"] != "breath" {
		t.Fatalf("practice not created: %v", result)
	}

	listed := s.get("/api/practices/today")
	practices, _ := listed["practices"].([]interface{})
	if len(practices) != 1 {
		t.Fatalf("expected 1 practice, got %v", listed)
	}

	moon := s.get("/api/moon/today")
	if moon["phase"] == "" || moon["cnName"] == "" {
		t.Fatalf("moon info incomplete: %v", moon)
	}

	cards := s.get("/api/cards")
	deck, _ := cards["cards"].([]interface{})
	if len(deck) != 12 {
		t.Fatalf("expected 12 cards, got %d", len(deck))
	}
}
