package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moontide/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHandlerTest(t *testing.T) (*API, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&db.DayEntry{}, &db.SystemSetting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	api := NewAPI(gdb)
	engine := gin.New()
	engine.GET("/api/days", api.ListDays)
	engine.GET("/api/days/:date", api.GetDay)
	return api, engine
}

func TestGetDayRendersChatAsSanitizedHTML(t *testing.T) {
	api, engine := setupHandlerTest(t)

	if _, err := api.ledger.Upsert(&db.DayEntry{
		Date: "2024-05-10",
		TodayAwareness: &db.TodayAwareness{
			CardID: "c18",
			ChatHistory: []db.Message{
				{Role: db.RoleModel, Text: "**看着这张牌**<script>alert(1)</script>", Timestamp: 1},
			},
			SelectedTitle: "雨中的宁静",
			EnergyLevel:   70,
			Status:        db.StatusDone,
		},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/days/2024-05-10", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	var detail map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail["selectedTitle"] != "雨中的宁静" {
		t.Fatalf("unexpected title: %v", detail["selectedTitle"])
	}
	if detail["energyLabel"] != "高涨 · Surge" {
		t.Fatalf("unexpected energy label: %v", detail["energyLabel"])
	}
	if detail["moonPhase"] == "" {
		t.Fatalf("moon phase should be present")
	}

	history, _ := detail["chatHistory"].([]interface{})
	if len(history) != 1 {
		t.Fatalf("expected 1 message, got %v", detail["chatHistory"])
	}
	rendered, _ := history[0].(map[string]interface{})["html"].(string)
	if !strings.Contains(rendered, "<strong>") || strings.Contains(rendered, "<script>") {
		t.Fatalf("unexpected rendered html: %q", rendered)
	}
}

func TestGetDayValidation(t *testing.T) {
	_, engine := setupHandlerTest(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/days/20240510", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed date should be 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/days/1999-01-01", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing day should be 404, got %d", w.Code)
	}
}

func TestListDaysComputesMissingMoonPhase(t *testing.T) {
	api, engine := setupHandlerTest(t)

	entry := &db.DayEntry{Date: "2024-05-01"}
	if _, err := api.ledger.Upsert(entry); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/days?start=2024-05-01&end=2024-05-31", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	var payload struct {
		Days []daySummaryPayload `json:"days"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(payload.Days))
	}
	if payload.Days[0].MoonPhase == "" || payload.Days[0].MoonPhaseCn == "" {
		t.Fatalf("moon phase should be computed: %+v", payload.Days[0])
	}
}
