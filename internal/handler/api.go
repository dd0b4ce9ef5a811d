package handler

import (
	"github.com/moontide/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	ledger    *service.LedgerService
	session   *service.SessionService
	practices *service.PracticeService
	system    *service.SystemSettingService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB) *API {
	systemService := service.NewSystemSettingService(db)
	oracle := service.NewAIReflectionService(systemService)
	ledger := service.NewLedgerService(db)

	return &API{
		db:        db,
		ledger:    ledger,
		session:   service.NewSessionService(ledger, oracle),
		practices: service.NewPracticeService(ledger),
		system:    systemService,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Session exposes the ritual state machine, mainly for tests.
func (a *API) Session() *service.SessionService {
	return a.session
}
