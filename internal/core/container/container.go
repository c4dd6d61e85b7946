package container

import (
	"database/sql"
	"os"
	"time"

	auditLogRepo "github.com/Ngonie-x/warrant-register/internal/auditlog"
	"github.com/Ngonie-x/warrant-register/internal/ratelimit"
	"github.com/Ngonie-x/warrant-register/internal/refdata"
	"github.com/Ngonie-x/warrant-register/internal/repository"
	"github.com/Ngonie-x/warrant-register/internal/sweeper"
	"github.com/Ngonie-x/warrant-register/internal/warranty"
	"github.com/Ngonie-x/warrant-register/pkg/auditlog"
	"go.uber.org/zap"
)

const (
	defaultStatsCacheTTL     = 5 * time.Minute
	defaultSweepSchedule     = "@hourly"
	defaultRegisterRateLimit = 30
)

type Container struct {
	Repository       *repository.Repository
	Logger           *zap.Logger
	AuditRecorder    *auditlog.Recorder
	WarrantyService  *warranty.WarrantyService
	WarrantyHandler  *warranty.Handler
	ReferenceHandler *refdata.Handler
	Sweeper          *sweeper.Sweeper
}

func NewAppContainer(db *sql.DB, log *zap.Logger) *Container {
	repo := repository.NewRepository(db)

	auditRepo := auditLogRepo.NewRepository(repo)
	recorder := auditlog.NewRecorder(auditRepo, log)

	referenceRepo := refdata.NewRepository(repo)
	referenceHandler := refdata.NewHandler(referenceRepo)

	warrantyRepo := warranty.NewRepository(repo)
	warrantyService := warranty.NewWarrantyService(warrantyRepo, referenceRepo, recorder, log)

	cachedStats := warranty.NewCachedStatistics(warrantyRepo, statsCacheTTL())
	limiter := ratelimit.NewRateLimiter(defaultRegisterRateLimit, time.Minute)
	warrantyHandler := warranty.NewHandler(warrantyService, warrantyRepo, cachedStats, auditRepo, limiter)

	expirySweeper := sweeper.NewSweeper(warrantyService, sweepSchedule(), log)

	return &Container{
		Repository:       repo,
		Logger:           log,
		AuditRecorder:    recorder,
		WarrantyService:  warrantyService,
		WarrantyHandler:  warrantyHandler,
		ReferenceHandler: referenceHandler,
		Sweeper:          expirySweeper,
	}
}

func statsCacheTTL() time.Duration {
	if raw := os.Getenv("STATS_CACHE_TTL"); raw != "" {
		if ttl, err := time.ParseDuration(raw); err == nil && ttl > 0 {
			return ttl
		}
	}
	return defaultStatsCacheTTL
}

func sweepSchedule() string {
	if schedule := os.Getenv("EXPIRY_SWEEP_SCHEDULE"); schedule != "" {
		return schedule
	}
	return defaultSweepSchedule
}
