package middleware

import (
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type healthStatus struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
}

var (
	healthMutex sync.RWMutex
	startTime   = time.Now()
	version     = "1.0.0"

	lastStatus    *healthStatus
	lastCheckedAt time.Time
	cacheDuration = 5 * time.Second
)

func SetVersion(v string) {
	healthMutex.Lock()
	defer healthMutex.Unlock()
	version = v
	lastStatus = nil
}

// HealthCheckHandler reports process and database health. The database ping
// result is cached briefly so probes cannot hammer the pool.
func HealthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		healthMutex.Lock()
		defer healthMutex.Unlock()

		if lastStatus == nil || time.Since(lastCheckedAt) >= cacheDuration {
			status := &healthStatus{
				Status:   "ok",
				Database: "ok",
				Version:  version,
			}
			if err := db.Ping(); err != nil {
				status.Status = "degraded"
				status.Database = "unreachable"
			}
			lastStatus = status
			lastCheckedAt = time.Now()
		}

		lastStatus.LastChecked = lastCheckedAt
		lastStatus.Uptime = time.Since(startTime).String()

		code := http.StatusOK
		if lastStatus.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, lastStatus)
	}
}
