package handler

import (
	"context"
	"net/http"
	"time"

	"assettracker/internal/infra"
	"assettracker/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity and reports the SMTP breaker state;
// never exposes credentials or internals. An open breaker does not fail
// the check: uploads still work without mail.
func Health(db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
			"smtp":  "disabled",
		}
		if mailer.Enabled() {
			body["smtp"] = mailer.State()
		}
		if redisStatus == "connected" {
			if n, err := worker.DeadLetterDepth(ctx, rdb, worker.QueueLowStock); err == nil {
				body["dead_letters"] = n
			}
		}
		c.JSON(status, body)
	}
}
