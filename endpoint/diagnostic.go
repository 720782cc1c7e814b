package endpoint

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"prescription-ai/config"
	"prescription-ai/middleware"
	"prescription-ai/model"
	"prescription-ai/util"
)

var started = time.Now()

// Home godoc
// @Summary      Service liveness
// @Description  Report that the API is up, with uptime and cache counters
// @Tags         Diagnostic
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "API is running"
// @Router       / [get]
func Home(c *gin.Context) {
	cfg, err := config.LoadConfig()
	appName, appEnv := "", ""
	if err == nil {
		appName, appEnv = cfg.AppName, cfg.AppEnv
	}

	hits, misses, size := util.GetGeoIPCacheMetrics()

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "API is running!",
		Data: map[string]interface{}{
			"app":            appName,
			"env":            appEnv,
			"uptime_seconds": int64(time.Since(started).Seconds()),
			"geoip_cache": map[string]interface{}{
				"hits":   hits,
				"misses": misses,
				"size":   size,
			},
		},
	})
}

// TestDB godoc
// @Summary      Database connectivity check
// @Description  Ping the database and report which schema objects are present
// @Tags         Diagnostic
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Connected"
// @Failure      500 {object} util.APIResponse "Database unreachable"
// @Router       /test-db [get]
func TestDB(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to access database handle",
			Err: err,
		})
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database ping failed",
			Err: err,
		})
		return
	}

	migrator := db.Migrator()
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: fmt.Sprintf("Connected to database: %s", migrator.CurrentDatabase()),
		Data: map[string]interface{}{
			"database": migrator.CurrentDatabase(),
			"tables": map[string]bool{
				"patients":      migrator.HasTable(&model.Patient{}),
				"prescriptions": migrator.HasTable(&model.Prescription{}),
			},
		},
	})
}
