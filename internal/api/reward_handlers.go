package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/eduflow/internal/service"
)

func GetStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), currentStore(c).Stats().Get(), nil)
	}
}

func GetMonsters(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := currentStore(c).Stats().Get()
		catalog := service.Catalog(app.Economy(), stats)
		HandleSuccess(c, app.Logger(), catalog, map[string]any{"coins": stats.Coins})
	}
}

func UnlockMonster(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := service.UnlockMonster(currentStore(c).Stats(), app.Economy(), c.Param("id"))
		if err != nil {
			HandleStoreError(c, app.Logger(), err, "Failed to unlock monster")
			return
		}
		HandleSuccess(c, app.Logger(), stats, nil)
	}
}

func GetDashboard(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := currentStore(c).Snapshot()
		HandleSuccess(c, app.Logger(), service.BuildDashboard(snap.Assignments, snap.Stats), nil)
	}
}
