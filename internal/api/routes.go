package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/eduflow/internal/auth"
)

// RegisterRoutes mounts the authenticated API under /api.
func RegisterRoutes(r *gin.Engine, app App, provider auth.Provider) {
	r.GET("/healthz", func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), gin.H{"status": "ok"}, nil)
	})

	api := r.Group("/api", auth.AuthMiddleware(provider))
	api.POST("/session/signout", PostSignOut(app))
	api.POST("/chat", PostChat(app))

	data := api.Group("", SessionMiddleware(app))
	data.GET("/assignments", GetAssignments(app))
	data.GET("/assignments/grouped", GetGroupedAssignments(app))
	data.POST("/assignments", PostAssignment(app))
	data.PATCH("/assignments/:id", PatchAssignment(app))
	data.POST("/assignments/:id/complete", CompleteAssignment(app))
	data.POST("/assignments/:id/restore", RestoreAssignment(app))
	data.DELETE("/assignments/:id", DeleteAssignment(app))

	data.GET("/categories", GetCategories(app))
	data.POST("/categories", PostCategory(app))
	data.DELETE("/categories/:id", DeleteCategory(app))

	data.GET("/stats", GetStats(app))
	data.GET("/monsters", GetMonsters(app))
	data.POST("/monsters/:id/unlock", UnlockMonster(app))
	data.GET("/dashboard", GetDashboard(app))
	data.GET("/events", GetEvents(app))
}
