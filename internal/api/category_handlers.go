package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/eduflow/internal/service"
)

func GetCategories(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), currentStore(c).Categories().ToArray(), nil)
	}
}

func PostCategory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		cat, err := service.CreateCategory(currentStore(c).Categories(), &req)
		if err != nil {
			HandleStoreError(c, app.Logger(), err, "Failed to save category")
			return
		}
		HandleCreated(c, app.Logger(), cat)
	}
}

func DeleteCategory(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := service.DeleteCategory(currentStore(c).Categories(), id); err != nil {
			HandleStoreError(c, app.Logger(), err, "Failed to delete category")
			return
		}
		HandleSuccess(c, app.Logger(), gin.H{"id": id}, nil)
	}
}
