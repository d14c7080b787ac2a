package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/service"
)

func GetAssignments(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := currentStore(c)
		list := service.ListAssignments(store.Assignments(), c.Query("status"))
		HandleSuccess(c, app.Logger(), list, map[string]any{"count": len(list)})
	}
}

func GetGroupedAssignments(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := currentStore(c)
		list := service.ListAssignments(store.Assignments(), c.Query("status"))
		groups := service.GroupByCategory(list, store.Categories().ToArray())
		HandleSuccess(c, app.Logger(), groups, nil)
	}
}

func PostAssignment(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.AssignmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateAssignmentRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		a, err := service.CreateAssignment(currentStore(c).Assignments(), &req, app.Now())
		if err != nil {
			HandleStoreError(c, app.Logger(), err, "Failed to save assignment")
			return
		}
		HandleCreated(c, app.Logger(), a)
	}
}

func PatchAssignment(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch service.AssignmentPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		a, err := service.UpdateAssignment(currentStore(c).Assignments(), c.Param("id"), &patch)
		if err != nil {
			HandleStoreError(c, app.Logger(), err, "Failed to update assignment")
			return
		}
		HandleSuccess(c, app.Logger(), a, nil)
	}
}

func CompleteAssignment(app App) gin.HandlerFunc {
	return setStatus(app, internal.StatusCompleted)
}

func RestoreAssignment(app App) gin.HandlerFunc {
	return setStatus(app, internal.StatusPending)
}

func setStatus(app App, status internal.AssignmentStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := service.SetAssignmentStatus(currentStore(c).Assignments(), c.Param("id"), status)
		if err != nil {
			HandleStoreError(c, app.Logger(), err, "Failed to change assignment status")
			return
		}
		HandleSuccess(c, app.Logger(), a, nil)
	}
}

func DeleteAssignment(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := service.DeleteAssignment(currentStore(c).Assignments(), id); err != nil {
			HandleStoreError(c, app.Logger(), err, "Failed to delete assignment")
			return
		}
		HandleSuccess(c, app.Logger(), gin.H{"id": id}, nil)
	}
}
