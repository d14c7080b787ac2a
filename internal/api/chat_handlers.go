package api

import (
	"github.com/gin-gonic/gin"
	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/service"
	"github.com/yourname/eduflow/internal/tutor"
)

// PostChat always answers 200 once the request is valid; tutor failures come
// back as the fallback reply.
func PostChat(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateChatRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		messages := tutor.WithPersona(req.Persona, req.Messages)
		reply := app.Tutor().GenerateResponse(c.Request.Context(), messages)
		HandleSuccess(c, app.Logger(), internal.ChatMessage{Role: internal.RoleAssistant, Content: reply}, nil)
	}
}
