package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yourname/eduflow/internal/response"
)

// RequestIDMiddleware ensures every request has a correlation/request ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Next()
	}
}

// SessionMiddleware opens the authenticated user's mirror store and puts it
// in the context under "store". It must run after the auth middleware.
func SessionMiddleware(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		store, release, err := app.Sessions().Acquire(c.Request.Context(), user.ID)
		if err != nil {
			app.Logger().Errorf("[request_id=%s] failed to open session for %s: %v", c.GetString("request_id"), user.ID, err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.Unavailable("User data is not available"))
			return
		}
		defer release()
		c.Set("store", store)
		c.Next()
	}
}
