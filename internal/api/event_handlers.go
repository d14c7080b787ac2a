package api

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/yourname/eduflow/internal/mirror"
	"github.com/yourname/eduflow/internal/service"
)

// GetEvents streams a "change" event carrying the dashboard summary every
// time the caller's mirror changes, starting with the current state.
func GetEvents(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := currentStore(c)
		updates := make(chan service.Dashboard, 1)
		stop := mirror.Watch(store.Notifier(), func() (service.Dashboard, error) {
			snap := store.Snapshot()
			return service.BuildDashboard(snap.Assignments, snap.Stats), nil
		}, func(d service.Dashboard) {
			// keep only the newest summary
			select {
			case <-updates:
			default:
			}
			updates <- d
		}, app.Logger())
		defer stop()

		app.Logger().Infof("[request_id=%s] event stream opened for %s", c.GetString("request_id"), store.UID())
		c.Stream(func(w io.Writer) bool {
			select {
			case d := <-updates:
				c.SSEvent("change", d)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}

func PostSignOut(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		closed := app.Sessions().Close(user.ID)
		HandleSuccess(c, app.Logger(), gin.H{"signedOut": closed}, nil)
	}
}
