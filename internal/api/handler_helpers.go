package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/mirror"
	"github.com/yourname/eduflow/internal/response"
	"github.com/yourname/eduflow/internal/service"
)

func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	var resp response.APIResponse
	switch status {
	case 400:
		resp = response.BadRequest(msg + ": " + err.Error())
	case 404:
		resp = response.NotFound(msg + ": " + err.Error())
	case 402:
		resp = response.PaymentRequired(msg + ": " + err.Error())
	case 409:
		resp = response.Conflict(msg + ": " + err.Error())
	case 500:
		resp = response.InternalError(msg + ": " + err.Error())
	case 503:
		resp = response.Unavailable(msg + ": " + err.Error())
	default:
		resp = response.NewAppError(status, msg+": "+err.Error())
	}
	c.JSON(status, resp)
}

// HandleStoreError maps service and mirror errors onto HTTP statuses.
func HandleStoreError(c *gin.Context, logger internal.Logger, err error, msg string) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		HandleError(c, logger, err, http.StatusBadRequest, msg)
	case errors.Is(err, service.ErrNotFound):
		HandleError(c, logger, err, http.StatusNotFound, msg)
	case errors.Is(err, service.ErrCategoryExists):
		HandleError(c, logger, err, http.StatusConflict, msg)
	case errors.Is(err, service.ErrUnknownMonster):
		HandleError(c, logger, err, http.StatusNotFound, msg)
	case errors.Is(err, service.ErrUnlockRefused):
		HandleError(c, logger, err, http.StatusPaymentRequired, msg)
	case errors.Is(err, mirror.ErrMissingID), errors.Is(err, mirror.ErrNegativeCoins), errors.Is(err, mirror.ErrInvalidStreak):
		HandleError(c, logger, err, http.StatusBadRequest, msg)
	case errors.Is(err, mirror.ErrSignedOut), errors.Is(err, mirror.ErrNotLoaded), errors.Is(err, mirror.ErrDisposed):
		HandleError(c, logger, err, http.StatusServiceUnavailable, msg)
	default:
		HandleError(c, logger, err, http.StatusInternalServerError, msg)
	}
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Success", requestID)
	c.JSON(200, response.Success(data, meta))
}

func HandleCreated(c *gin.Context, logger internal.Logger, data interface{}) {
	requestID := c.GetString("request_id")
	logger.Infof("[request_id=%s] Created", requestID)
	c.JSON(201, response.Success(data, nil))
}

func currentUser(c *gin.Context) *internal.User {
	return c.MustGet("user").(*internal.User)
}

func currentStore(c *gin.Context) *mirror.Store {
	return c.MustGet("store").(*mirror.Store)
}
