package response

import (
	"net/http"

	"github.com/yourname/eduflow/internal"
)

// APIResponse is the envelope every endpoint answers with. Exactly one of
// Data/Meta or Error is set.
type APIResponse struct {
	Data  interface{}        `json:"data,omitempty"`
	Meta  map[string]any     `json:"meta,omitempty"`
	Error *internal.AppError `json:"error,omitempty"`
}

func Success(data interface{}, meta map[string]any) APIResponse {
	return APIResponse{Data: data, Meta: meta}
}

func NewAppError(status int, msg string) APIResponse {
	return APIResponse{Error: internal.NewAppError(status, msg)}
}

func BadRequest(msg string) APIResponse      { return NewAppError(http.StatusBadRequest, msg) }
func Unauthorized(msg string) APIResponse    { return NewAppError(http.StatusUnauthorized, msg) }
func PaymentRequired(msg string) APIResponse { return NewAppError(http.StatusPaymentRequired, msg) }
func NotFound(msg string) APIResponse        { return NewAppError(http.StatusNotFound, msg) }
func Conflict(msg string) APIResponse        { return NewAppError(http.StatusConflict, msg) }
func InternalError(msg string) APIResponse   { return NewAppError(http.StatusInternalServerError, msg) }
func Unavailable(msg string) APIResponse     { return NewAppError(http.StatusServiceUnavailable, msg) }
