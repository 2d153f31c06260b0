package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/earthnet/frame-survey/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError uses the status and code carried by err, falling back to
// 500 for plain errors.
func RespondAPIError(c *gin.Context, err error) {
	status, code := apierr.StatusOf(err, http.StatusInternalServerError)
	if status >= 500 {
		RespondError(c, status, "internal", err)
		return
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
