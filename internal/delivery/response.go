package delivery

import (
	"errors"
	"net/http"

	"shop_service/internal/domain"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  string `json:"Status"`
	Message string `json:"Message"`
	Data    any    `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// failWith writes err with its mapped status. Internal errors are not echoed
// to the client.
func failWith(c *gin.Context, prefix string, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		ErrorResponse(c, status, prefix+": internal error")
		return
	}
	ErrorResponse(c, status, prefix+": "+err.Error())
}
