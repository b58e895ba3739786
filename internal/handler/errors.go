package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/printmarket/internal/logging"
	"github.com/flicky/printmarket/internal/service"
	"github.com/flicky/printmarket/internal/validation"
	"github.com/flicky/printmarket/pkg/dto"
)

type httpError struct {
	status int
	code   string
}

// errorTable maps service sentinels to responses. The message is the error
// text, which carries the detail the service wrapped around the sentinel.
var errorTable = []struct {
	target error
	httpError
}{
	{service.ErrProductNotFound, httpError{http.StatusNotFound, "NOT_FOUND"}},
	{service.ErrOrderNotFound, httpError{http.StatusNotFound, "NOT_FOUND"}},
	{service.ErrReelNotFound, httpError{http.StatusNotFound, "NOT_FOUND"}},
	{service.ErrNotOwner, httpError{http.StatusUnauthorized, "UNAUTHORIZED"}},
	{service.ErrOrderAccessDenied, httpError{http.StatusUnauthorized, "UNAUTHORIZED"}},
	{service.ErrInvalidCredentials, httpError{http.StatusUnauthorized, "UNAUTHORIZED"}},
	{service.ErrConflict, httpError{http.StatusConflict, "CONFLICT"}},
	{service.ErrUserAlreadyExists, httpError{http.StatusConflict, "USER_EXISTS"}},
	{service.ErrValidation, httpError{http.StatusBadRequest, "VALIDATION_ERROR"}},
	{service.ErrEmptyOrder, httpError{http.StatusBadRequest, "EMPTY_ORDER"}},
	{service.ErrInvalidColor, httpError{http.StatusBadRequest, "INVALID_COLOR"}},
	{service.ErrInvalidStatus, httpError{http.StatusBadRequest, "INVALID_STATUS"}},
	{service.ErrTotalMismatch, httpError{http.StatusUnprocessableEntity, "TOTAL_MISMATCH"}},
	{service.ErrInvalidTransition, httpError{http.StatusUnprocessableEntity, "INVALID_TRANSITION"}},
	{service.ErrInsufficientStock, httpError{http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"}},
	{service.ErrSearchUnavailable, httpError{http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE"}},
}

// respondError writes the mapped response for err. Unmapped errors are logged
// and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			c.JSON(e.status, dto.ErrorResponse{Error: err.Error(), Code: e.code})
			return
		}
	}
	_ = c.Error(err)
	logging.FromContext(c.Request.Context()).Error("request failed", "error", err)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: validation.Message(err), Code: "VALIDATION_ERROR"})
}

func parseIDParam(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid " + what + " ID", Code: "INVALID_ID"})
		return uuid.Nil, false
	}
	return id, true
}

// ifMatchVersion reads an If-Match header holding a version number, with or
// without ETag quotes. Absent or malformed headers yield zero.
func ifMatchVersion(c *gin.Context) int {
	raw := strings.Trim(strings.TrimPrefix(c.GetHeader("If-Match"), "W/"), `"`)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0
	}
	return v
}

func setETag(c *gin.Context, version int) {
	c.Header("ETag", strconv.Quote(strconv.Itoa(version)))
}
