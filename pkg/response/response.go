package response

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/pkg/apperror"
	"anoa.com/yamdb/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/codec/json"
	"github.com/rs/zerolog/log"
)

// UserKey is the gin context key holding the authenticated *entity.User.
const UserKey = "user"

// GetUser returns the authenticated user, or nil for anonymous requests.
func GetUser(c *gin.Context) *entity.User {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil
	}
	user, _ := v.(*entity.User)
	return user
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	var validationErr *apperror.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": validationErr.Fields})
		return
	}

	var rateErr *apperror.RateLimitError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", strconv.FormatInt(rateErr.RetryAfter, 10))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rateErr.Message})
		return
	}

	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code >= http.StatusInternalServerError {
		log.Ctx(c.Request.Context()).Error().Err(err).
			Str("path", c.FullPath()).
			Msg("internal error")
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// BindError answers a request whose body or query failed to bind.
func BindError(c *gin.Context, err error) {
	if fields, ok := validator.FieldErrors(err); ok {
		ResponseError(c, &apperror.ValidationError{Fields: fields})
		return
	}
	ResponseError(c, apperror.New(http.StatusBadRequest, "malformed request", err))
}

// DecodeJSON reads the request body into obj without running binding tags,
// so services can check permissions before validating the payload.
func DecodeJSON(c *gin.Context, obj any) bool {
	if c.Request.Body == nil {
		BindError(c, errors.New("empty request body"))
		return false
	}
	if err := json.API.NewDecoder(c.Request.Body).Decode(obj); err != nil {
		BindError(c, err)
		return false
	}
	return true
}

// PathID reads a numeric path parameter. A malformed id answers 404, the
// same as an id that does not exist.
func PathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		ResponseError(c, fmt.Errorf("%w: %s %q", apperror.ErrNotFound, name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

// MethodNotAllowed rejects verbs a route deliberately does not support.
func MethodNotAllowed(c *gin.Context) {
	ResponseError(c, apperror.ErrMethodNotAllowed)
}
