package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs-lzh/hotel-management/internal/auth"
	"github.com/qs-lzh/hotel-management/internal/service"
)

type errorKind struct {
	status int
	name   string
}

var errorKinds = map[error]errorKind{
	service.ErrNotFound:        {http.StatusNotFound, "not_found"},
	service.ErrForbidden:       {http.StatusForbidden, "forbidden"},
	service.ErrUnauthenticated: {http.StatusUnauthorized, "unauthenticated"},
	service.ErrConflict:        {http.StatusConflict, "conflict"},
	service.ErrInvalidInput:    {http.StatusBadRequest, "invalid_input"},
}

// writeError is the one place service errors become HTTP responses.
func writeError(ctx *gin.Context, logger *zap.Logger, err error) {
	kind, ok := errorKinds[service.Kind(err)]
	if !ok {
		logger.Error("request failed",
			zap.String("request_id", ctx.GetString(requestIDKey)),
			zap.String("path", ctx.FullPath()),
			zap.Error(err))
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal",
			"message": "Internal server error, please try again later",
		})
		return
	}
	ctx.AbortWithStatusJSON(kind.status, gin.H{
		"error":   kind.name,
		"message": err.Error(),
	})
}

func writeBindError(ctx *gin.Context, err error) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_input",
		"message": "Invalid request format",
		"detail":  err.Error(),
	})
}

var errBadID = errors.New("id must be a positive integer")

func parseUint(raw string) (uint, error) {
	n, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || n == 0 {
		return 0, errBadID
	}
	return uint(n), nil
}

// pathID reads the :id parameter, answering 400 itself when it is malformed.
func pathID(ctx *gin.Context) (uint, bool) {
	id, err := parseUint(ctx.Param("id"))
	if err != nil {
		writeBindError(ctx, err)
		return 0, false
	}
	return id, true
}

// optionalUint reads a query parameter, zero when absent.
func optionalUint(ctx *gin.Context, key string) (uint, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return 0, nil
	}
	id, err := parseUint(raw)
	if err != nil {
		return 0, service.Invalid("%s must be a positive integer", key)
	}
	return id, nil
}

func currentCaller(ctx *gin.Context) auth.Caller {
	caller, _ := ctx.Get(callerKey)
	c, _ := caller.(auth.Caller)
	return c
}
