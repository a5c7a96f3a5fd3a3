package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qs-lzh/hotel-management/internal/service"
	"github.com/qs-lzh/hotel-management/internal/service/domain"
)

const (
	callerKey       = "caller"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(requestIDKey, id)
		ctx.Header(requestIDHeader, id)
		ctx.Next()
	}
}

func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		fields := []zap.Field{
			zap.String("request_id", ctx.GetString(requestIDKey)),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", ctx.ClientIP()),
		}
		if caller := currentCaller(ctx); caller.UserID != 0 {
			fields = append(fields, zap.Uint("user_id", caller.UserID))
		}
		if ctx.Writer.Status() >= 500 {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

// Auth resolves the bearer token into an auth.Caller stored on the context.
func Auth(sessions domain.SessionService, logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(ctx, logger, service.ErrUnauthenticated)
			return
		}
		caller, err := sessions.ResolveCaller(ctx.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			writeError(ctx, logger, err)
			return
		}
		ctx.Set(callerKey, caller)
		ctx.Next()
	}
}
