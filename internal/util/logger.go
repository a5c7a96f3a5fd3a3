package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const EnvDevelopment = "development"

func NewLogger(env string) (*zap.Logger, error) {
	if env == EnvDevelopment {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}
