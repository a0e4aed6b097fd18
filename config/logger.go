package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NewLogger builds the process logger. Level names follow the LOG_LEVEL
// convention of the deployment scripts, so WARNING and CRITICAL are accepted
// alongside zap's own names.
func NewLogger(level string, development bool) (*zap.Logger, error) {
	lvl := strings.ToLower(strings.TrimSpace(level))
	switch lvl {
	case "":
		lvl = "info"
	case "warning":
		lvl = "warn"
	case "critical":
		lvl = "fatal"
	}

	atomic, err := zap.ParseAtomicLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = atomic
	return cfg.Build()
}
