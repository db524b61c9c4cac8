package app

import (
	"strings"

	"github.com/strivetech/saiplatform/pkg/logger"
)

// ConfigureLogging initialises the global logger, defaulting to info level JSON output.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	encoding := strings.ToLower(strings.TrimSpace(cfg.LogEncoding))
	if encoding == "" {
		encoding = "json"
	}
	return logger.Init(level, encoding)
}
