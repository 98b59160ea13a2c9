package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

func Get(name, def string, log *logger.Logger) string {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		if log != nil {
			log.Debug("env var not set, using default", "env_var", name, "default", def)
		}
		return def
	}
	return strings.TrimSpace(v)
}

func Int(name string, def int, log *logger.Logger) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Debug("env var not an int, using default", "env_var", name, "value", v, "default", def)
		}
		return def
	}
	return i
}

func Bool(name string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func Duration(name string, def time.Duration, log *logger.Logger) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		if log != nil {
			log.Debug("env var not a duration, using default", "env_var", name, "value", v, "default", def.String())
		}
		return def
	}
	return d
}
