package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: DEFSINDEX_[SECTION]_[KEY] (e.g., DEFSINDEX_PLACEMENT_THRESHOLD).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Index.File, "DEFSINDEX_INDEX_FILE")
	setEnvInt(&cfg.Index.MinDescription, "DEFSINDEX_INDEX_MIN_DESCRIPTION")
	setEnvFloat64(&cfg.Placement.Threshold, "DEFSINDEX_PLACEMENT_THRESHOLD")
	setEnvFloat64(&cfg.Placement.KeywordCap, "DEFSINDEX_PLACEMENT_KEYWORD_CAP")
	setEnvDuration(&cfg.Watch.Debounce, "DEFSINDEX_WATCH_DEBOUNCE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			slog.Warn("ignoring env override", "key", key, "error", err)
			return
		}
		*target = n
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			slog.Warn("ignoring env override", "key", key, "error", err)
			return
		}
		*target = f
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			slog.Warn("ignoring env override", "key", key, "error", err)
			return
		}
		*target = d
	}
}
