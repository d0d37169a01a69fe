// Package envconfig reads the NESTDROP_* environment variables that set defaults for the
// nestdrop command. Flags given on the command line take precedence.
package envconfig

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/sharnoff/nestdrop/logutil"
)

// Var returns an environment variable stripped of leading and trailing quotes and spaces
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// LogLevel returns the log level set by NESTDROP_DEBUG. A true value gives debug logging; an
// integer n gives slog.Level(-4n), so NESTDROP_DEBUG=2 enables trace logging.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("NESTDROP_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Int returns a function that reads an integer with a default value. Invalid values are logged
// and ignored.
func Int(key string, defaultValue int) func() int {
	return func() int {
		if s := Var(key); s != "" {
			if n, err := strconv.Atoi(s); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

var (
	// Seed seeds every random draw made by the command. Set with NESTDROP_SEED.
	Seed = Int("NESTDROP_SEED", 1)

	// Workers is the number of budgets evaluated at once by a sweep. Set with NESTDROP_WORKERS.
	Workers = Int("NESTDROP_WORKERS", runtime.GOMAXPROCS(0))
)

// Trace reports whether NESTDROP_DEBUG enables trace logging
func Trace() bool {
	return LogLevel() <= logutil.LevelTrace
}

// EnvVar is an environment variable along with its current value
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every environment variable read by this package
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"NESTDROP_DEBUG":   {"NESTDROP_DEBUG", LogLevel(), "Show additional debug information (e.g. NESTDROP_DEBUG=1)"},
		"NESTDROP_SEED":    {"NESTDROP_SEED", Seed(), "Seed for every random draw (default 1)"},
		"NESTDROP_WORKERS": {"NESTDROP_WORKERS", Workers(), "Number of budgets to evaluate at once during a sweep"},
	}
}
