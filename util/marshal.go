package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// ParseLogLevel maps a level name to a LogLevel, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return "info"
	}
}

func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

const logLevelErrMsg = "log_level must be a string (debug/info/warn/error) or integer (0-3)"

func levelFromInt(i int) (LogLevel, error) {
	if i < int(LogLevelDebug) || i > int(LogLevelError) {
		return LogLevelInfo, fmt.Errorf("%s, got %d", logLevelErrMsg, i)
	}
	return LogLevel(i), nil
}

func (l *LogLevel) set(s string) error {
	if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		lvl, err := levelFromInt(i)
		if err != nil {
			return err
		}
		*l = lvl
		return nil
	}
	*l = ParseLogLevel(s)
	return nil
}

// UnmarshalYAML implements custom YAML unmarshaling for LogLevel
func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.New(logLevelErrMsg)
	}
	return l.set(value.Value)
}

// UnmarshalJSON implements custom JSON unmarshaling for LogLevel
func (l *LogLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return l.set(s)
	}

	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return errors.New(logLevelErrMsg)
	}
	lvl, err := levelFromInt(i)
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

// Duration decodes Go duration strings ("1m30s") and bare numbers, which
// are read as seconds like the environment overrides.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.set(s)
	}

	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil || secs < 0 {
		return fmt.Errorf("duration must be a string like \"30s\" or a non-negative number of seconds: %s", data)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.New("duration must be a scalar")
	}
	return d.set(value.Value)
}

func (d *Duration) set(s string) error {
	s = strings.TrimSpace(s)
	if parsed := ParseDuration(s, -1); parsed >= 0 {
		*d = Duration(parsed)
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil && secs >= 0 {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	return fmt.Errorf("invalid duration %q", s)
}
