package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// SetLogLevel sets the level of Log. Trace and panic levels are not exposed.
func SetLogLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "info", "":
		Log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	case "fatal":
		Log.SetLevel(logrus.FatalLevel)
	default:
		return fmt.Errorf("bad log level %q (available: debug, info, warn, error, fatal)", level)
	}
	return nil
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidTableName reports whether name is safe to interpolate as a SQL or REST table name.
func ValidTableName(name string) bool {
	return tableNameRe.MatchString(name)
}
