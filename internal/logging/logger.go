package logging

import (
	"fmt"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger used by every part of the forum.
var L = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
	Prefix:          "forum",
})

// SetLevel accepts debug, info, warn or error; anything else means info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		L.SetLevel(clog.DebugLevel)
	case "warn", "warning":
		L.SetLevel(clog.WarnLevel)
	case "error":
		L.SetLevel(clog.ErrorLevel)
	default:
		L.SetLevel(clog.InfoLevel)
	}
}

func Debugf(format string, v ...interface{}) {
	L.Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...interface{}) {
	L.Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	L.Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	L.Error(fmt.Sprintf(format, v...))
}

// Fatalf logs and exits with status 1.
func Fatalf(format string, v ...interface{}) {
	L.Fatal(fmt.Sprintf(format, v...))
}
