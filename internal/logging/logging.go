// Package logging provides structured logger construction shared by the
// CLI, the pipeline, and the API server.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields is an alias to keep call sites free of a direct logrus import.
type Fields = logrus.Fields

// New creates a logger tagged with the component name. Format is "json" or
// "text"; level falls back to info when unparseable.
func New(component, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	logger.AddHook(&componentHook{component: component})
	return logger
}

// componentHook stamps every entry with the emitting component.
type componentHook struct {
	component string
}

func (h *componentHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *componentHook) Fire(e *logrus.Entry) error {
	e.Data["component"] = h.component
	return nil
}
