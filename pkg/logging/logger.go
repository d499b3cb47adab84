package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New creates a logger writing to w. Unknown levels fall back to info and
// any format other than "json" gives text output.
func New(level, format string, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func LogError(logger *logrus.Logger, msg string, err error) {
	logger.Errorf("%s: %v", msg, err)
}

func LogWarn(logger *logrus.Logger, msg string) {
	logger.Warn(msg)
}

func LogInfo(logger *logrus.Logger, msg string) {
	logger.Info(msg)
}
