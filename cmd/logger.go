package cmd

import (
	"io"

	"github.com/sirupsen/logrus"

	"tasnim.dev/accessctl/internal/utils"
)

func newLogger(w io.Writer, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: utils.DateTimeSec,
		DisableColors:   true,
	})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
