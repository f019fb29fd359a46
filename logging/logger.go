package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log = logrus.New()

// FileConfig enables a rotated log file next to stdout. An empty Path disables it.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func BootstrapLogger(level string, file FileConfig) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.DebugLevel
	}

	Log = &logrus.Logger{
		Out:   os.Stdout,
		Hooks: make(logrus.LevelHooks),
		Formatter: &logrus.TextFormatter{
			DisableColors:    false,
			DisableQuote:     false,
			DisableTimestamp: false,
			FullTimestamp:    true,
		},
		ReportCaller: true,
		Level:        lvl,
		ExitFunc:     os.Exit,
	}

	if file.Path != "" {
		Log.Out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    orDefault(file.MaxSizeMB, 100),
			MaxBackups: orDefault(file.MaxBackups, 3),
			MaxAge:     orDefault(file.MaxAgeDays, 28),
			Compress:   true,
		})
	}

	if err != nil {
		Log.Warnf("unknown log level '%s', falling back to debug", level)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
