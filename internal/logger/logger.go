package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/habitlit/internal/constants"
)

// Logger is nil until Init; the package functions are no-ops until then.
var Logger *log.Logger

type Config struct {
	Debug     bool
	ConfigDir string
	// Output, when set, replaces the rotating log file. Used by tests.
	Output io.Writer
}

// Init writes warnings and above to a rotating file under ConfigDir/logs.
// Debug lowers the level and mirrors output to stderr.
func Init(cfg Config) error {
	var fileWriter io.Writer = cfg.Output
	if fileWriter == nil {
		logDir := filepath.Join(cfg.ConfigDir, "logs")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}

		fileWriter = &lumberjack.Logger{
			Filename:   filepath.Join(logDir, constants.AppName+".log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}

	level := log.WarnLevel
	if cfg.Debug {
		level = log.DebugLevel
	}

	// Stderr only joins the file in debug mode; the CLI stays quiet otherwise.
	writer := fileWriter
	if cfg.Debug {
		writer = io.MultiWriter(os.Stderr, fileWriter)
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})

	return nil
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn is used for recoverable storage and backup problems; the command
// still succeeds.
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// With returns a sub-logger for a long-running component, such as a storage
// watcher, prefixed "habitlit/<component>". It is nil before Init.
func With(component string) *log.Logger {
	if Logger == nil {
		return nil
	}
	return Logger.WithPrefix(constants.AppName + "/" + component)
}
