// Package log holds the process-wide zap logger. Logs go to stderr so
// that stdout carries only benchmark results.
package log

import (
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *zap.Logger

func init() {
	logger = newLogger(zapcore.AddSync(os.Stderr), false)
}

// Logger returns the current logger.
func Logger() *zap.Logger {
	return logger
}

// AddFlags registers the log flags on flagSet.
func AddFlags(flagSet *pflag.FlagSet) {
	flagSet.Bool("debug", false, "enable debug logging")
	flagSet.String("log-path", "", "path of log file")
	flagSet.Int("log-max-size", 100, "maximum size in megabytes of the log file")
	flagSet.Int("log-max-age", 0, "maximum number of days to retain old log files")
	flagSet.Int("log-max-backups", 0, "maximum number of old log files to retain")
}

// SetLogger rebuilds the logger from the flags registered by AddFlags.
func SetLogger(flagSet *pflag.FlagSet) {
	debug, _ := flagSet.GetBool("debug")

	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	if flagSet.Changed("log-path") {
		path, _ := flagSet.GetString("log-path")
		maxSize, _ := flagSet.GetInt("log-max-size")
		maxAge, _ := flagSet.GetInt("log-max-age")
		maxBackups, _ := flagSet.GetInt("log-max-backups")
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     maxAge,
			Compress:   false,
		}))
	}

	logger = newLogger(zap.CombineWriteSyncers(writers...), debug)
}

func setOutput(w zapcore.WriteSyncer, debug bool) {
	logger = newLogger(w, debug)
}

func newLogger(w zapcore.WriteSyncer, debug bool) *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.999999")

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), w, level))
}
