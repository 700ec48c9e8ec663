package logs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar   *zap.SugaredLogger
	logFile *os.File
	verbose bool
)

// SetVerbose enables or disables verbose logging. Must be called before InitLogger.
func SetVerbose(v bool) {
	verbose = v
}

// InitLogger sets up the zap logger. Logs are written to a file in the state
// directory and mirrored to stderr when verbose mode is enabled.
func InitLogger() error {
	level := zapcore.InfoLevel
	if lvl := os.Getenv("RYU_LOG_LEVEL"); lvl != "" {
		switch strings.ToLower(lvl) {
		case "debug":
			level = zapcore.DebugLevel
		case "info":
			level = zapcore.InfoLevel
		case "warn", "warning":
			level = zapcore.WarnLevel
		case "error":
			level = zapcore.ErrorLevel
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	xdg := os.Getenv("XDG_STATE_HOME")
	if xdg == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "failed to get user home directory")
		}
		xdg = filepath.Join(home, ".local", "state")
	}
	logDir := filepath.Join(xdg, "ryu", "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create log directory")
	}

	var err error
	logFile, err = os.OpenFile(filepath.Join(logDir, "ryu.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open log file")
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	atomic := zap.NewAtomicLevelAt(level)
	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.AddSync(logFile), atomic),
	}
	if verbose {
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), atomic))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	sugar = logger.Sugar()
	Debug("logger initialized: level=%s verbose=%v", level, verbose)
	return nil
}

func Debug(format string, v ...interface{}) {
	if sugar != nil {
		sugar.Debugf(format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if sugar != nil {
		sugar.Infof(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if sugar != nil {
		sugar.Warnf(format, v...)
	}
}

func Error(format string, v ...interface{}) {
	if sugar != nil {
		sugar.Errorf(format, v...)
	}
}

// Close flushes and closes the log file.
func Close() {
	if sugar != nil {
		_ = sugar.Sync()
	}
	if logFile != nil {
		_ = logFile.Close()
	}
}
