package utils

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger, initialized once by InitLogger.
var Logger zerolog.Logger

// LogConfig controls zerolog's level and optional file output.
type LogConfig struct {
	Level string // trace, debug, info, warn, error, fatal, panic

	// LogFile is the path to write rotated logs to. Empty means
	// console-only: a one-shot scan shouldn't create a logs/ directory in
	// the caller's working tree unless asked to.
	LogFile string

	MaxSize    int // MB per rotated file
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultLogConfig returns console-only logging at info level.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

// InitLogger sets up the global Logger from config.
func InitLogger(config LogConfig) error {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	var w io.Writer = consoleWriter
	if config.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.LogFile), 0755); err != nil {
			return err
		}
		fileWriter := &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}
		w = io.MultiWriter(consoleWriter, fileWriter)
	}

	Logger = zerolog.New(w).With().Timestamp().Logger()
	log.Logger = Logger

	return nil
}

func Info(msg string)  { Logger.Info().Msg(msg) }
func Infof(format string, args ...interface{})  { Logger.Info().Msgf(format, args...) }
func Warn(msg string)  { Logger.Warn().Msg(msg) }
func Warnf(format string, args ...interface{})  { Logger.Warn().Msgf(format, args...) }
func Debug(msg string) { Logger.Debug().Msg(msg) }
func Debugf(format string, args ...interface{}) { Logger.Debug().Msgf(format, args...) }
func Error(err error, msg string)               { Logger.Error().Err(err).Msg(msg) }
func Errorf(format string, args ...interface{}) { Logger.Error().Msgf(format, args...) }
func Fatal(err error, msg string)               { Logger.Fatal().Err(err).Msg(msg) }
