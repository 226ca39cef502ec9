package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/simple_mysql_go/internal/config"
)

const timeFormat = "2006-01-02 15:04:05"

// Apply sets the global log level and output writers (console, plus a
// rotating file when cfg.File is set).
func Apply(cfg config.Log) {
	applyLevel(cfg.Level)
	log.Logger = zerolog.New(writer(cfg, os.Stdout)).With().Timestamp().Logger()
}

// LevelFromVerbosity maps a -v count onto a level name understood by Apply.
// An empty string means "keep the configured level".
func LevelFromVerbosity(verbosity int) string {
	switch {
	case verbosity <= 0:
		return ""
	case verbosity == 1:
		return "debug"
	default:
		return "trace"
	}
}

func applyLevel(level string) {
	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func writer(cfg config.Log, console io.Writer) io.Writer {
	consoleOutput := zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}
	if cfg.File == "" {
		return consoleOutput
	}

	if err := ensureLogDir(cfg.File); err != nil {
		log.Error().Err(err).Str("path", cfg.File).Msg("Failed to prepare log directory; logging to console only")
		return consoleOutput
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	fileConsole := zerolog.ConsoleWriter{
		Out:        fileWriter,
		TimeFormat: timeFormat,
		NoColor:    true,
	}
	return zerolog.MultiLevelWriter(consoleOutput, fileConsole)
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
