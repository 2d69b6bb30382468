package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger структурный логгер поверх zerolog с вызовами в стиле key/value
type Logger struct {
	zl     zerolog.Logger
	closer io.Closer
}

// LoggerOptions параметры создания логгера
type LoggerOptions struct {
	LogPath    string
	LogLevel   string
	Console    io.Writer
	NoColor    bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewLogger создаёт логгер: консоль + файл с ротацией (если указан путь)
func NewLogger(logPath, logLevel string) *Logger {
	return NewLoggerWithOptions(LoggerOptions{
		LogPath:  logPath,
		LogLevel: logLevel,
		Console:  os.Stderr,
	})
}

func NewLoggerWithOptions(opts LoggerOptions) *Logger {
	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil || opts.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		})
	}

	var closer io.Closer
	if opts.LogPath != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.LogPath,
			MaxSize:    defaultInt(opts.MaxSizeMB, 20),
			MaxBackups: defaultInt(opts.MaxBackups, 5),
			MaxAge:     defaultInt(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		writers = append(writers, rotating)
		closer = rotating
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl, closer: closer}
}

// Nop логгер, который ничего не пишет (для тестов)
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With возвращает дочерний логгер с постоянными полями
func (l *Logger) With(fields ...interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger(), closer: l.closer}
}

// ForComponent логгер для подсистемы
func (l *Logger) ForComponent(name string) *Logger {
	return l.With("component", name)
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.zl.Error().Fields(fields).Msg(msg)
}

// Close закрывает файл лога
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
