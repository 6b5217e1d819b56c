package logger

import "context"

// LoggerContext is a logger that accumulates attributes as work progresses,
// so later log lines carry everything learned so far.
type LoggerContext struct {
	logger *Logger
}

// NewLoggerContext wraps l for incremental enrichment.
func NewLoggerContext(l *Logger) *LoggerContext {
	return &LoggerContext{logger: l}
}

// Add attaches a key/value pair to every subsequent record.
func (lc *LoggerContext) Add(key string, value any) {
	lc.logger = lc.logger.With(key, value)
}

// Logger returns the enriched logger.
func (lc *LoggerContext) Logger() *Logger { return lc.logger }

func (lc *LoggerContext) Debug(ctx context.Context, msg string, args ...any) {
	lc.logger.write(ctx, LevelDebug, 3, msg, args...)
}

func (lc *LoggerContext) Info(ctx context.Context, msg string, args ...any) {
	lc.logger.write(ctx, LevelInfo, 3, msg, args...)
}

func (lc *LoggerContext) Warn(ctx context.Context, msg string, args ...any) {
	lc.logger.write(ctx, LevelWarn, 3, msg, args...)
}

func (lc *LoggerContext) Error(ctx context.Context, msg string, args ...any) {
	lc.logger.write(ctx, LevelError, 3, msg, args...)
}
