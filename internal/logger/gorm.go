package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's SQL logging through the context logger.
type GormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger creates a gorm logger for the given level name (silent, error, warn, info).
func NewGormLogger(level string) *GormLogger {
	return &GormLogger{
		level:         parseGormLevel(level),
		slowThreshold: 500 * time.Millisecond,
	}
}

func parseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// LogMode implements gormlogger.Interface.
func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface.
func (g *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Info {
		FromContext(ctx).WithField(FieldComponent, "gorm").Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface.
func (g *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Warn {
		FromContext(ctx).WithField(FieldComponent, "gorm").Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface.
func (g *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Error {
		FromContext(ctx).WithField(FieldComponent, "gorm").Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface. Record-not-found is not an error here.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	log := func() *Logger {
		sql, rows := fc()
		return FromContext(ctx).WithFields(Fields{
			FieldComponent:  "gorm",
			FieldDurationMs: elapsed.Milliseconds(),
			"rows":          rows,
			"sql":           sql,
		})
	}

	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		log().WithError(err).Error("Query failed")
	case elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		log().Warn("Slow query")
	case g.level >= gormlogger.Info:
		log().Debug("Query executed")
	}
}
