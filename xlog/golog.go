package xlog

import (
	"github.com/kataras/golog"
)

// GologLogger backs Logger with github.com/kataras/golog, giving callers
// colored, levelled console output and the ability to attach additional
// golog handlers (e.g. shipping to a log aggregator) without flowline
// needing to know about them.
type GologLogger struct {
	logger *golog.Logger
}

// NewGologLogger wraps golog's shared package-level logger (golog.Default)
// and sets its level to "info"; that level change applies to every other
// user of golog.Default as well.
func NewGologLogger() *GologLogger {
	l := golog.Default
	l.SetLevel("info")
	return &GologLogger{logger: l}
}

// NewGologLoggerFrom wraps an already-configured golog.Logger, e.g. one with
// application-specific handlers attached.
func NewGologLoggerFrom(l *golog.Logger) *GologLogger {
	return &GologLogger{logger: l}
}

func (g *GologLogger) Debug(format string, args ...any) { g.logger.Debugf(format, args...) }
func (g *GologLogger) Info(format string, args ...any)  { g.logger.Infof(format, args...) }
func (g *GologLogger) Warn(format string, args ...any)  { g.logger.Warnf(format, args...) }
func (g *GologLogger) Error(format string, args ...any) { g.logger.Errorf(format, args...) }

// SetLevel changes golog's minimum level. Accepted values are golog's own
// level names: "debug", "info", "warn", "error", "fatal", "disable".
func (g *GologLogger) SetLevel(level string) { g.logger.SetLevel(level) }

var _ Logger = (*GologLogger)(nil)
