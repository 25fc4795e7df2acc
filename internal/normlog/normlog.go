// Package normlog provides structured, per-run event logging for the
// normalization engine, built directly on zerolog. It keeps only an
// in-memory ring buffer of recent events rather than persisting execution
// history anywhere: a run's lasting output is the Report it returns, not a
// log store.
package normlog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Event is one structured occurrence during a Normalize run.
type Event struct {
	Time   time.Time
	Kind   string // "entity.processed", "entity.deferred", "fk.linked", "fk.deferred", "run.halted"
	Entity string
	Fields map[string]any
}

// Logger emits Events both to a zerolog sink and to an in-memory ring
// buffer a caller can inspect after the run completes (e.g. for a
// --verbose CLI flag), without ever touching disk or a database.
type Logger struct {
	zl     zerolog.Logger
	ring   []Event
	cap    int
}

// New returns a Logger writing console-formatted output at level to os.Stderr,
// keeping the most recent ringSize events in memory.
func New(level string, ringSize int) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
	return &Logger{zl: zl, cap: ringSize}
}

// NewJSON returns a Logger writing newline-delimited JSON, for non-TTY
// deployments and log aggregation (the `logging.format: json` setting).
func NewJSON(level string, ringSize int) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
	return &Logger{zl: zl, cap: ringSize}
}

func (l *Logger) record(kind, entity string, fields map[string]any) {
	evt := Event{Time: time.Now(), Kind: kind, Entity: entity, Fields: fields}
	if l.cap > 0 {
		l.ring = append(l.ring, evt)
		if len(l.ring) > l.cap {
			l.ring = l.ring[len(l.ring)-l.cap:]
		}
	}
}

// EntityProcessed logs that an entity's table was fully produced.
func (l *Logger) EntityProcessed(entity string, rowCount int) {
	l.zl.Info().Str("entity", entity).Int("rows", rowCount).Msg("entity processed")
	l.record("entity.processed", entity, map[string]any{"rows": rowCount})
}

// EntityDeferred logs that an entity could not be produced this round.
func (l *Logger) EntityDeferred(entity, reason string) {
	l.zl.Warn().Str("entity", entity).Str("reason", reason).Msg("entity deferred")
	l.record("entity.deferred", entity, map[string]any{"reason": reason})
}

// ForeignKeyLinked logs a successful foreign key resolution.
func (l *Logger) ForeignKeyLinked(entity, remoteEntity string, rowCount int) {
	l.zl.Info().Str("entity", entity).Str("remote_entity", remoteEntity).Int("rows", rowCount).Msg("foreign key linked")
	l.record("fk.linked", entity, map[string]any{"remote_entity": remoteEntity, "rows": rowCount})
}

// ForeignKeyDeferred logs a foreign key resolution that had to wait.
func (l *Logger) ForeignKeyDeferred(entity, remoteEntity, reason string) {
	l.zl.Debug().Str("entity", entity).Str("remote_entity", remoteEntity).Str("reason", reason).Msg("foreign key deferred")
	l.record("fk.deferred", entity, map[string]any{"remote_entity": remoteEntity, "reason": reason})
}

// RunHalted logs that the run stopped before completing every entity.
func (l *Logger) RunHalted(reason string) {
	l.zl.Error().Str("reason", reason).Msg("run halted")
	l.record("run.halted", "", map[string]any{"reason": reason})
}

// Events returns the events currently held in the ring buffer, oldest first.
func (l *Logger) Events() []Event {
	out := make([]Event, len(l.ring))
	copy(out, l.ring)
	return out
}
