// Package audit fans workflow events out to the log, the database and Redis subscribers.
package audit

import (
	"context"
	"log/slog"
	"sync"

	"guildlink/internal/middleware"
	"guildlink/internal/models"
	"guildlink/internal/notifications"
	"guildlink/internal/repository"
)

// Sink receives audit events. Emit never fails; sinks log and drop their own errors.
type Sink interface {
	Emit(ctx context.Context, event models.AuditEvent)
}

// LogSink writes events to a structured logger at the event's level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a LogSink; a nil logger uses middleware.Logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = middleware.Logger
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, event models.AuditEvent) {
	attrs := []slog.Attr{
		slog.String("event", event.Event),
		slog.Int64("user", event.VID),
	}
	if event.Nickname != "" {
		attrs = append(attrs, slog.String("nickname", event.Nickname))
	}
	for k, v := range event.Fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.LogAttrs(ctx, levelOf(event.Level), "audit", attrs...)
}

func levelOf(l models.AuditLevel) slog.Level {
	switch l {
	case models.AuditLevelWarning:
		return slog.LevelWarn
	case models.AuditLevelCritical:
		return middleware.LevelCritical
	default:
		return slog.LevelInfo
	}
}

// StoreSink persists events.
type StoreSink struct {
	repo repository.AuditEventRepository
}

func NewStoreSink(repo repository.AuditEventRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Emit(ctx context.Context, event models.AuditEvent) {
	if err := s.repo.Create(ctx, &event); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to persist audit event",
			slog.String("event", event.Event),
			slog.String("error", err.Error()),
		)
	}
}

// PublishSink forwards events to Redis subscribers.
type PublishSink struct {
	notifier *notifications.Notifier
}

func NewPublishSink(n *notifications.Notifier) *PublishSink {
	return &PublishSink{notifier: n}
}

func (s *PublishSink) Emit(ctx context.Context, event models.AuditEvent) {
	if err := s.notifier.PublishAudit(ctx, event); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish audit event",
			slog.String("event", event.Event),
			slog.String("error", err.Error()),
		)
	}
}

// Multi emits to every sink in order. Nil sinks are skipped.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, event models.AuditEvent) {
	for _, s := range m {
		if s == nil {
			continue
		}
		s.Emit(ctx, event)
	}
}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (r *Recorder) Emit(_ context.Context, event models.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []models.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AuditEvent(nil), r.events...)
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event)
	}
	return out
}

// Find returns the first recorded event with the given name.
func (r *Recorder) Find(name string) (models.AuditEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Event == name {
			return e, true
		}
	}
	return models.AuditEvent{}, false
}
