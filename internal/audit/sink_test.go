package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"guildlink/internal/models"
	"guildlink/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditRepoStub struct {
	createFn func(context.Context, *models.AuditEvent) error
}

func (s *auditRepoStub) Create(ctx context.Context, e *models.AuditEvent) error {
	return s.createFn(ctx, e)
}

func (s *auditRepoStub) ListByVID(context.Context, int64, int) ([]models.AuditEvent, error) {
	return nil, nil
}

func TestLogSink_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewLogSink(logger)

	m := &models.Member{VID: 5, FirstName: "Tom"}
	sink.Emit(context.Background(), models.NewAuditEvent(models.EventChatException, models.AuditLevelCritical, m,
		map[string]any{"error": "gateway down"}))

	out := buf.String()
	assert.Contains(t, out, `"event":"discord.exception"`)
	assert.Contains(t, out, `"nickname":"Tom - 5"`)
	assert.Contains(t, out, `"error":"gateway down"`)
	assert.Contains(t, out, `"level":"ERROR+4"`)

	buf.Reset()
	sink.Emit(context.Background(), models.AuditEvent{Event: models.EventRolesEmpty, Level: models.AuditLevelWarning, VID: 5})
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestStoreSink_SwallowsErrors(t *testing.T) {
	t.Parallel()

	var stored []string
	ok := NewStoreSink(&auditRepoStub{createFn: func(_ context.Context, e *models.AuditEvent) error {
		stored = append(stored, e.Event)
		return nil
	}})
	failing := NewStoreSink(&auditRepoStub{createFn: func(context.Context, *models.AuditEvent) error {
		return errors.New("db down")
	}})

	assert.NotPanics(t, func() {
		Multi{failing, nil, ok}.Emit(context.Background(), models.AuditEvent{Event: models.EventJoinServer})
	})
	assert.Equal(t, []string{models.EventJoinServer}, stored)
}

func TestPublishSink_NilRedis(t *testing.T) {
	t.Parallel()

	sink := NewPublishSink(notifications.NewNotifier(nil))
	assert.NotPanics(t, func() {
		sink.Emit(context.Background(), models.AuditEvent{Event: models.EventJoinServer})
	})
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := &Recorder{}
	r.Emit(context.Background(), models.AuditEvent{Event: "a"})
	r.Emit(context.Background(), models.AuditEvent{Event: "b", VID: 2})

	assert.Equal(t, []string{"a", "b"}, r.Names())
	ev, ok := r.Find("b")
	require.True(t, ok)
	assert.Equal(t, int64(2), ev.VID)
	_, ok = r.Find("c")
	assert.False(t, ok)
}
