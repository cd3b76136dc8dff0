package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/hoyoauth/core/logger"
)

func TestError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil), "nil error yields an empty attr")

	attr := logger.Error(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "boom", attr.Value.Any().(error).Error())
}

func TestEmptyAttrForZeroValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.SessionID(""))
	assert.Equal(t, slog.Attr{}, logger.RequestID(""))
	assert.Equal(t, slog.Attr{}, logger.Stage(""))
	assert.Equal(t, slog.Attr{}, logger.Status(""))
}

func TestStringAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.String("session_id", "sess-1"), logger.SessionID("sess-1"))
	assert.Equal(t, slog.String("request_id", "req-1"), logger.RequestID("req-1"))
	assert.Equal(t, slog.String("stage", "captcha"), logger.Stage("captcha"))
	assert.Equal(t, slog.String("status", "pending"), logger.Status("pending"))
	assert.Equal(t, slog.String("event", "on_success"), logger.Event("on_success"))
	assert.Equal(t, slog.String("component", "store"), logger.Component("store"))
}

func TestNumericAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Duration("duration", time.Second), logger.Duration(time.Second))
	assert.Equal(t, slog.Int("sessions", 3), logger.Count("sessions", 3))

	elapsed := logger.Elapsed(time.Now().Add(-time.Minute))
	assert.Equal(t, "elapsed", elapsed.Key)
	assert.GreaterOrEqual(t, elapsed.Value.Duration(), time.Minute)
}
