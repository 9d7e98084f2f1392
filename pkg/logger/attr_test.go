package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beacon/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("delivery", slog.String("source", "Clock"), slog.Int("n", 2))
	require.Equal(t, "delivery", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "source", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestSubscriberID(t *testing.T) {
	id := uuid.New()
	attr := logger.SubscriberID(id)
	require.Equal(t, "subscriber_id", attr.Key)
	assert.Equal(t, id.String(), attr.Value.String())

	assert.True(t, logger.SubscriberID(nil).Equal(slog.Attr{}))
}

func TestFabricAttrs(t *testing.T) {
	assert.Equal(t, "source", logger.Source("Clock").Key)
	assert.Equal(t, "origin", logger.Origin("Clock").Key)
	assert.Equal(t, "address", logger.Address("mem://x").Key)
	assert.Equal(t, int64(3), logger.QueueLen(3).Value.Int64())
	assert.True(t, logger.Peer("").Equal(slog.Attr{}))
	assert.Equal(t, "127.0.0.1:1234", logger.Peer("127.0.0.1:1234").Value.String())
}
