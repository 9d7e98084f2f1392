package transport_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/beacon/pkg/transport"
)

func TestConnectFailureMessages(t *testing.T) {
	t.Parallel()

	notRunning := &transport.ConnectFailure{Target: "Directory", Err: transport.ErrNotFound}
	assert.Equal(t, "Directory is not running", notRunning.Error())
	assert.True(t, notRunning.NotFound())
	assert.True(t, transport.IsNotFound(notRunning))

	rejected := &transport.ConnectFailure{Target: "Clock", Err: errors.Join(transport.ErrRejected, errors.New("closed"))}
	assert.Contains(t, rejected.Error(), "Clock rejected the connection")
	assert.False(t, rejected.NotFound())

	unreachable := &transport.ConnectFailure{Target: "10.0.0.1:1099", Err: transport.ErrUnreachable}
	assert.Contains(t, unreachable.Error(), "unreachable")

	var wrapped error = errors.Join(errors.New("bind"), rejected)
	assert.True(t, transport.IsConnectFailure(wrapped))
	assert.ErrorIs(t, wrapped, transport.ErrRejected)
}

func TestRegistrationAndDeliveryFailure(t *testing.T) {
	t.Parallel()

	rf := &transport.RegistrationFailure{Source: "Clock", Err: transport.ErrClosed}
	assert.ErrorIs(t, rf, transport.ErrClosed)
	assert.Contains(t, rf.Error(), "Clock")

	id := uuid.New()
	df := &transport.DeliveryFailure{Source: "Clock", SubscriberID: id, Err: transport.ErrUnreachable}
	assert.ErrorIs(t, df, transport.ErrUnreachable)
	assert.Contains(t, df.Error(), id.String())
	assert.False(t, transport.IsConnectFailure(df))
}
