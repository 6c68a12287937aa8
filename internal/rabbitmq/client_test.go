package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoArmGo/Foodgram/internal/logger"
	"github.com/GoArmGo/Foodgram/internal/messaging/payloads"
	"github.com/stretchr/testify/assert"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func TestProcessDelivery(t *testing.T) {
	log := logger.Discard()
	ok := func(context.Context, payloads.MediaCleanupPayload) error { return nil }
	failing := func(context.Context, payloads.MediaCleanupPayload) error { return errors.New("storage down") }

	t.Run("ack on success", func(t *testing.T) {
		ack := &ackRecorder{}
		var got payloads.MediaCleanupPayload
		handler := func(_ context.Context, p payloads.MediaCleanupPayload) error {
			got = p
			return nil
		}

		processDelivery(context.Background(), amqp.Delivery{
			Acknowledger: ack,
			Body:         []byte(`{"key":"recipes/images/a.png","reason":"recipe_deleted"}`),
		}, handler, 0, log)

		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
		assert.Equal(t, "recipes/images/a.png", got.Key)
		assert.Equal(t, "recipe_deleted", got.Reason)
	})

	t.Run("drop malformed message", func(t *testing.T) {
		ack := &ackRecorder{}
		processDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")}, ok, 0, log)

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	})

	t.Run("requeue on first failure", func(t *testing.T) {
		ack := &ackRecorder{}
		processDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(`{"key":"k"}`)}, failing, 0, log)

		assert.True(t, ack.nacked)
		assert.True(t, ack.requeue)
	})

	t.Run("drop after retry", func(t *testing.T) {
		ack := &ackRecorder{}
		processDelivery(context.Background(), amqp.Delivery{
			Acknowledger: ack,
			Redelivered:  true,
			Body:         []byte(`{"key":"k"}`),
		}, failing, time.Hour, log)

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	})

	t.Run("retry delay stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ack := &ackRecorder{}
		start := time.Now()
		processDelivery(ctx, amqp.Delivery{Acknowledger: ack, Body: []byte(`{"key":"k"}`)}, failing, time.Hour, log)

		assert.Less(t, time.Since(start), time.Minute)
		assert.True(t, ack.requeue)
	})
}
