package redis

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live server when CLINIC_TEST_REDIS_URL is set.
func TestRedisBrokerPublishSubscribe(t *testing.T) {
	url := os.Getenv("CLINIC_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CLINIC_TEST_REDIS_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := zerolog.Nop()
	broker, err := NewRedisBroker(ctx, Config{URL: url, PoolSize: 2}, &logger)
	require.NoError(t, err)
	defer broker.Close()

	sub := broker.(*RedisBroker).client.Subscribe(ctx, "clinic.test")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, "clinic.test", map[string]string{"type": "appointment.booked"}))

	select {
	case msg := <-sub.Channel():
		var got map[string]string
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "appointment.booked", got["type"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestNewRedisBrokerRejectsBadURL(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewRedisBroker(context.Background(), Config{URL: "://nope"}, &logger)
	assert.Error(t, err)
}
