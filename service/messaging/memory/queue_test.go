package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	InstanceID string
	StepName   string
}

func TestQueue(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[testEvent](config)

	ctx := context.Background()
	payload := testEvent{InstanceID: "i1", StepName: "notify applicant"}

	err := queue.Publish(ctx, &payload)
	assert.NoError(t, err)
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.Equal(t, 0, queue.Size())
	assert.EqualValues(t, &payload, message.T())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack(), "double ack")
}

func TestQueueRetriesToDeadLetter(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 1
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[testEvent](config)

	ctx := context.Background()
	err := queue.Publish(ctx, &testEvent{InstanceID: "i1"})
	assert.NoError(t, err)

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(nil))

	time.Sleep(20 * time.Millisecond)

	// retried copy
	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(nil))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueueContextCancellation(t *testing.T) {
	queue := NewQueue[testEvent](DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := queue.Publish(ctx, &testEvent{InstanceID: "i1"})
	assert.Error(t, err)

	timeoutCtx, cancelTimeout := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancelTimeout()
	_, err = queue.Consume(timeoutCtx)
	assert.Error(t, err)
}
