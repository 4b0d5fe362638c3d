package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PeteE/elasticmq/models"
)

func intPtr(v int) *int       { return &v }
func int32Ptr(v int32) *int32 { return &v }

func sendBody(t *testing.T, s *MemoryStore, queue, body string) *models.SendMessageResponse {
	t.Helper()
	resp, err := s.SendMessage(context.Background(), queue, &models.SendMessageRequest{MessageBody: body})
	require.NoError(t, err)
	return resp
}

func receiveAll(t *testing.T, s *MemoryStore, queue string, max int) []models.ResponseMessage {
	t.Helper()
	resp, err := s.ReceiveMessage(context.Background(), queue, &models.ReceiveMessageRequest{MaxNumberOfMessages: intPtr(max)})
	require.NoError(t, err)
	return resp.Messages
}

func TestSendReceiveDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	sent := sendBody(t, s, "orders", "hello")
	wantMD5 := md5.Sum([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(wantMD5[:]), sent.MD5OfMessageBody)
	assert.NotEmpty(t, sent.MessageId)

	msgs := receiveAll(t, s, "orders", 1)
	require.Len(t, msgs, 1)
	m := msgs[0]
	assert.Equal(t, sent.MessageId, m.MessageId)
	assert.Equal(t, "hello", m.Body)
	assert.Equal(t, "1", m.Attributes["ApproximateReceiveCount"])
	require.NotEmpty(t, m.ReceiptHandle)

	require.NoError(t, s.DeleteMessage(ctx, "orders", m.ReceiptHandle))

	// The handle is consumed by the delete.
	assert.ErrorIs(t, s.DeleteMessage(ctx, "orders", m.ReceiptHandle), ErrInvalidReceiptHandle)
	assert.Empty(t, receiveAll(t, s, "orders", 1))
}

func TestDelayedDelivery(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	_, err := s.SendMessage(ctx, "orders", &models.SendMessageRequest{
		MessageBody:  "later",
		DelaySeconds: int32Ptr(5),
	})
	require.NoError(t, err)

	clk.Advance(2 * time.Second)
	assert.Empty(t, receiveAll(t, s, "orders", 1))

	clk.Advance(4 * time.Second)
	msgs := receiveAll(t, s, "orders", 1)
	require.Len(t, msgs, 1)
	assert.Equal(t, "later", msgs[0].Body)
}

func TestQueueDefaultDelay(t *testing.T) {
	s, clk := newTestStore(t)
	mustCreateQueue(t, s, "orders", map[string]string{"DelaySeconds": "10"})

	sendBody(t, s, "orders", "x")
	assert.Empty(t, receiveAll(t, s, "orders", 1))

	clk.Advance(11 * time.Second)
	assert.Len(t, receiveAll(t, s, "orders", 1), 1)
}

func TestSendDelayOverridesQueueDefault(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", map[string]string{"DelaySeconds": "10"})

	// An explicit zero beats the queue default, so the message is immediate.
	_, err := s.SendMessage(ctx, "orders", &models.SendMessageRequest{
		MessageBody:  "now",
		DelaySeconds: int32Ptr(0),
	})
	require.NoError(t, err)

	assert.Len(t, receiveAll(t, s, "orders", 1), 1)
}

func TestReceiveDefaultsToSingleMessage(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	sendBody(t, s, "orders", "first")
	sendBody(t, s, "orders", "second")

	// An absent MaxNumberOfMessages means one message, not everything.
	resp, err := s.ReceiveMessage(ctx, "orders", &models.ReceiveMessageRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "first", resp.Messages[0].Body)
}

func TestVisibilityTimeoutRedelivery(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	sendBody(t, s, "orders", "retry-me")

	resp, err := s.ReceiveMessage(ctx, "orders", &models.ReceiveMessageRequest{
		MaxNumberOfMessages: intPtr(1),
		VisibilityTimeout:   intPtr(10),
	})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	first := resp.Messages[0]
	assert.Equal(t, "1", first.Attributes["ApproximateReceiveCount"])

	// Still in flight at t+5.
	clk.Advance(5 * time.Second)
	assert.Empty(t, receiveAll(t, s, "orders", 1))

	// Past the timeout the message is redelivered under a new handle.
	clk.Advance(6 * time.Second)
	msgs := receiveAll(t, s, "orders", 1)
	require.Len(t, msgs, 1)
	second := msgs[0]
	assert.Equal(t, first.MessageId, second.MessageId)
	assert.Equal(t, "2", second.Attributes["ApproximateReceiveCount"])
	assert.NotEqual(t, first.ReceiptHandle, second.ReceiptHandle)

	// The superseded handle no longer deletes anything.
	assert.ErrorIs(t, s.DeleteMessage(ctx, "orders", first.ReceiptHandle), ErrInvalidReceiptHandle)
	assert.NoError(t, s.DeleteMessage(ctx, "orders", second.ReceiptHandle))
}

func TestExpiredHandleIsStaleWithoutRedelivery(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", map[string]string{"VisibilityTimeout": "10"})

	sendBody(t, s, "orders", "x")
	msgs := receiveAll(t, s, "orders", 1)
	require.Len(t, msgs, 1)

	// Once the timeout lapses the handle is stale even before anyone
	// receives the message again.
	clk.Advance(11 * time.Second)
	assert.ErrorIs(t, s.DeleteMessage(ctx, "orders", msgs[0].ReceiptHandle), ErrInvalidReceiptHandle)
}

func TestChangeMessageVisibility(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", map[string]string{"VisibilityTimeout": "5"})

	sendBody(t, s, "orders", "x")
	msgs := receiveAll(t, s, "orders", 1)
	require.Len(t, msgs, 1)
	handle := msgs[0].ReceiptHandle

	// Extend well past the original timeout.
	require.NoError(t, s.ChangeMessageVisibility(ctx, "orders", handle, 120))
	clk.Advance(60 * time.Second)
	assert.Empty(t, receiveAll(t, s, "orders", 1))

	// The extended handle still deletes.
	assert.NoError(t, s.DeleteMessage(ctx, "orders", handle))
}

func TestChangeMessageVisibilityZeroReturnsMessage(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	sendBody(t, s, "orders", "x")
	msgs := receiveAll(t, s, "orders", 1)
	require.Len(t, msgs, 1)
	handle := msgs[0].ReceiptHandle

	require.NoError(t, s.ChangeMessageVisibility(ctx, "orders", handle, 0))

	// Immediately receivable again, and the old handle is now stale.
	again := receiveAll(t, s, "orders", 1)
	require.Len(t, again, 1)
	assert.Equal(t, "2", again[0].Attributes["ApproximateReceiveCount"])
	assert.ErrorIs(t, s.DeleteMessage(ctx, "orders", handle), ErrInvalidReceiptHandle)
}

func TestChangeMessageVisibilityStaleHandle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	err := s.ChangeMessageVisibility(ctx, "orders", "no-such-handle", 30)
	assert.ErrorIs(t, err, ErrInvalidReceiptHandle)
}

func TestMessageTooLarge(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", map[string]string{"MaximumMessageSize": "1024"})

	body := make([]byte, 2048)
	for i := range body {
		body[i] = 'a'
	}
	_, err := s.SendMessage(ctx, "orders", &models.SendMessageRequest{MessageBody: string(body)})
	assert.ErrorIs(t, err, ErrMessageTooLarge)

	// Exactly at the limit is accepted.
	_, err = s.SendMessage(ctx, "orders", &models.SendMessageRequest{MessageBody: string(body[:1024])})
	assert.NoError(t, err)
}

func TestReceiveOrderSkipsIneligible(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	_, err := s.SendMessage(ctx, "orders", &models.SendMessageRequest{
		MessageBody:  "first-but-delayed",
		DelaySeconds: int32Ptr(5),
	})
	require.NoError(t, err)
	sendBody(t, s, "orders", "second")

	// The delayed message is skipped; the later send is delivered first.
	msgs := receiveAll(t, s, "orders", 1)
	require.Len(t, msgs, 1)
	assert.Equal(t, "second", msgs[0].Body)

	clk.Advance(6 * time.Second)
	msgs = receiveAll(t, s, "orders", 1)
	require.Len(t, msgs, 1)
	assert.Equal(t, "first-but-delayed", msgs[0].Body)
}

func TestReceiveBatch(t *testing.T) {
	s, _ := newTestStore(t)
	mustCreateQueue(t, s, "orders", nil)

	for _, body := range []string{"a", "b", "c", "d", "e"} {
		sendBody(t, s, "orders", body)
	}

	msgs := receiveAll(t, s, "orders", 10)
	require.Len(t, msgs, 5)
	// Oldest first.
	assert.Equal(t, "a", msgs[0].Body)
	assert.Equal(t, "e", msgs[4].Body)

	// Everything is in flight now.
	assert.Empty(t, receiveAll(t, s, "orders", 10))
}

func TestSendMessageBatchPartialFailure(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", map[string]string{"MaximumMessageSize": "1024"})

	big := make([]byte, 2048)
	for i := range big {
		big[i] = 'x'
	}
	resp, err := s.SendMessageBatch(ctx, "orders", &models.SendMessageBatchRequest{
		Entries: []models.SendMessageBatchRequestEntry{
			{Id: "ok", MessageBody: "fits"},
			{Id: "huge", MessageBody: string(big)},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.Successful, 1)
	assert.Equal(t, "ok", resp.Successful[0].Id)
	assert.NotEmpty(t, resp.Successful[0].MessageId)

	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "huge", resp.Failed[0].Id)
	assert.Equal(t, "InvalidParameterValue", resp.Failed[0].Code)
	assert.True(t, resp.Failed[0].SenderFault)

	// The successful entry really landed.
	assert.Len(t, receiveAll(t, s, "orders", 10), 1)
}

func TestDeleteMessageBatchPartialFailure(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	sendBody(t, s, "orders", "x")
	msgs := receiveAll(t, s, "orders", 1)
	require.Len(t, msgs, 1)

	resp, err := s.DeleteMessageBatch(ctx, "orders", []models.DeleteMessageBatchRequestEntry{
		{Id: "good", ReceiptHandle: msgs[0].ReceiptHandle},
		{Id: "bad", ReceiptHandle: "bogus"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Successful, 1)
	assert.Equal(t, "good", resp.Successful[0].Id)

	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "bad", resp.Failed[0].Id)
	assert.Equal(t, "ReceiptHandleIsInvalid", resp.Failed[0].Code)
	assert.True(t, resp.Failed[0].SenderFault)
}

func TestChangeMessageVisibilityBatchPartialFailure(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	sendBody(t, s, "orders", "x")
	msgs := receiveAll(t, s, "orders", 1)
	require.Len(t, msgs, 1)

	resp, err := s.ChangeMessageVisibilityBatch(ctx, "orders", []models.ChangeMessageVisibilityBatchRequestEntry{
		{Id: "good", ReceiptHandle: msgs[0].ReceiptHandle, VisibilityTimeout: 60},
		{Id: "bad", ReceiptHandle: "bogus", VisibilityTimeout: 60},
	})
	require.NoError(t, err)

	require.Len(t, resp.Successful, 1)
	assert.Equal(t, "good", resp.Successful[0].Id)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, "ReceiptHandleIsInvalid", resp.Failed[0].Code)
}

func TestLongPollWakesOnSend(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	done := make(chan []models.ResponseMessage, 1)
	go func() {
		resp, err := s.ReceiveMessage(ctx, "orders", &models.ReceiveMessageRequest{
			MaxNumberOfMessages: intPtr(1),
			WaitTimeSeconds:     intPtr(10),
		})
		if err != nil {
			done <- nil
			return
		}
		done <- resp.Messages
	}()

	time.Sleep(50 * time.Millisecond)
	sendBody(t, s, "orders", "wake-up")

	select {
	case msgs := <-done:
		require.Len(t, msgs, 1)
		assert.Equal(t, "wake-up", msgs[0].Body)
	case <-time.After(5 * time.Second):
		t.Fatal("long poll did not wake on send")
	}
}

func TestLongPollIgnoresDelayedSend(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	done := make(chan []models.ResponseMessage, 1)
	start := time.Now()
	go func() {
		resp, err := s.ReceiveMessage(ctx, "orders", &models.ReceiveMessageRequest{
			MaxNumberOfMessages: intPtr(1),
			WaitTimeSeconds:     intPtr(1),
		})
		if err != nil {
			done <- nil
			return
		}
		done <- resp.Messages
	}()

	// A message that is not yet eligible must not wake the parked receiver;
	// the poll has to run out its full wait and come back empty.
	time.Sleep(100 * time.Millisecond)
	_, err := s.SendMessage(ctx, "orders", &models.SendMessageRequest{
		MessageBody:  "not-yet",
		DelaySeconds: int32Ptr(300),
	})
	require.NoError(t, err)

	select {
	case msgs := <-done:
		assert.Empty(t, msgs)
		assert.GreaterOrEqual(t, time.Since(start), time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("long poll did not return at its deadline")
	}
}

func TestLongPollDeadlineReturnsEmpty(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	mustCreateQueue(t, s, "orders", nil)

	start := time.Now()
	resp, err := s.ReceiveMessage(ctx, "orders", &models.ReceiveMessageRequest{
		MaxNumberOfMessages: intPtr(1),
		WaitTimeSeconds:     intPtr(1),
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Messages)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestLongPollContextCancel(t *testing.T) {
	s := NewMemoryStore(nil)
	mustCreateQueue(t, s, "orders", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := s.ReceiveMessage(ctx, "orders", &models.ReceiveMessageRequest{
			MaxNumberOfMessages: intPtr(1),
			WaitTimeSeconds:     intPtr(20),
		})
		assert.NoError(t, err)
		assert.Empty(t, resp.Messages)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("receive did not return after context cancellation")
	}

	// The abandoned waiter was deregistered.
	q, err := s.getQueue("orders")
	require.NoError(t, err)
	assert.Equal(t, 0, q.waiters.size())
}

func TestNoDoubleDeliveryUnderConcurrentReceives(t *testing.T) {
	s := NewMemoryStore(nil)
	mustCreateQueue(t, s, "orders", nil)
	sendBody(t, s, "orders", "only-one")

	const receivers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for i := 0; i < receivers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.ReceiveMessage(context.Background(), "orders", &models.ReceiveMessageRequest{
				MaxNumberOfMessages: intPtr(1),
			})
			assert.NoError(t, err)
			mu.Lock()
			delivered += len(resp.Messages)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, delivered)
}
