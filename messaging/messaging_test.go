package messaging_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/messaging"
	"github.com/AntonStoeckl/library-inventory/rental"
)

type writerSpy struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *writerSpy) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}

	w.messages = append(w.messages, msgs...)

	return nil
}

func (w *writerSpy) Close() error {
	w.closed = true
	return nil
}

type readerStub struct {
	messages  []kafka.Message
	committed []kafka.Message
	mu        sync.Mutex
}

func (r *readerStub) FetchMessage(_ context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.messages) == 0 {
		return kafka.Message{}, io.EOF
	}

	msg := r.messages[0]
	r.messages = r.messages[1:]

	return msg, nil
}

func (r *readerStub) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.committed = append(r.committed, msgs...)

	return nil
}

func (r *readerStub) Close() error { return nil }

type fulfillCall struct {
	itemID, branchID, userID int64
	sampled                  bool
}

type fulfillerSpy struct {
	calls []fulfillCall
	err   error
}

func (f *fulfillerSpy) FulfillReservation(ctx context.Context, itemID, branchID, userID int64) error {
	f.calls = append(f.calls, fulfillCall{
		itemID: itemID, branchID: branchID, userID: userID,
		sampled: trace.SpanContextFromContext(ctx).IsSampled(),
	})

	return f.err
}

func sampledContext() context.Context {
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03},
		SpanID:     trace.SpanID{0x04, 0x05},
		TraceFlags: trace.FlagsSampled,
	})

	return trace.ContextWithSpanContext(context.Background(), spanCtx)
}

func Test_KafkaPublisher_PublishCopyStatusChanged(t *testing.T) {
	// arrange
	writer := &writerSpy{}
	publisher := messaging.NewKafkaPublisher(writer, nil)
	userID := int64(5)
	event := authority.CopyStatusChanged{
		ItemID: 12, BranchID: 3,
		From: authority.StatusReserved, To: authority.StatusRented,
		UserID: &userID, OccurredAt: time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC),
	}

	// act
	err := publisher.PublishCopyStatusChanged(sampledContext(), event)

	// assert
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "12:3", string(msg.Key), "keyed by copy so one copy stays ordered")

	var decoded authority.CopyStatusChanged
	require.NoError(t, jsoniter.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event, decoded)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, messaging.EventTypeCopyStatusChanged, headers["event-type"])
	assert.Contains(t, headers["traceparent"], "01020300000000000000000000000000", "trace context is propagated")
}

func Test_KafkaPublisher_PublishRentalDueSoon(t *testing.T) {
	writer := &writerSpy{}
	publisher := messaging.NewKafkaPublisher(nil, writer)

	err := publisher.PublishRentalDueSoon(context.Background(), rental.DueSoon{ItemID: 1, BranchID: 2, UserID: 3})

	require.NoError(t, err)
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "1:2", string(writer.messages[0].Key))
}

func Test_KafkaPublisher_Failures(t *testing.T) {
	broken := &writerSpy{err: errors.New("leader not available")}
	publisher := messaging.NewKafkaPublisher(broken, nil)

	assert.Error(t, publisher.PublishCopyStatusChanged(context.Background(), authority.CopyStatusChanged{}))
	assert.ErrorIs(t, publisher.PublishRentalDueSoon(context.Background(), rental.DueSoon{}), messaging.ErrNoWriter)

	require.NoError(t, publisher.Close())
	assert.True(t, broken.closed)
}

func Test_StatusChangeConsumer_FulfillsReservedCopyRentals(t *testing.T) {
	// arrange
	writer := &writerSpy{}
	publisher := messaging.NewKafkaPublisher(writer, nil)
	userID := int64(5)

	events := []authority.CopyStatusChanged{
		{ItemID: 1, BranchID: 1, From: authority.StatusReserved, To: authority.StatusRented, UserID: &userID},
		{ItemID: 2, BranchID: 1, From: authority.StatusAvailable, To: authority.StatusRented, UserID: &userID},
		{ItemID: 3, BranchID: 1, From: authority.StatusReserved, To: authority.StatusAvailable, UserID: &userID},
	}
	for _, event := range events {
		require.NoError(t, publisher.PublishCopyStatusChanged(sampledContext(), event))
	}

	reader := &readerStub{messages: append(writer.messages, kafka.Message{Value: []byte("not json")})}
	fulfiller := &fulfillerSpy{}
	consumer := messaging.NewStatusChangeConsumer(reader, fulfiller, nil)

	// act
	err := consumer.Run(context.Background())

	// assert
	assert.ErrorIs(t, err, io.EOF, "the stub reader ends with EOF")
	require.Len(t, fulfiller.calls, 1)
	assert.Equal(t, fulfillCall{itemID: 1, branchID: 1, userID: 5, sampled: true}, fulfiller.calls[0])
	assert.Len(t, reader.committed, 4, "every message is committed, handled or not")
}

func Test_StatusChangeConsumer_HandleMessage_RejectsMalformedEvents(t *testing.T) {
	consumer := messaging.NewStatusChangeConsumer(&readerStub{}, &fulfillerSpy{}, nil)

	err := consumer.HandleMessage(context.Background(), kafka.Message{
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(messaging.EventTypeCopyStatusChanged)}},
		Value:   []byte("{"),
	})

	assert.Error(t, err)
}
