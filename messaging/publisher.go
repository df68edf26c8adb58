package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/rental"
)

const (
	headerEventType = "event-type"

	// EventTypeCopyStatusChanged is the event-type header of authority.CopyStatusChanged messages.
	EventTypeCopyStatusChanged = "CopyStatusChanged"

	// EventTypeRentalDueSoon is the event-type header of rental.DueSoon messages.
	EventTypeRentalDueSoon = "RentalDueSoon"
)

// ErrNoWriter is returned when publishing to a topic that has no writer configured.
var ErrNoWriter = errors.New("no kafka writer configured for this event")

// KafkaPublisher publishes inventory events. Messages are keyed by "item:branch"
// so that all events of one copy land in the same partition, in order.
type KafkaPublisher struct {
	statusWriter   MessageWriter
	reminderWriter MessageWriter
}

// NewKafkaPublisher creates a KafkaPublisher. Either writer may be nil if the service does not emit that event.
func NewKafkaPublisher(statusWriter, reminderWriter MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{statusWriter: statusWriter, reminderWriter: reminderWriter}
}

// PublishCopyStatusChanged implements authority.StatusPublisher.
func (p *KafkaPublisher) PublishCopyStatusChanged(ctx context.Context, event authority.CopyStatusChanged) error {
	return publish(ctx, p.statusWriter, EventTypeCopyStatusChanged, copyKey(event.ItemID, event.BranchID), event)
}

// PublishRentalDueSoon implements rental.ReminderNotifier.
func (p *KafkaPublisher) PublishRentalDueSoon(ctx context.Context, reminder rental.DueSoon) error {
	return publish(ctx, p.reminderWriter, EventTypeRentalDueSoon, copyKey(reminder.ItemID, reminder.BranchID), reminder)
}

// Close closes all writers.
func (p *KafkaPublisher) Close() error {
	var errs []error

	for _, w := range []MessageWriter{p.statusWriter, p.reminderWriter} {
		if w != nil {
			errs = append(errs, w.Close())
		}
	}

	return errors.Join(errs...)
}

func publish(ctx context.Context, writer MessageWriter, eventType, key string, payload any) error {
	if writer == nil {
		return fmt.Errorf("%w: %s", ErrNoWriter, eventType)
	}

	value, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s failed: %w", eventType, err)
	}

	headers := []kafka.Header{{Key: headerEventType, Value: []byte(eventType)}}
	propagator.Inject(ctx, headerCarrier{headers: &headers})

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s failed: %w", eventType, err)
	}

	return nil
}

func copyKey(itemID, branchID int64) string {
	return strconv.FormatInt(itemID, 10) + ":" + strconv.FormatInt(branchID, 10)
}

var (
	_ authority.StatusPublisher = (*KafkaPublisher)(nil)
	_ rental.ReminderNotifier   = (*KafkaPublisher)(nil)
)
