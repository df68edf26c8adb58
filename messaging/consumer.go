package messaging

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"

	"github.com/AntonStoeckl/library-inventory/authority"
	"github.com/AntonStoeckl/library-inventory/shell"
)

const (
	logMsgFetchFailed   = "reading from kafka failed"
	logMsgHandleFailed  = "handling copy status change failed"
	logMsgCommitFailed  = "committing kafka offset failed"
	logMsgConsumerStops = "status change consumer stopped"
)

// ReservationFulfiller is the reservation ledger operation triggered by a rental of a reserved copy.
type ReservationFulfiller interface {
	FulfillReservation(ctx context.Context, itemID, branchID, userID int64) error
}

// StatusChangeConsumer fulfills reservations when the reserving user rents the copy.
type StatusChangeConsumer struct {
	reader    MessageReader
	fulfiller ReservationFulfiller
	obs       shell.Observability
}

// NewStatusChangeConsumer creates a StatusChangeConsumer. logger may be nil.
func NewStatusChangeConsumer(reader MessageReader, fulfiller ReservationFulfiller, logger shell.ContextualLogger) *StatusChangeConsumer {
	return &StatusChangeConsumer{
		reader:    reader,
		fulfiller: fulfiller,
		obs:       shell.Observability{ContextualLogger: logger},
	}
}

// Run consumes until ctx is done. Every message is committed after it was handled, even if handling
// failed: fulfillment is bookkeeping and must not block the partition.
func (c *StatusChangeConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.obs.Info(ctx, logMsgConsumerStops)
				return nil
			}

			c.obs.Error(ctx, logMsgFetchFailed, shell.LogAttrError, err.Error())

			return err
		}

		msgCtx := propagator.Extract(ctx, headerCarrier{headers: &msg.Headers})

		if err := c.HandleMessage(msgCtx, msg); err != nil {
			c.obs.Warn(msgCtx, logMsgHandleFailed, shell.LogAttrError, err.Error())
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.obs.Error(ctx, logMsgCommitFailed, shell.LogAttrError, err.Error())
		}
	}
}

// HandleMessage fulfills the reservation if msg reports a RESERVED copy being RENTED.
// Any other message is ignored.
func (c *StatusChangeConsumer) HandleMessage(ctx context.Context, msg kafka.Message) error {
	if eventType := (headerCarrier{headers: &msg.Headers}).Get(headerEventType); eventType != EventTypeCopyStatusChanged {
		return nil
	}

	var event authority.CopyStatusChanged
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decoding %s failed: %w", EventTypeCopyStatusChanged, err)
	}

	if event.From != authority.StatusReserved || event.To != authority.StatusRented || event.UserID == nil {
		return nil
	}

	return c.fulfiller.FulfillReservation(ctx, event.ItemID, event.BranchID, *event.UserID)
}
