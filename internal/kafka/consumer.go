package kafkax

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, group, topic string) *Consumer {
	return &Consumer{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  group,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})}
}

func (c *Consumer) Fetch(ctx context.Context) (kafka.Message, error) {
	return c.reader.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, m kafka.Message) error {
	return c.reader.CommitMessages(ctx, m)
}

func (c *Consumer) Close() error { return c.reader.Close() }

// BookingChanged is emitted on every successful booking state transition and
// on intake. Key'd by agency id so one agency's events stay ordered.
type BookingChanged struct {
	Type         string    `json:"type"` // always "booking_changed"
	AgencyID     string    `json:"agency_id"`
	BookingID    string    `json:"booking_id"`
	Reference    string    `json:"reference"`
	Status       string    `json:"status"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	PackageTitle string    `json:"package_title"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func ParseBookingChanged(b []byte) (BookingChanged, error) {
	var e BookingChanged
	err := json.Unmarshal(b, &e)
	return e, err
}
