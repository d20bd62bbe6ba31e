package worker

import (
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	kafkax "github.com/advaitbhat/tripnest/internal/kafka"
	"github.com/advaitbhat/tripnest/internal/mailer"
	mailerService "github.com/advaitbhat/tripnest/internal/service/mailer"
)

type captureSender struct {
	sent []mailer.Mail
	err  error
}

func (c *captureSender) Send(m mailer.Mail) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, m)
	return nil
}

func message(t *testing.T, status string) kafka.Message {
	t.Helper()
	e := kafkax.BookingChanged{
		Type:         "booking_changed",
		AgencyID:     "agency-1",
		BookingID:    "b1",
		Reference:    "TN-AAAA1111",
		Status:       status,
		ContactName:  "Ana",
		ContactEmail: "ana@example.com",
		PackageTitle: "Algarve Week",
	}
	b, err := json.Marshal(e)
	assert.NoError(t, err)
	return kafka.Message{Key: []byte("agency-1"), Value: b}
}

func TestHandleMessage_AcceptedSendsConfirmation(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(zap.NewNop(), mailerService.NewMailerService(zap.NewNop(), sender), nil, nil, 1)

	err := n.handleMessage(message(t, "ACCEPTED"))

	assert.NoError(t, err)
	assert.Len(t, sender.sent, 1)
	assert.Equal(t, "ana@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "TN-AAAA1111")
}

func TestHandleMessage_PendingIsNoOp(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(zap.NewNop(), mailerService.NewMailerService(zap.NewNop(), sender), nil, nil, 1)

	err := n.handleMessage(message(t, "PENDING"))

	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestHandleMessage_MalformedPayloadFails(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(zap.NewNop(), mailerService.NewMailerService(zap.NewNop(), sender), nil, nil, 1)

	err := n.handleMessage(kafka.Message{Value: []byte(`{"status":`)})

	assert.Error(t, err)
}

func TestHandleMessage_SenderFailureSurfaces(t *testing.T) {
	sender := &captureSender{err: assert.AnError}
	n := NewNotifier(zap.NewNop(), mailerService.NewMailerService(zap.NewNop(), sender), nil, nil, 1)

	err := n.handleMessage(message(t, "CANCELLED"))

	assert.Error(t, err)
}
