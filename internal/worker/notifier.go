package worker

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/advaitbhat/tripnest/internal/kafka"
	mailerService "github.com/advaitbhat/tripnest/internal/service/mailer"
	storeBookings "github.com/advaitbhat/tripnest/internal/store/bookings"
)

// Notifier consumes BookingChanged events and emails the booking contact.
// Failed messages go to the DLQ topic for manual inspection.
type Notifier struct {
	log        *zap.Logger
	mailer     *mailerService.MailerService
	c          *kafkax.Consumer
	dlq        *kafkax.Producer
	maxWorkers int
}

func NewNotifier(log *zap.Logger, mailer *mailerService.MailerService, c *kafkax.Consumer, dlq *kafkax.Producer, maxWorkers int) *Notifier {
	return &Notifier{
		log:        log,
		mailer:     mailer,
		c:          c,
		dlq:        dlq,
		maxWorkers: maxWorkers,
	}
}

func (n *Notifier) Run(ctx context.Context) error {
	sem := make(chan struct{}, n.maxWorkers) // concurrency limit

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			m, err := n.c.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				n.log.Error("failed to read message", zap.Error(err))
				continue
			}

			sem <- struct{}{}
			go func(m kafka.Message) {
				defer func() { <-sem }()

				if err := n.handleMessage(m); err != nil {
					n.log.Error("failed to handle message", zap.Error(err))
					_ = n.dlq.Publish(ctx, m.Key, m.Value)
				} else {
					_ = n.c.Commit(ctx, m)
				}
			}(m)
		}
	}
}

func (n *Notifier) handleMessage(m kafka.Message) error {
	e, err := kafkax.ParseBookingChanged(m.Value)
	if err != nil {
		return err
	}

	switch storeBookings.Status(e.Status) {
	case storeBookings.StatusAccepted:
		return n.mailer.SendBookingAcceptedEmail(e.ContactEmail, e.ContactName, e.PackageTitle, e.Reference)
	case storeBookings.StatusCancelled:
		return n.mailer.SendBookingCancelledEmail(e.ContactEmail, e.ContactName, e.PackageTitle, e.Reference)
	case storeBookings.StatusFinished:
		return n.mailer.SendBookingFinishedEmail(e.ContactEmail, e.ContactName, e.PackageTitle, e.Reference)
	default:
		// Intake events carry PENDING; the agency dashboard picks those up,
		// no customer email is owed yet.
		return nil
	}
}
