package mailer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/advaitbhat/tripnest/internal/mailer"
)

type MailerService struct {
	log    *zap.Logger
	sender mailer.Sender
}

func NewMailerService(log *zap.Logger, sender mailer.Sender) *MailerService {
	return &MailerService{
		log:    log,
		sender: sender,
	}
}

func (m *MailerService) SendBookingAcceptedEmail(email, contactName, packageTitle, reference string) error {
	subject := fmt.Sprintf("Your booking %s is confirmed", reference)
	body := fmt.Sprintf(`
Dear %s,

Good news! Your booking for "%s" has been confirmed by the agency.

Booking reference: %s

We wish you a great trip.

Best regards,
Tripnest Team
`, contactName, packageTitle, reference)

	mail := mailer.Mail{
		To:      email,
		Subject: subject,
		Body:    body,
	}

	if err := m.sender.Send(mail); err != nil {
		m.log.Error("Failed to send booking accepted email", zap.Error(err), zap.String("email", email))
		return err
	}

	m.log.Info("Booking accepted email sent", zap.String("email", email), zap.String("reference", reference))
	return nil
}

func (m *MailerService) SendBookingCancelledEmail(email, contactName, packageTitle, reference string) error {
	subject := fmt.Sprintf("Your booking %s was cancelled", reference)
	body := fmt.Sprintf(`
Dear %s,

Your booking for "%s" has been cancelled.

Booking reference: %s

If you did not expect this, please contact the agency directly.

Best regards,
Tripnest Team
`, contactName, packageTitle, reference)

	mail := mailer.Mail{
		To:      email,
		Subject: subject,
		Body:    body,
	}

	if err := m.sender.Send(mail); err != nil {
		m.log.Error("Failed to send booking cancelled email", zap.Error(err), zap.String("email", email))
		return err
	}

	m.log.Info("Booking cancelled email sent", zap.String("email", email), zap.String("reference", reference))
	return nil
}

func (m *MailerService) SendBookingFinishedEmail(email, contactName, packageTitle, reference string) error {
	subject := "How was your trip?"
	body := fmt.Sprintf(`
Dear %s,

Your trip "%s" (booking %s) has finished. We'd love to hear how it went --
you can leave a review from your booking page.

Best regards,
Tripnest Team
`, contactName, packageTitle, reference)

	mail := mailer.Mail{
		To:      email,
		Subject: subject,
		Body:    body,
	}

	if err := m.sender.Send(mail); err != nil {
		m.log.Error("Failed to send trip finished email", zap.Error(err), zap.String("email", email))
		return err
	}

	m.log.Info("Trip finished email sent", zap.String("email", email), zap.String("reference", reference))
	return nil
}
