package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/bankcards/card-service/internal/config"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// Enabled reports whether SMTP delivery is configured.
func (s *Sender) Enabled() bool {
	return s.cfg.SMTPHost != "" && s.cfg.SenderEmail != ""
}

// SendTransactionNotification sends a notification email for a completed
// deposit or transfer. Only the masked card number ever appears in mail.
func (s *Sender) SendTransactionNotification(to, username, maskedNumber string, amount decimal.Decimal, kind string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("%s Notification", kind)

	body := fmt.Sprintf("Dear %s,\n\n", username)
	switch kind {
	case "Deposit":
		body += fmt.Sprintf(
			"Your card %s has been credited with %s.\n"+
				"Transaction time: %s\n",
			maskedNumber, amount.StringFixed(2), time.Now().Format("2006-01-02 15:04:05"),
		)
	default:
		body += fmt.Sprintf(
			"A transfer of %s from your card %s has been completed.\n"+
				"Transaction time: %s\n",
			amount.StringFixed(2), maskedNumber, time.Now().Format("2006-01-02 15:04:05"),
		)
	}
	body += "\nBest regards,\nCard Service"
	e.Text = []byte(body)

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send %s notification to %s: %v", kind, to, err)
		return fmt.Errorf("failed to send %s notification: %w", kind, err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// SendExpiryReminder sends a reminder that a card expires soon.
func (s *Sender) SendExpiryReminder(to, username, maskedNumber string, expiryDate time.Time) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Card Expiry Reminder"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your card %s expires on %s.\n"+
			"Please contact your bank branch to order a replacement.\n"+
			"\nBest regards,\nCard Service",
		username, maskedNumber, expiryDate.Format("2006-01-02"),
	)
	e.Text = []byte(body)

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send expiry reminder to %s: %v", to, err)
		return fmt.Errorf("failed to send expiry reminder: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return e.Send(addr, auth)
}
