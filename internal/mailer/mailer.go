package mailer

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"rxmatch-service/internal/util"
)

// Mailer delivers availability notifications to patients.
type Mailer interface {
	SendAvailabilityNotice(toEmail, patientName, medicineName, pharmacyName, pharmacyLocation string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer backed by an SMTP server.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendAvailabilityNotice(toEmail, patientName, medicineName, pharmacyName, pharmacyLocation string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", fmt.Sprintf("%s is available at %s", medicineName, pharmacyName))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Dear %s,\n\nYour prescribed medicine %q is in stock at %s (%s).\n\nBest regards,\nHealthConnect",
		patientName, medicineName, pharmacyName, pharmacyLocation))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send availability notice: %w", err)
	}
	return nil
}

// LogMailer logs instead of sending, for local development.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer() *LogMailer {
	return &LogMailer{logger: util.GetLogger()}
}

func (m *LogMailer) SendAvailabilityNotice(toEmail, patientName, medicineName, pharmacyName, pharmacyLocation string) error {
	m.logger.Info("Availability notice (mail disabled)",
		zap.String("to", toEmail),
		zap.String("medicine", medicineName),
		zap.String("pharmacy", pharmacyName))
	return nil
}
