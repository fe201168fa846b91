package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/clinicore/clinic-api/internal/config"
	"github.com/clinicore/clinic-api/internal/model"
)

// Service sends appointment notifications to patients.
type Service interface {
	AppointmentBooked(ctx context.Context, apt *model.AppointmentDetail) error
	AppointmentCancelled(ctx context.Context, apt *model.AppointmentDetail) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService returns an SMTP-backed notification service.
func NewEmailService(cfg config.SMTPConfig) Service {
	return &emailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *emailService) AppointmentBooked(_ context.Context, apt *model.AppointmentDetail) error {
	subject := "Appointment confirmed"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour appointment with %s is confirmed for %s.\n",
		apt.PatientName,
		apt.DoctorName,
		apt.AppointmentAt.Format("Monday, 2 Jan 2006 at 15:04 MST"),
	)
	return s.send(apt.PatientEmail, subject, body)
}

func (s *emailService) AppointmentCancelled(_ context.Context, apt *model.AppointmentDetail) error {
	subject := "Appointment cancelled"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour appointment with %s on %s has been cancelled.\n",
		apt.PatientName,
		apt.DoctorName,
		apt.AppointmentAt.Format("Monday, 2 Jan 2006 at 15:04 MST"),
	)
	return s.send(apt.PatientEmail, subject, body)
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type noopService struct{}

// NewNoop returns a notification service that discards everything.
// Used when SMTP is disabled.
func NewNoop() Service {
	return noopService{}
}

func (noopService) AppointmentBooked(context.Context, *model.AppointmentDetail) error {
	return nil
}

func (noopService) AppointmentCancelled(context.Context, *model.AppointmentDetail) error {
	return nil
}
