package email

import (
	"context"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type Service interface {
	SendNotification(ctx context.Context, msg Message) error
}

// Message is one notification email.
type Message struct {
	To        string
	Name      string
	Subject   string
	Body      string
	ActionURL string
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type SMTPService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg Config) *SMTPService {
	return &SMTPService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPService) SendNotification(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.build(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPService) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	if msg.Name != "" {
		m.SetAddressHeader("To", msg.To, msg.Name)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)

	text := msg.Body
	if msg.ActionURL != "" {
		text += "\n\n" + msg.ActionURL
	}
	m.SetBody("text/plain", text)

	body := "<p>" + html.EscapeString(msg.Body) + "</p>"
	if msg.ActionURL != "" {
		body += fmt.Sprintf(`<p><a href="%s">Open in RPM</a></p>`, html.EscapeString(msg.ActionURL))
	}
	m.AddAlternative("text/html", body)
	return m
}
