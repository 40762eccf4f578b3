package delivery

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/bizhub-api/internal/application/team"
	"github.com/jhoicas/bizhub-api/pkg/config"
)

var _ team.InvitationSender = (*SMTPSender)(nil)

// Dialer subconjunto de *gomail.Dialer (reemplazable en tests).
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender envía el email de invitación por SMTP.
type SMTPSender struct {
	dialer     Dialer
	from       string
	acceptBase string
}

// NewSMTPSender construye el sender con la configuración SMTP.
func NewSMTPSender(cfg config.SMTPConfig, acceptBase string) *SMTPSender {
	return NewSMTPSenderWithDialer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, acceptBase)
}

// NewSMTPSenderWithDialer permite inyectar el dialer.
func NewSMTPSenderWithDialer(d Dialer, from, acceptBase string) *SMTPSender {
	return &SMTPSender{dialer: d, from: from, acceptBase: acceptBase}
}

func (s *SMTPSender) SendInvitation(ctx context.Context, msg team.InvitationMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body, err := renderInvitation(s.acceptBase, msg)
	if err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}
