package delivery

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/bizhub-api/internal/application/team"
)

var _ team.InvitationSender = (*LogSender)(nil)

// LogSender no envía nada: registra la invitación. El enlace (con el token) solo sale en nivel debug.
type LogSender struct {
	log        zerolog.Logger
	acceptBase string
}

// NewLogSender construye el sender de desarrollo.
func NewLogSender(log zerolog.Logger, acceptBase string) *LogSender {
	return &LogSender{log: log, acceptBase: acceptBase}
}

func (s *LogSender) SendInvitation(_ context.Context, msg team.InvitationMessage) error {
	link, err := AcceptLink(s.acceptBase, msg)
	if err != nil {
		return err
	}
	s.log.Info().
		Str("invitation_id", msg.InvitationID).
		Str("business_id", msg.BusinessID).
		Str("email", msg.Email).
		Str("role", msg.Role.String()).
		Msg("invitación lista para entregar")
	s.log.Debug().Str("invitation_id", msg.InvitationID).Str("accept_url", link).Msg("enlace de aceptación")
	return nil
}
