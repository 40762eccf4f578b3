// Package delivery entrega invitaciones: por log (desarrollo), por SMTP directo
// o encolando un trabajo en RabbitMQ que consume cmd/mailer.
package delivery

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"github.com/jhoicas/bizhub-api/internal/application/team"
)

// AcceptLink arma el enlace de aceptación: base?business_id=...&token=...
func AcceptLink(base string, msg team.InvitationMessage) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("INVITE_ACCEPT_URL inválida: %w", err)
	}
	q := u.Query()
	q.Set("business_id", msg.BusinessID)
	q.Set("token", msg.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var invitationHTML = template.Must(template.New("invitation").Parse(`<!doctype html>
<html><body style="font-family:Helvetica,Arial,sans-serif">
<p>Hola,</p>
<p>Te invitaron a unirte a <strong>{{.BusinessName}}</strong> con el rol <strong>{{.Role}}</strong>.</p>
<p><a href="{{.Link}}">Aceptar invitación</a></p>
<p>El enlace vence el {{.ExpiresAt}}.</p>
</body></html>`))

// renderInvitation devuelve asunto y cuerpo HTML del email.
func renderInvitation(acceptBase string, msg team.InvitationMessage) (subject, body string, err error) {
	link, err := AcceptLink(acceptBase, msg)
	if err != nil {
		return "", "", err
	}
	var buf bytes.Buffer
	err = invitationHTML.Execute(&buf, map[string]string{
		"BusinessName": msg.BusinessName,
		"Role":         msg.Role.String(),
		"Link":         link,
		"ExpiresAt":    msg.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"),
	})
	if err != nil {
		return "", "", fmt.Errorf("render invitación: %w", err)
	}
	return "Invitación a " + msg.BusinessName, buf.String(), nil
}
