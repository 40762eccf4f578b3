package team

import (
	"strings"

	"github.com/asaskevich/govalidator"
	"golang.org/x/text/cases"
)

// Identity principal verificado que entrega el colaborador de autenticación (JWT).
// Este núcleo confía en él sin volver a verificarlo.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}

var emailFolder = cases.Fold()

// NormalizeEmail recorta y pliega mayúsculas/minúsculas (Unicode) para comparar emails.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}

// validEmail acepta solo una dirección simple (sin nombre visible ni corchetes).
func validEmail(email string) bool {
	return govalidator.IsEmail(email)
}
