package entity

import "time"

// User identidad externa (la aporta el colaborador de autenticación).
// Para este núcleo es inmutable: solo se registra al aceptar una invitación o al crear un negocio.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}
