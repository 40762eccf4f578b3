package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del núcleo de autorización y equipos. Cada uno es un "tipo" estable
// que la capa HTTP traduce a un código de error.
var (
	// ErrNotAMember cubre tanto "el negocio no existe" como "el usuario no es miembro":
	// los llamadores no deben distinguir ambos casos hacia el usuario.
	ErrNotAMember              = errors.New("no es miembro del negocio")
	ErrInsufficientRank        = errors.New("rango insuficiente para esta operación")
	ErrSelfEscalationDenied    = errors.New("no puede modificar su propio rol o permisos")
	ErrLastOwnerViolation      = errors.New("el negocio quedaría sin propietario activo")
	ErrAlreadyMember           = errors.New("el usuario ya es miembro activo del negocio")
	ErrInvitationNotFound      = errors.New("invitación no encontrada")
	ErrInvitationExpired       = errors.New("la invitación expiró")
	ErrInvitationNotPending    = errors.New("la invitación no está pendiente")
	ErrInvitationEmailMismatch = errors.New("el email no coincide con la invitación")
	ErrConfirmationRequired    = errors.New("confirmación inválida")
	// ErrNotOwner es un caso de ErrInsufficientRank: errors.Is(ErrNotOwner, ErrInsufficientRank) == true.
	ErrNotOwner = fmt.Errorf("%w: la operación requiere ser propietario", ErrInsufficientRank)
	// ErrInvitationLapsed es a la vez ErrInvitationNotPending y ErrInvitationExpired, sin
	// importar si la expiración ya estaba persistida o se aplica en esta lectura.
	ErrInvitationLapsed = fmt.Errorf("%w: %w", ErrInvitationNotPending, ErrInvitationExpired)
	// ErrDeliveryFailed no es fatal: la invitación queda creada.
	ErrDeliveryFailed = errors.New("no se pudo entregar la invitación")
)
