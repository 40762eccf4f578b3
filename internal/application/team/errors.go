package team

import (
	"context"
	"errors"

	"github.com/jhoicas/bizhub-api/internal/domain"
)

// Códigos estables de error expuestos a los clientes.
const (
	CodeNotAMember           = "NOT_A_MEMBER"
	CodeInsufficientRank     = "INSUFFICIENT_RANK"
	CodeSelfEscalation       = "SELF_ESCALATION_DENIED"
	CodeLastOwner            = "LAST_OWNER_VIOLATION"
	CodeAlreadyMember        = "ALREADY_MEMBER"
	CodeInvitationNotFound   = "INVITATION_NOT_FOUND"
	CodeInvitationExpired    = "INVITATION_EXPIRED"
	CodeInvitationNotPending = "INVITATION_NOT_PENDING"
	CodeEmailMismatch        = "INVITATION_EMAIL_MISMATCH"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeDuplicate            = "DUPLICATE"
	CodeNotFound             = "NOT_FOUND"
	CodeDeliveryFailed       = "DELIVERY_FAILED"
	CodeCanceled             = "OPERATION_CANCELED"
	CodeInternal             = "INTERNAL_ERROR"
)

// ErrorCode traduce un error de dominio a su código estable. Los errores no
// reconocidos (infraestructura) se reportan como INTERNAL_ERROR.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrNotAMember):
		return CodeNotAMember
	case errors.Is(err, domain.ErrSelfEscalationDenied):
		return CodeSelfEscalation
	case errors.Is(err, domain.ErrInsufficientRank):
		return CodeInsufficientRank
	case errors.Is(err, domain.ErrLastOwnerViolation):
		return CodeLastOwner
	case errors.Is(err, domain.ErrAlreadyMember):
		return CodeAlreadyMember
	case errors.Is(err, domain.ErrInvitationNotFound):
		return CodeInvitationNotFound
	case errors.Is(err, domain.ErrInvitationExpired):
		return CodeInvitationExpired
	case errors.Is(err, domain.ErrInvitationNotPending):
		return CodeInvitationNotPending
	case errors.Is(err, domain.ErrInvitationEmailMismatch):
		return CodeEmailMismatch
	case errors.Is(err, domain.ErrConfirmationRequired):
		return CodeConfirmationRequired
	case errors.Is(err, domain.ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, domain.ErrDuplicate):
		return CodeDuplicate
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrDeliveryFailed):
		return CodeDeliveryFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		return CodeInternal
	}
}
