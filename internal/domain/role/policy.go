// Package role contiene la política de roles: jerarquía, permisos por defecto
// y reglas de asignación. Lógica pura, sin I/O.
package role

import (
	"sort"
	"strings"
)

// Role es un rol dentro de un negocio. El orden jerárquico lo da Rank.
type Role string

// Roles válidos, de mayor a menor rango.
const (
	Owner   Role = "owner"
	Admin   Role = "admin"
	Manager Role = "manager"
	Staff   Role = "staff"
	Viewer  Role = "viewer"
)

// All lista los roles de mayor a menor rango.
var All = []Role{Owner, Admin, Manager, Staff, Viewer}

// Rank devuelve el rango jerárquico del rol (owner=5 … viewer=1). Un rol desconocido vale 0.
func Rank(r Role) int {
	switch r {
	case Owner:
		return 5
	case Admin:
		return 4
	case Manager:
		return 3
	case Staff:
		return 2
	case Viewer:
		return 1
	default:
		return 0
	}
}

// IsValid informa si el rol pertenece a la jerarquía.
func (r Role) IsValid() bool { return Rank(r) > 0 }

// String devuelve la representación textual del rol.
func (r Role) String() string { return string(r) }

// Parse convierte un texto (sin distinguir mayúsculas) en Role.
func Parse(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.IsValid()
}

// CanAssign: un actor puede conferir un rol de rango menor o igual al suyo.
func CanAssign(actorRank int, target Role) bool {
	return target.IsValid() && actorRank >= Rank(target)
}

// Outranks: el actor supera estrictamente al rol destino (regla de remoción).
func Outranks(actorRank int, target Role) bool {
	return actorRank > Rank(target)
}

// Permission es una capacidad concreta dentro de un negocio.
type Permission string

// Permisos conocidos.
const (
	PermViewRecords       Permission = "view_records"
	PermManageRecords     Permission = "manage_records"
	PermViewTeam          Permission = "view_team"
	PermInviteMembers     Permission = "invite_members"
	PermModifyRoles       Permission = "modify_roles"
	PermRemoveMembers     Permission = "remove_members"
	PermExportData        Permission = "export_data"
	PermViewAudit         Permission = "view_audit"
	PermManageBilling     Permission = "manage_billing"
	PermTransferOwnership Permission = "transfer_ownership"
)

// AllPermissions lista todos los permisos reconocidos.
var AllPermissions = []Permission{
	PermViewRecords, PermManageRecords, PermViewTeam, PermInviteMembers, PermModifyRoles,
	PermRemoveMembers, PermExportData, PermViewAudit, PermManageBilling, PermTransferOwnership,
}

// IsValid informa si el permiso es reconocido.
func (p Permission) IsValid() bool {
	for _, k := range AllPermissions {
		if k == p {
			return true
		}
	}
	return false
}

// PermissionSet conjunto de permisos.
type PermissionSet map[Permission]struct{}

// NewPermissionSet construye un conjunto a partir de una lista.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has informa si el conjunto contiene el permiso.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted devuelve los permisos ordenados (salida estable para respuestas).
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var defaults = map[Role][]Permission{
	Owner: AllPermissions,
	Admin: {
		PermViewRecords, PermManageRecords, PermViewTeam, PermInviteMembers,
		PermModifyRoles, PermRemoveMembers, PermExportData, PermViewAudit,
	},
	Manager: {PermViewRecords, PermManageRecords, PermViewTeam},
	Staff:   {PermViewRecords, PermManageRecords},
	Viewer:  {PermViewRecords},
}

// DefaultPermissions devuelve el conjunto de permisos por defecto del rol.
func DefaultPermissions(r Role) PermissionSet {
	return NewPermissionSet(defaults[r]...)
}

// Overrides son permisos agregados (Allow) o retirados (Deny) sobre los del rol.
// Nunca alteran el rango: las comprobaciones jerárquicas usan siempre el rol.
type Overrides struct {
	Allow []Permission `json:"allow,omitempty"`
	Deny  []Permission `json:"deny,omitempty"`
}

// IsEmpty informa si no hay ajustes.
func (o Overrides) IsEmpty() bool { return len(o.Allow) == 0 && len(o.Deny) == 0 }

// Validate comprueba que todos los permisos sean conocidos y que Allow no otorgue
// transferencia de propiedad (reservada al rol owner).
func (o Overrides) Validate() bool {
	for _, p := range o.Allow {
		if !p.IsValid() || p == PermTransferOwnership {
			return false
		}
	}
	for _, p := range o.Deny {
		if !p.IsValid() {
			return false
		}
	}
	return true
}

// EffectivePermissions = permisos del rol ∪ Allow − Deny.
func EffectivePermissions(r Role, o Overrides) PermissionSet {
	set := DefaultPermissions(r)
	for _, p := range o.Allow {
		if p == PermTransferOwnership {
			continue
		}
		set[p] = struct{}{}
	}
	for _, p := range o.Deny {
		delete(set, p)
	}
	return set
}
