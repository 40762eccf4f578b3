package role_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

func TestRank_OrdenEstricto(t *testing.T) {
	assert.Equal(t, 5, role.Rank(role.Owner))
	assert.Equal(t, 4, role.Rank(role.Admin))
	assert.Equal(t, 3, role.Rank(role.Manager))
	assert.Equal(t, 2, role.Rank(role.Staff))
	assert.Equal(t, 1, role.Rank(role.Viewer))
	assert.Equal(t, 0, role.Rank(role.Role("superuser")), "rol desconocido vale 0")

	for i := 1; i < len(role.All); i++ {
		assert.Greater(t, role.Rank(role.All[i-1]), role.Rank(role.All[i]))
	}
}

func TestCanAssign_TodasLasCombinaciones(t *testing.T) {
	for _, actor := range role.All {
		for _, target := range role.All {
			want := role.Rank(actor) >= role.Rank(target)
			assert.Equal(t, want, role.CanAssign(role.Rank(actor), target),
				"actor=%s target=%s", actor, target)
		}
	}
	assert.False(t, role.CanAssign(5, role.Role("root")), "no se asignan roles desconocidos")
}

func TestOutranks_EsEstricto(t *testing.T) {
	assert.False(t, role.Outranks(role.Rank(role.Admin), role.Admin), "pares no se superan")
	assert.True(t, role.Outranks(role.Rank(role.Admin), role.Manager))
	assert.False(t, role.Outranks(role.Rank(role.Admin), role.Owner))
}

func TestParse(t *testing.T) {
	r, ok := role.Parse("  Manager ")
	assert.True(t, ok)
	assert.Equal(t, role.Manager, r)

	_, ok = role.Parse("bodeguero")
	assert.False(t, ok)
}

func TestDefaultPermissions(t *testing.T) {
	owner := role.DefaultPermissions(role.Owner)
	for _, p := range role.AllPermissions {
		assert.True(t, owner.Has(p), "owner debe tener %s", p)
	}

	admin := role.DefaultPermissions(role.Admin)
	assert.True(t, admin.Has(role.PermInviteMembers))
	assert.True(t, admin.Has(role.PermExportData))
	assert.False(t, admin.Has(role.PermTransferOwnership))

	viewer := role.DefaultPermissions(role.Viewer)
	assert.Equal(t, []role.Permission{role.PermViewRecords}, viewer.Sorted())
}

func TestEffectivePermissions_OverridesNoOtorganTransferencia(t *testing.T) {
	o := role.Overrides{
		Allow: []role.Permission{role.PermExportData, role.PermTransferOwnership},
		Deny:  []role.Permission{role.PermManageRecords},
	}
	set := role.EffectivePermissions(role.Staff, o)

	assert.True(t, set.Has(role.PermExportData), "allow agrega permisos")
	assert.False(t, set.Has(role.PermManageRecords), "deny retira permisos")
	assert.False(t, set.Has(role.PermTransferOwnership), "transferencia nunca por override")
	assert.False(t, o.Validate())
}

func TestOverridesValidate(t *testing.T) {
	assert.True(t, role.Overrides{Allow: []role.Permission{role.PermViewAudit}}.Validate())
	assert.False(t, role.Overrides{Deny: []role.Permission{"borrar_todo"}}.Validate())
	assert.True(t, role.Overrides{}.IsEmpty())
}
