package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

func TestRenderRoster_GeneraPDF(t *testing.T) {
	joined := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	members := []*entity.MemberView{
		{Membership: entity.Membership{UserID: "u1", Role: role.Owner, Status: entity.MembershipActive, JoinedAt: &joined},
			Email: "duena@tienda.co", DisplayName: "Dueña"},
		{Membership: entity.Membership{UserID: "u2", Role: role.Staff, Status: entity.MembershipSuspended},
			Email: "caja@tienda.co"},
	}
	b := &entity.Business{ID: "b1", Name: "Tienda Centro", Slug: "tienda-centro", IsActive: true}

	out, err := NewRosterGenerator().RenderRoster(context.Background(), b, members, time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "debe ser un PDF")
}

func TestRenderRoster_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRosterGenerator().RenderRoster(ctx, &entity.Business{Name: "X"}, nil, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
