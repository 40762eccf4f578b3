package team

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/bizhub-api/internal/domain"
	"github.com/jhoicas/bizhub-api/internal/domain/entity"
	"github.com/jhoicas/bizhub-api/internal/domain/role"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlug     = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify deriva un slug (a-z, 0-9, guiones) a partir de un nombre.
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// CreateBusiness da de alta un negocio con el llamador como único propietario activo.
// Sin OrganizationID se crea también la organización. Con OrganizationID el llamador debe
// ser propietario activo de algún negocio de esa organización.
func (s *Service) CreateBusiness(ctx context.Context, id Identity, in CreateBusinessInput) (_ *BusinessView, err error) {
	ctx, span := s.startSpan(ctx, "create_business", "")
	defer func() { endSpan(span, err) }()

	name := strings.TrimSpace(in.Name)
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if id.UserID == "" || name == "" || !slugPattern.MatchString(slug) {
		return nil, domain.ErrInvalidInput
	}

	view := &BusinessView{}
	err = s.tx.RunTeam(ctx, func(r Repos) error {
		now := s.now()
		if err := r.Users.Upsert(ctx, &entity.User{
			ID:          id.UserID,
			Email:       NormalizeEmail(id.Email),
			DisplayName: id.DisplayName,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		org, err := s.organizationFor(ctx, r, id.UserID, in, slug, now)
		if err != nil {
			return err
		}
		b := &entity.Business{
			ID:             uuid.New().String(),
			OrganizationID: org.ID,
			Name:           name,
			Slug:           slug,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.Businesses.Create(ctx, b); err != nil {
			return err
		}
		m := &entity.Membership{
			BusinessID: b.ID,
			UserID:     id.UserID,
			Role:       role.Owner,
			Status:     entity.MembershipActive,
			JoinedAt:   &now,
			UpdatedAt:  now,
		}
		if err := r.Memberships.Create(ctx, m); err != nil {
			return err
		}
		view.Organization, view.Business, view.Membership = org, b, m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("business_id", view.Business.ID).Str("owner_id", id.UserID).Msg("negocio creado")
	s.record(ctx, entity.AuditRecord{
		BusinessID: view.Business.ID,
		ActorID:    id.UserID,
		Action:     entity.AuditBusinessCreated,
		TargetID:   id.UserID,
		AfterRole:  role.Owner.String(),
		Metadata:   map[string]string{"organization_id": view.Organization.ID, "slug": slug},
	})
	return view, nil
}

func (s *Service) organizationFor(ctx context.Context, r Repos, userID string, in CreateBusinessInput, slug string, now time.Time) (*entity.Organization, error) {
	if in.OrganizationID == "" {
		name := strings.TrimSpace(in.OrganizationName)
		if name == "" {
			name = strings.TrimSpace(in.Name)
		}
		org := &entity.Organization{ID: uuid.New().String(), Name: name, Slug: slug, CreatedAt: now}
		if err := r.Organizations.Create(ctx, org); err != nil {
			return nil, err
		}
		return org, nil
	}

	org, err := r.Organizations.GetByID(ctx, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotAMember
	}
	businesses, err := r.Businesses.ListByOrganization(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	for _, b := range businesses {
		m, err := r.Memberships.Get(ctx, b.ID, userID)
		if err != nil {
			return nil, err
		}
		if m.IsActiveOwner() {
			return org, nil
		}
	}
	return nil, domain.ErrNotAMember
}
