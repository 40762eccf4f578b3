package entity

import "time"

// Organization contenedor raíz del tenant; agrupa uno o más negocios.
type Organization struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Business es la unidad de aislamiento: toda decisión de autorización se limita a un negocio.
type Business struct {
	ID             string
	OrganizationID string
	Name           string
	Slug           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
